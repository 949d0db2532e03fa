package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lk2023060901/tomato-share/internal/pkg/shareclient"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
)

const usage = `番茄快传命令行工具

用法:
  sharectl [-server URL] [-lang zh|en] [-timeout 5m] upload <file>
  sharectl [-server URL] [-lang zh|en] info <id>
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sharectl", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	server := fs.String("server", envOr("TOMATO_SERVER_URL", "http://localhost:8080"), "server base url")
	lang := fs.String("lang", "zh", "message language")
	timeout := fs.Duration("timeout", 5*time.Minute, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) != 2 {
		fs.Usage()
		return errors.New("expected a command and one argument")
	}

	client, err := shareclient.New(*server, shareclient.WithLanguage(*lang))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	switch rest[0] {
	case "upload":
		return upload(ctx, client, rest[1], out)
	case "info":
		return info(ctx, client, rest[1], out)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func upload(ctx context.Context, client *shareclient.Client, path string, out io.Writer) error {
	fmt.Fprintf(out, "📤 上传 %s\n", path)

	last := -1
	f, err := client.UploadFile(ctx, path, func(sent, total int64) {
		if p := biz.Percent(sent, total); p != last {
			last = p
			fmt.Fprintf(out, "\r   进度: %3d%%", p)
		}
	})
	if last >= 0 {
		fmt.Fprintln(out)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✅ 上传成功\n")
	printFile(out, f)
	return nil
}

func info(ctx context.Context, client *shareclient.Client, id string, out io.Writer) error {
	f, err := client.Info(ctx, id)
	if err != nil {
		return err
	}
	printFile(out, f)
	return nil
}

func printFile(out io.Writer, f *shareclient.File) {
	fmt.Fprintf(out, "   • ID: %s\n", f.ID)
	fmt.Fprintf(out, "   • 文件名: %s\n", f.Name)
	fmt.Fprintf(out, "   • 大小: %s\n", biz.FormatSizeMB(f.Size))
	fmt.Fprintf(out, "   • 类型: %s\n", f.ViewerKind)
	if !f.CreatedAt.IsZero() {
		fmt.Fprintf(out, "   • 上传时间: %s\n", f.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(out, "   • 下载地址: %s\n", f.URL)
	fmt.Fprintf(out, "🔗 分享链接: %s\n", f.ViewURL)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
