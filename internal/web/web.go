// Package web 页面模板、按钮组件与静态资源，全部嵌入二进制
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/lk2023060901/tomato-share/internal/pkg/i18n"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// 页面模板名
const (
	PageUpload = "upload"
	PageViewer = "viewer"
)

// 前端脚本使用的文案前缀
var scriptMessagePrefixes = []string{"app.", "upload.", "viewer.", "error."}

// Page 渲染页面所需数据
type Page struct {
	Lang  string
	Title string
	// Script 页面脚本，位于 /static/ 下
	Script string
	Data   any
}

// Renderer 每个页面一份 layout + button + 页面模板的组合
type Renderer struct {
	pages  map[string]*template.Template
	bundle *i18n.Bundle
	logger *zap.Logger
}

func NewRenderer(bundle *i18n.Bundle, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{pages: make(map[string]*template.Template), bundle: bundle, logger: logger}

	base, err := template.New("layout").Funcs(r.funcs()).
		ParseFS(templateFS, "templates/layout.tmpl", "templates/button.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	for _, name := range []string{PageUpload, PageViewer} {
		tmpl, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.ParseFS(templateFS, "templates/"+name+".tmpl"); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"t": func(lang, key string) string {
			return r.bundle.Translate(lang, key)
		},
		"tHTML": func(lang, key string) template.HTML {
			return r.bundle.HTML(lang, key)
		},
		"button": NewButton,
		"icon":   icon,
		"messages": func(lang string) (template.JS, error) {
			raw, err := json.Marshal(r.bundle.Messages(lang, scriptMessagePrefixes...))
			if err != nil {
				return "", err
			}
			return template.JS(raw), nil
		},
		"otherLang": func(lang string) string {
			if lang == i18n.LangEN {
				return i18n.LangZH
			}
			return i18n.LangEN
		},
	}
}

// Render 先渲染到缓冲区，成功后一次性写出
func (r *Renderer) Render(w io.Writer, name string, page *Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	if page.Lang == "" {
		page.Lang = r.bundle.DefaultLang()
	}
	if page.Title == "" {
		page.Title = r.bundle.Translate(page.Lang, "app.title")
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "layout", page); err != nil {
		r.logger.Error("error executing template", zap.String("template", name), zap.Error(err))
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// StaticFS /static/* 的文件系统
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
