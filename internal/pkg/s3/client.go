package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

var (
	// ErrNotFound 对象或存储桶不存在
	ErrNotFound = errors.New("s3: not found")
	// ErrAccessDenied 凭证无权访问
	ErrAccessDenied = errors.New("s3: access denied")
)

// ProgressFunc 上传进度回调
type ProgressFunc func(current, total int64)

// PutInput 上传参数
type PutInput struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Metadata    map[string]string
	OnProgress  ProgressFunc
}

// PutOutput 上传结果
type PutOutput struct {
	Key      string
	Location string
	ETag     string
}

// Client 封装 aws-sdk-go-v2 的 S3 客户端与分片上传器
type Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   *Config
	logger   *zap.Logger
}

// NewClient 创建 S3 客户端；未配置静态凭证时使用默认凭证链
func NewClient(ctx context.Context, cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("s3: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(3),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize >= manager.MinUploadPartSize {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
	})

	logger.Info("s3 client initialized",
		zap.String("region", cfg.Region),
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint),
	)

	return &Client{client: client, uploader: uploader, config: cfg, logger: logger}, nil
}

// Config 返回客户端配置
func (c *Client) Config() *Config {
	return c.config
}

// Ping 通过 HeadBucket 检查连通性与权限
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.config.Bucket)})
	return classify("head bucket", err)
}

// Put 上传对象，大文件由 manager 自动切换为分片上传
func (c *Client) Put(ctx context.Context, in PutInput) (*PutOutput, error) {
	if in.Key == "" {
		return nil, errors.New("s3: object key cannot be empty")
	}

	body := in.Body
	if in.OnProgress != nil {
		body = &progressReader{reader: in.Body, total: in.Size, fn: in.OnProgress}
	}

	input := &s3.PutObjectInput{
		Bucket:   aws.String(c.config.Bucket),
		Key:      aws.String(in.Key),
		Body:     body,
		Metadata: in.Metadata,
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if in.Size > 0 {
		input.ContentLength = aws.Int64(in.Size)
	}
	if c.config.PublicACL {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	out, err := c.uploader.Upload(ctx, input)
	if err != nil {
		return nil, classify("upload object", err)
	}

	c.logger.Info("object uploaded",
		zap.String("bucket", c.config.Bucket),
		zap.String("key", in.Key),
		zap.Int64("size", in.Size),
	)

	return &PutOutput{
		Key:      in.Key,
		Location: c.config.ObjectURL(in.Key),
		ETag:     aws.ToString(out.ETag),
	}, nil
}

// Delete 删除对象
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(key),
	})
	return classify("delete object", err)
}

// classify 将 smithy API 错误归类为包内哨兵错误
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("s3: %s: %w: %v", op, ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("s3: %s: %w: %v", op, ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("s3: %s: %w", op, err)
}

type progressReader struct {
	reader  io.Reader
	total   int64
	current int64
	fn      ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		pr.fn(pr.current, pr.total)
	}
	return n, err
}
