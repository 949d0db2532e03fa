package s3

import (
	"errors"
	"strings"
)

// Config S3 兼容存储配置
type Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_key"`
	SessionToken    string `mapstructure:"session_token"`
	// Endpoint 自定义端点（R2、OSS 等兼容服务），为空时使用 AWS 默认端点
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	// PartSize 分片大小（字节），小于 5MiB 时使用 SDK 默认值
	PartSize    int64 `mapstructure:"part_size"`
	Concurrency int   `mapstructure:"concurrency"`
	// PublicACL 上传时附带 public-read ACL；桶禁用 ACL 时应关闭
	PublicACL bool `mapstructure:"public_acl"`
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Region == "" {
		return errors.New("s3: region is required")
	}
	if c.Bucket == "" {
		return errors.New("s3: bucket is required")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.New("s3: access key and secret key must be set together")
	}
	return nil
}

// ObjectURL 返回对象的直接访问地址
func (c *Config) ObjectURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if c.Endpoint != "" {
		base := strings.TrimRight(c.Endpoint, "/")
		if c.UsePathStyle {
			return base + "/" + c.Bucket + "/" + key
		}
		scheme, host, ok := strings.Cut(base, "://")
		if !ok {
			return "https://" + c.Bucket + "." + base + "/" + key
		}
		return scheme + "://" + c.Bucket + "." + host + "/" + key
	}
	return "https://" + c.Bucket + ".s3." + c.Region + ".amazonaws.com/" + key
}
