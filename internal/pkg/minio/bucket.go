package minio

import (
	"context"
	"encoding/json"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// MakeBucketOptions represents options for creating a bucket
type MakeBucketOptions struct {
	// Region is the region where the bucket will be created
	Region string
	// ObjectLocking enables object locking for the bucket
	ObjectLocking bool
}

// MakeBucket creates a new bucket
func (c *Client) MakeBucket(ctx context.Context, bucketName string, opts MakeBucketOptions) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if err := ValidateBucketName(bucketName); err != nil {
		return WrapError("MakeBucket", err, bucketName, "")
	}

	region := opts.Region
	if region == "" {
		region = c.config.Region
	}

	err := c.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
		Region:        region,
		ObjectLocking: opts.ObjectLocking,
	})
	if err != nil {
		return WrapError("MakeBucket", err, bucketName, "")
	}

	c.logger.Info("bucket created successfully",
		zap.String("bucket", bucketName),
		zap.String("region", region),
	)
	return nil
}

// BucketExists checks if a bucket exists
func (c *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	if err := c.checkClosed(); err != nil {
		return false, err
	}

	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, WrapError("BucketExists", err, bucketName, "")
	}
	return exists, nil
}

// SetBucketPolicy replaces the bucket policy document
func (c *Client) SetBucketPolicy(ctx context.Context, bucketName, policy string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if err := c.client.SetBucketPolicy(ctx, bucketName, policy); err != nil {
		return WrapError("SetBucketPolicy", err, bucketName, "")
	}
	return nil
}

// EnsurePublicBucket 确保存储桶存在，并允许匿名读取对象（不允许匿名写入）
func (c *Client) EnsurePublicBucket(ctx context.Context, bucketName string) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	exists, err := c.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.MakeBucket(ctx, bucketName, MakeBucketOptions{}); err != nil && !IsBucketAlreadyExists(err) {
			return err
		}
	}

	policy, err := PublicReadPolicy(bucketName)
	if err != nil {
		return WrapError("EnsurePublicBucket", err, bucketName, "")
	}
	return c.SetBucketPolicy(ctx, bucketName, policy)
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy returns a bucket policy granting anonymous s3:GetObject on every key
func PublicReadPolicy(bucketName string) (string, error) {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucketName + "/*"},
		}},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
