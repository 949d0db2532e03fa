package s3

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid with default credentials", Config{Region: "us-east-1", Bucket: "b"}, false},
		{"valid with static credentials", Config{Region: "us-east-1", Bucket: "b", AccessKeyID: "a", SecretAccessKey: "s"}, false},
		{"missing region", Config{Bucket: "b"}, true},
		{"missing bucket", Config{Region: "us-east-1"}, true},
		{"half credentials", Config{Region: "us-east-1", Bucket: "b", AccessKeyID: "a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"aws virtual host", Config{Region: "ap-east-1", Bucket: "tomato"}, "https://tomato.s3.ap-east-1.amazonaws.com/a/b.pdf"},
		{"custom endpoint path style", Config{Bucket: "tomato", Endpoint: "http://localhost:9000/", UsePathStyle: true}, "http://localhost:9000/tomato/a/b.pdf"},
		{"custom endpoint virtual host", Config{Bucket: "tomato", Endpoint: "https://r2.example.com"}, "https://tomato.r2.example.com/a/b.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ObjectURL("/a/b.pdf"))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify("op", nil))

	err := classify("upload object", &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = classify("head bucket", &smithy.GenericAPIError{Code: "NoSuchBucket"})
	assert.ErrorIs(t, err, ErrNotFound)

	plain := errors.New("boom")
	err = classify("delete object", plain)
	assert.ErrorIs(t, err, plain)
}

func TestProgressReader(t *testing.T) {
	var last int64
	calls := 0
	r := &progressReader{reader: bytes.NewReader(make([]byte, 7)), total: 7, fn: func(cur, total int64) {
		calls++
		last = cur
		assert.Equal(t, int64(7), total)
	}}

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, data, 7)
	assert.Equal(t, int64(7), last)
	assert.Positive(t, calls)
}
