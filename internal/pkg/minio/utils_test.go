package minio

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name    string
		bucket  string
		wantErr bool
	}{
		{"valid", "tomato-share", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"uppercase", "Tomato", true},
		{"double hyphen", "tomato--share", true},
		{"ip address", "192.168.1.1", true},
		{"reserved prefix", "xn--bucket", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "uploads/2026/10/19/abc.pdf", ObjectKey("/uploads/", "2026/10/19", "abc", "Report.PDF"))
	assert.Equal(t, "abc.xlsx", ObjectKey("", "", "abc", "sheet.xlsx"))
	assert.Equal(t, "a/b/id", ObjectKey("a//b", "", "id", "noext"))
}

func TestProgressReader(t *testing.T) {
	var calls [][2]int64
	r := NewProgressReader(bytes.NewReader(make([]byte, 10)), 10, func(cur, total int64) {
		calls = append(calls, [2]int64{cur, total})
	})

	buf := make([]byte, 4)
	for {
		_, err := r.Read(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}

	require.Len(t, calls, 3)
	assert.Equal(t, [2]int64{4, 10}, calls[0])
	assert.Equal(t, [2]int64{10, 10}, calls[2])
}

func TestProgressReaderWithoutCallback(t *testing.T) {
	src := bytes.NewReader(nil)
	assert.Same(t, src, NewProgressReader(src, 0, nil))
}

func TestPublicReadPolicy(t *testing.T) {
	policy, err := PublicReadPolicy("tomato-share")
	require.NoError(t, err)

	var doc policyDocument
	require.NoError(t, json.Unmarshal([]byte(policy), &doc))
	require.Len(t, doc.Statement, 1)
	assert.Equal(t, []string{"s3:GetObject"}, doc.Statement[0].Action)
	assert.Equal(t, []string{"arn:aws:s3:::tomato-share/*"}, doc.Statement[0].Resource)
}

func TestErrorClassification(t *testing.T) {
	notFound := WrapError("StatObject", minio.ErrorResponse{Code: "NoSuchKey"}, "b", "k")
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsAccessDenied(notFound))

	denied := WrapError("PutObject", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, "b", "k")
	assert.True(t, IsAccessDenied(denied))
	assert.Contains(t, denied.Error(), "bucket=b, object=k")

	assert.True(t, IsBucketAlreadyExists(minio.ErrorResponse{Code: "BucketAlreadyOwnedByYou"}))
	assert.Nil(t, WrapError("x", nil, "", ""))
}

func TestConfig(t *testing.T) {
	cfg := &Config{Endpoint: "localhost:9000", AccessKeyID: "a", SecretAccessKey: "s"}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BucketLookupAuto, cfg.BucketLookup)
	assert.Equal(t, "http://localhost:9000", cfg.BaseURL())

	cfg.BucketLookup = "bogus"
	assert.Error(t, cfg.Validate())

	_, err := NewClient(&Config{}, nil)
	assert.Error(t, err)
}

func TestClosedClient(t *testing.T) {
	cfg := &Config{Endpoint: "localhost:9000", AccessKeyID: "a", SecretAccessKey: "s"}
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.True(t, c.IsClosed())

	_, err = c.BucketExists(t.Context(), "tomato-share")
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.Equal(t, "http://localhost:9000/tomato-share/a/b.pdf", c.ObjectURL("tomato-share", "a/b.pdf"))
}
