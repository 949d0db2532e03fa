package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantStatus int
		wantKey    string
	}{
		{"file type", ErrFileTypeNotAllowed, http.StatusBadRequest, "error.file_type"},
		{"file too large", ErrFileTooLarge, http.StatusBadRequest, "error.file_too_large"},
		{"upload failed", ErrUploadFailed, http.StatusBadGateway, "error.upload_failed"},
		{"file not found", ErrFileNotFound, http.StatusNotFound, "error.file_not_found"},
		{"unknown falls back to internal", 987654, http.StatusInternalServerError, "error.internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, GetHTTPStatus(tt.code))
			assert.Equal(t, tt.wantKey, GetKey(tt.code))
		})
	}
}

func TestWrapKeepsExistingCode(t *testing.T) {
	inner := New(ErrFileTooLarge)
	wrapped := Wrap(inner, ErrInternalServer)

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrFileTooLarge, wrapped.Code)
	assert.True(t, Is(wrapped, ErrFileTooLarge))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrInternalServer))
}

func TestExtractCode(t *testing.T) {
	assert.Equal(t, ErrFileNotFound, ExtractCode(New(ErrFileNotFound)))
	assert.Equal(t, ErrInternalServer, ExtractCode(errors.New("plain")))
}

func TestGetDetailsHidesCause(t *testing.T) {
	err := Wrap(errors.New("dial tcp 10.0.0.1:9000: connection refused"), ErrUploadFailed)

	assert.Empty(t, GetDetails(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestClientServerClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrFileTypeNotAllowed))
	assert.False(t, IsServerError(ErrFileTypeNotAllowed))
	assert.True(t, IsServerError(ErrUploadFailed))
}
