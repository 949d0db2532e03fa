package biz

import (
	"errors"
	"fmt"
)

// 存储相关错误
var (
	ErrNotInitialized   = errors.New("file transfer client is not initialized")
	ErrUploadFailed     = errors.New("upload failed")
	ErrFileNotFound     = errors.New("file not found")
	ErrPermissionDenied = errors.New("storage permission denied")
	ErrDuplicateObject  = errors.New("object key already recorded")
)

// 校验相关错误
var (
	ErrInvalidFileType = errors.New("only PDF or Excel files are supported")
	ErrFileTooLarge    = errors.New("file is too large")
)

// ValidationReason 校验失败原因
type ValidationReason string

const (
	ReasonType ValidationReason = "type"
	ReasonSize ValidationReason = "size"
)

// ValidationError 上传前校验失败
type ValidationError struct {
	Reason ValidationReason
	Name   string
	Size   int64
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonSize:
		return fmt.Sprintf("%s: %s (%d bytes, max %d)", ErrFileTooLarge, e.Name, e.Size, MaxUploadSize)
	default:
		return fmt.Sprintf("%s: %s", ErrInvalidFileType, e.Name)
	}
}

// Is 支持 errors.Is(err, ErrInvalidFileType) / errors.Is(err, ErrFileTooLarge)
func (e *ValidationError) Is(target error) bool {
	switch e.Reason {
	case ReasonSize:
		return target == ErrFileTooLarge
	default:
		return target == ErrInvalidFileType
	}
}

// TransferError 上传失败；底层原因只写日志，不通过 Unwrap 暴露
type TransferError struct {
	cause error
}

func (e *TransferError) Error() string {
	return ErrUploadFailed.Error()
}

// Is 支持 errors.Is(err, ErrUploadFailed)
func (e *TransferError) Is(target error) bool {
	return target == ErrUploadFailed
}
