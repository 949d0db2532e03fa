package service

import (
	"errors"

	apperrors "github.com/lk2023060901/tomato-share/internal/pkg/errors"
	"github.com/lk2023060901/tomato-share/internal/pkg/workerpool"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
)

// toAppError 业务错误映射为带错误码的 AppError
func toAppError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, biz.ErrInvalidFileType):
		return apperrors.Wrap(err, apperrors.ErrFileTypeNotAllowed)
	case errors.Is(err, biz.ErrFileTooLarge):
		return apperrors.Wrap(err, apperrors.ErrFileTooLarge)
	case errors.Is(err, biz.ErrNotInitialized):
		return apperrors.Wrap(err, apperrors.ErrNotInitialized)
	case errors.Is(err, biz.ErrUploadFailed):
		return apperrors.Wrap(err, apperrors.ErrUploadFailed)
	case errors.Is(err, biz.ErrFileNotFound):
		return apperrors.Wrap(err, apperrors.ErrFileNotFound)
	case errors.Is(err, workerpool.ErrPoolOverload), errors.Is(err, workerpool.ErrPoolClosed):
		return apperrors.Wrap(err, apperrors.ErrServiceUnavail)
	default:
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
}
