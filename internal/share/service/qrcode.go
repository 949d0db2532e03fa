package service

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/tomato-share/internal/pkg/errors"
	"github.com/lk2023060901/tomato-share/internal/pkg/response"
	"github.com/skip2/go-qrcode"
)

// qrCodeSize 二维码边长（像素）
const qrCodeSize = 256

// QRCode 预览页链接的二维码
func (s *FileService) QRCode(c *gin.Context) {
	record := s.transfer.GetFileInfo(c.Request.Context(), c.Param("id"))
	if record == nil {
		response.HandleError(c, apperrors.New(apperrors.ErrFileNotFound, c.Param("id")))
		return
	}

	png, err := qrcode.Encode(s.viewURL(c, record.ID), qrcode.Medium, qrCodeSize)
	if err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInternalServer, "encode qrcode"))
		return
	}

	// 记录不可变，二维码可长期缓存
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
