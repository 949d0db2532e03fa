package biz

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MaxUploadSize 单文件大小上限 20 MiB
const MaxUploadSize int64 = 20 << 20

// AcceptedExtensions 文件选择框的 accept 属性
const AcceptedExtensions = ".pdf,.xlsx,.xls,.csv"

var spreadsheetName = regexp.MustCompile(`(?i)\.(xlsx|xls|csv)$`)

// IsSpreadsheetName 按扩展名判断是否为表格文件
func IsSpreadsheetName(name string) bool {
	return spreadsheetName.MatchString(name)
}

// IsPDF MIME 为 application/pdf 或扩展名为 .pdf
func IsPDF(name, contentType string) bool {
	return contentType == "application/pdf" || strings.EqualFold(filepath.Ext(name), ".pdf")
}

// IsSpreadsheet MIME 含 spreadsheet/excel，或扩展名为 .xlsx/.xls/.csv
func IsSpreadsheet(name, contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "spreadsheet") || strings.Contains(ct, "excel") || IsSpreadsheetName(name)
}

// ValidateUpload 上传前校验类型与大小，任何网络调用之前执行
func ValidateUpload(name, contentType string, size int64) error {
	if !IsPDF(name, contentType) && !IsSpreadsheet(name, contentType) {
		return &ValidationError{Reason: ReasonType, Name: name, Size: size}
	}
	if size > MaxUploadSize {
		return &ValidationError{Reason: ReasonSize, Name: name, Size: size}
	}
	return nil
}
