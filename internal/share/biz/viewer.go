package biz

import (
	"fmt"
	"net/url"
)

// ViewerKind 预览方式
type ViewerKind string

const (
	ViewerPDF         ViewerKind = "pdf"
	ViewerSpreadsheet ViewerKind = "spreadsheet"
)

// OfficeViewerURL Microsoft Office 在线预览地址，src 参数为文件地址
const OfficeViewerURL = "https://view.officeapps.live.com/op/embed.aspx?src="

// Viewer 预览页的渲染模型
type Viewer struct {
	Kind ViewerKind `json:"kind"`
	// EmbedURL iframe/object 使用的地址
	EmbedURL    string `json:"embed_url"`
	DownloadURL string `json:"download_url"`
	SizeLabel   string `json:"size_label"`
	CreatedDate string `json:"created_date"`
}

// NewViewer 表格文件走 Office 在线预览，其余按 PDF 原生预览
func NewViewer(record *FileRecord) *Viewer {
	v := &Viewer{
		Kind:        ViewerPDF,
		EmbedURL:    record.URL,
		DownloadURL: record.URL,
		SizeLabel:   FormatSizeMB(record.Size),
	}
	if !record.CreatedAt.IsZero() {
		v.CreatedDate = record.CreatedAt.Local().Format("2006-01-02")
	}
	if IsSpreadsheetName(record.Name) {
		v.Kind = ViewerSpreadsheet
		v.EmbedURL = OfficeViewerURL + url.QueryEscape(record.URL)
	}
	return v
}

// IsSpreadsheet 是否走表格预览
func (v *Viewer) IsSpreadsheet() bool {
	return v.Kind == ViewerSpreadsheet
}

// FormatSizeMB 字节数转为保留两位小数的 MB
func FormatSizeMB(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
}
