package web

import (
	"fmt"
	"html/template"
	"strings"
)

// Variant 按钮样式
type Variant string

const (
	VariantPrimary   Variant = "primary"
	VariantSecondary Variant = "secondary"
	VariantOutline   Variant = "outline"
	VariantGhost     Variant = "ghost"
)

func normalizeVariant(v Variant) Variant {
	switch v {
	case VariantPrimary, VariantSecondary, VariantOutline, VariantGhost:
		return v
	default:
		return VariantPrimary
	}
}

// Button 页面按钮。IsLoading 时图标替换为加载动画且按钮不可点击
type Button struct {
	Variant   Variant
	Label     string
	Icon      string
	IsLoading bool
	Disabled  bool
	Class     string
	Type      string
	Title     string
	ID        string
}

// IsDisabled 禁用或加载中
func (b Button) IsDisabled() bool {
	return b.Disabled || b.IsLoading
}

// ButtonType 默认 button，避免在表单内意外提交
func (b Button) ButtonType() string {
	switch b.Type {
	case "submit", "reset":
		return b.Type
	default:
		return "button"
	}
}

// Classes CSS 类名
func (b Button) Classes() string {
	classes := []string{"btn", "btn-" + string(normalizeVariant(b.Variant))}
	if b.IsLoading {
		classes = append(classes, "is-loading")
	}
	if b.Class != "" {
		classes = append(classes, b.Class)
	}
	return strings.Join(classes, " ")
}

// IconSVG 内联图标，未知名称返回空
func (b Button) IconSVG() template.HTML {
	return icon(b.Icon)
}

// NewButton 由模板中的键值对构造按钮:
//
//	{{template "button" button "label" (t .Lang "viewer.copy_link") "icon" "copy" "variant" "outline"}}
func NewButton(pairs ...any) (Button, error) {
	if len(pairs)%2 != 0 {
		return Button{}, fmt.Errorf("button: odd number of arguments")
	}

	var b Button
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return Button{}, fmt.Errorf("button: key %v is not a string", pairs[i])
		}
		value := pairs[i+1]

		switch key {
		case "variant":
			b.Variant = Variant(fmt.Sprint(value))
		case "label":
			b.Label = fmt.Sprint(value)
		case "icon":
			b.Icon = fmt.Sprint(value)
		case "class":
			b.Class = fmt.Sprint(value)
		case "type":
			b.Type = fmt.Sprint(value)
		case "title":
			b.Title = fmt.Sprint(value)
		case "id":
			b.ID = fmt.Sprint(value)
		case "loading", "disabled":
			flag, ok := value.(bool)
			if !ok {
				return Button{}, fmt.Errorf("button: %s must be a bool", key)
			}
			if key == "loading" {
				b.IsLoading = flag
			} else {
				b.Disabled = flag
			}
		default:
			return Button{}, fmt.Errorf("button: unknown attribute %q", key)
		}
	}
	b.Variant = normalizeVariant(b.Variant)
	return b, nil
}

var icons = map[string]string{
	"upload":   `<path d="M12 16V4m0 0l-4 4m4-4l4 4M4 20h16"/>`,
	"copy":     `<rect x="9" y="9" width="11" height="11" rx="2"/><path d="M5 15V5a2 2 0 012-2h10"/>`,
	"check":    `<path d="M5 13l4 4L19 7"/>`,
	"download": `<path d="M12 4v12m0 0l-4-4m4 4l4-4M4 20h16"/>`,
	"external": `<path d="M14 4h6v6m0-6L10 14M18 14v5a1 1 0 01-1 1H5a1 1 0 01-1-1V7a1 1 0 011-1h5"/>`,
	"file":     `<path d="M14 3H6a1 1 0 00-1 1v16a1 1 0 001 1h12a1 1 0 001-1V8l-5-5z"/><path d="M14 3v5h5"/>`,
	"home":     `<path d="M3 11l9-8 9 8M5 10v10h14V10"/>`,
}

func icon(name string) template.HTML {
	path, ok := icons[name]
	if !ok {
		return ""
	}
	return template.HTML(`<svg class="icon" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true">` + path + `</svg>`)
}
