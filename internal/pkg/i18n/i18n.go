// Package i18n 页面与接口文案的多语言支持
// 语言优先级: 查询参数 lang → cookie "lang" → Accept-Language → 默认语言
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// 支持的语言
const (
	LangZH = "zh"
	LangEN = "en"
)

var supported = map[string]language.Tag{
	LangZH: language.Chinese,
	LangEN: language.English,
}

type contextKey string

const langKey contextKey = "i18n_lang"

// Bundle 翻译目录集合
type Bundle struct {
	mu          sync.RWMutex
	catalogs    map[string]map[string]string // lang -> key -> message
	defaultLang string
	matcher     language.Matcher
	policy      *bluemonday.Policy
	logger      *zap.Logger
}

// NewBundle 创建空 Bundle
func NewBundle(defaultLang string, logger *zap.Logger) *Bundle {
	if _, ok := supported[defaultLang]; !ok {
		defaultLang = LangZH
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// 默认语言排在第一位, 无法匹配时 matcher 返回它
	tags := []language.Tag{supported[defaultLang]}
	for lang, tag := range supported {
		if lang != defaultLang {
			tags = append(tags, tag)
		}
	}

	return &Bundle{
		catalogs:    make(map[string]map[string]string),
		defaultLang: defaultLang,
		matcher:     language.NewMatcher(tags),
		policy:      bluemonday.UGCPolicy(),
		logger:      logger,
	}
}

// Load 创建 Bundle 并加载内置的全部语言目录
func Load(defaultLang string, logger *zap.Logger) (*Bundle, error) {
	b := NewBundle(defaultLang, logger)
	for lang := range supported {
		data, err := localeFS.ReadFile(fmt.Sprintf("locales/%s.json", lang))
		if err != nil {
			return nil, fmt.Errorf("i18n: read catalog %s: %w", lang, err)
		}
		if err := b.LoadMessages(lang, data); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// LoadMessages 加载一个扁平 JSON 目录 {"key": "message"}
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: parse catalog %s: %w", lang, err)
	}

	b.mu.Lock()
	b.catalogs[lang] = messages
	b.mu.Unlock()

	b.logger.Debug("i18n catalog loaded",
		zap.String("lang", lang),
		zap.Int("keys", len(messages)),
	)
	return nil
}

// DefaultLang 返回默认语言
func (b *Bundle) DefaultLang() string {
	return b.defaultLang
}

// Translate 按 lang → 默认语言 → key 本身的顺序查找
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if msg, ok := b.catalogs[b.defaultLang][key]; ok {
		return msg
	}
	return key
}

// Translatef 带参数的翻译
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	format := b.Translate(lang, key)
	if len(args) == 0 {
		return format
	}
	return sprintf(format, args...)
}

// sprintf 目录中的格式串在运行时加载, 绕开 vet 的 printf 检查
var sprintf = fmt.Sprintf

// HTML 返回经过清洗的 HTML 片段, 目录里允许少量内联标签
func (b *Bundle) HTML(lang, key string) template.HTML {
	return template.HTML(b.policy.Sanitize(b.Translate(lang, key)))
}

// Messages 返回指定前缀的全部文案, 供前端脚本使用
func (b *Bundle) Messages(lang string, prefixes ...string) map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]string)
	collect := func(catalog map[string]string) {
		for key, msg := range catalog {
			if _, exists := out[key]; exists {
				continue
			}
			for _, prefix := range prefixes {
				if strings.HasPrefix(key, prefix) {
					out[key] = msg
					break
				}
			}
		}
	}
	collect(b.catalogs[lang])
	collect(b.catalogs[b.defaultLang])
	return out
}

// Languages 返回已加载的语言
func (b *Bundle) Languages() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	langs := make([]string, 0, len(b.catalogs))
	for lang := range b.catalogs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Match 根据 Accept-Language 选择语言
func (b *Bundle) Match(acceptLanguage string) string {
	tag, _ := language.MatchStrings(b.matcher, acceptLanguage)
	base, _ := tag.Base()
	if _, ok := supported[base.String()]; ok {
		return base.String()
	}
	return b.defaultLang
}

// Normalize 把用户传入的语言值收敛到支持的语言, 不支持时返回空串
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if _, ok := supported[lang]; ok {
		return lang
	}
	return ""
}

// WithLang 把语言写入 context
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey, lang)
}

// LangFromContext 读取 context 中的语言, 没有时返回空串
func LangFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	lang, _ := ctx.Value(langKey).(string)
	return lang
}

// T 使用 context 中的语言翻译
func (b *Bundle) T(ctx context.Context, key string) string {
	lang := LangFromContext(ctx)
	if lang == "" {
		lang = b.defaultLang
	}
	return b.Translate(lang, key)
}

var (
	globalMu     sync.RWMutex
	globalBundle *Bundle
)

// SetDefault 设置全局 Bundle, 在启动时调用一次
func SetDefault(b *Bundle) {
	globalMu.Lock()
	globalBundle = b
	globalMu.Unlock()
}

// Default 返回全局 Bundle, 未设置时为 nil
func Default() *Bundle {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalBundle
}

// T 使用全局 Bundle 翻译, 未设置时返回 key
func T(ctx context.Context, key string) string {
	if b := Default(); b != nil {
		return b.T(ctx, key)
	}
	return key
}
