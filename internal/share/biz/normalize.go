package biz

import (
	"net/url"
	"strings"
)

// URLNormalizer 将对象地址改写为 https + 固定公网域名
type URLNormalizer struct {
	host string
}

// NewURLNormalizer publicDomain 为空时只强制 https，保留原主机
func NewURLNormalizer(publicDomain string) *URLNormalizer {
	host := strings.TrimSpace(publicDomain)
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		// 允许配置成 https://files.example.com
		host = u.Host
	}
	return &URLNormalizer{host: strings.TrimRight(host, "/")}
}

// Host 返回配置的公网域名
func (n *URLNormalizer) Host() string {
	return n.host
}

// Normalize 强制 https 并替换主机，保留路径与查询参数。
// 无法解析时退化为把 http:// 前缀替换为 https://。结果幂等。
func (n *URLNormalizer) Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if strings.HasPrefix(raw, "http://") {
			return "https://" + strings.TrimPrefix(raw, "http://")
		}
		return raw
	}

	u.Scheme = "https"
	if n.host != "" {
		u.Host = n.host
	}
	return u.String()
}
