package validator

import (
	"net"
	"strings"
)

// NormalizeIP 规范化客户端 IP
// 移除 IPv6 的 zone identifier (例如 fe80::1%eth0 -> fe80::1), 无法解析时返回 "unknown"
func NormalizeIP(ip string) string {
	if idx := strings.IndexByte(ip, '%'); idx != -1 {
		ip = ip[:idx]
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "unknown"
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.String()
	}
	return parsed.String()
}
