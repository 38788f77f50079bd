package api

import (
	"net/url"
	"strings"
)

// OriginPolicy 决定浏览器来源是否可信，CORS 与 WebSocket 握手共用同一份规则。
type OriginPolicy struct {
	allowed        map[string]struct{}
	allowLocalhost bool
}

// NewOriginPolicy 非生产环境额外放行任意端口的 http://localhost。
func NewOriginPolicy(allowed []string, production bool) *OriginPolicy {
	p := &OriginPolicy{
		allowed:        make(map[string]struct{}, len(allowed)),
		allowLocalhost: !production,
	}
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			p.allowed[origin] = struct{}{}
		}
	}
	return p
}

func (p *OriginPolicy) Allowed(origin string) bool {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return false
	}
	if _, ok := p.allowed[origin]; ok {
		return true
	}
	if !p.allowLocalhost {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Scheme == "http" && u.Hostname() == "localhost"
}
