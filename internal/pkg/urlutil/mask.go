// Package urlutil предоставляет утилиты для безопасного логирования URL.
package urlutil

import "net/url"

// MaskURL оставляет только scheme и host.
// Пример: "http://pushgateway:9091/metrics/job/x" → "http://pushgateway:9091/***"
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***invalid-url***"
	}
	return u.Scheme + "://" + u.Host + "/***"
}

// RequestPath возвращает URL запроса без userinfo и query.
// Путь Azure DevOps (организация, проект, ресурс) секретов не содержит.
func RequestPath(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	return clean.String()
}
