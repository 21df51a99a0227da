package utils

import (
	"net/http"
	"os"
	"strings"
)

// Parses a single-line cookie header string, "name=value; name2=value2",
// into cookies scoped to www.pixiv.net.
func ParseCookieString(cookieStr string) []*http.Cookie {
	cookieStr = strings.TrimSpace(cookieStr)
	if cookieStr == "" {
		return nil
	}

	var cookies []*http.Cookie
	for _, pair := range strings.Split(cookieStr, "; ") {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:   name,
			Value:  value,
			Domain: "pixiv.net",
		})
	}
	return cookies
}

// Loads the session cookies from a file containing
// one line with the full cookie header string.
func LoadCookiesFromFile(filePath string) ([]*http.Cookie, error) {
	if !PathExists(filePath) {
		return nil, nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseCookieString(string(content)), nil
}

// Converts cookies back into a single Cookie header value for
// subprocesses that take the raw header instead of a cookie jar.
func CookieHeaderValue(cookies []*http.Cookie) string {
	pairs := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		pairs = append(pairs, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(pairs, "; ")
}
