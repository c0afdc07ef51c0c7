package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the standard browser hardening headers. HTTPS redirects
// and HSTS only apply in production, behind a proxy that sets
// X-Forwarded-Proto.
func SecureHeaders(isProduction bool) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		SSLRedirect:          isProduction,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:           stsSeconds(isProduction),
		STSIncludeSubdomains: isProduction,
		IsDevelopment:        !isProduction,
	})
	return sec.Handler
}

func stsSeconds(isProduction bool) int64 {
	if isProduction {
		return 31536000
	}
	return 0
}
