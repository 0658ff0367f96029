package middlewarex

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// StaticBearerToken пускает только запросы с заголовком
// "Authorization: Bearer <token>". Сравнение постоянное по времени.
func StaticBearerToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
