package middleware

import (
	"log/slog"
	"net/http"

	"nimbus/internal/domain"
	"nimbus/internal/domain/services"
	"nimbus/internal/httputil"
)

// sessionCookie is the cookie carrying the session token.
const sessionCookie = "Authorization"

// Auth validates the session cookie and stashes the owner in the request
// context. Requests without a valid session get a uniform 401.
func Auth(authService services.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookie)
			if err != nil || cookie.Value == "" {
				httputil.RespondKind(w, http.StatusUnauthorized, string(domain.KindUnauthorized))
				return
			}

			user, err := authService.Verify(r.Context(), cookie.Value)
			if err != nil {
				logger.Debug("session rejected", "path", r.URL.Path, "error", err)
				httputil.RespondKind(w, http.StatusUnauthorized, string(domain.KindUnauthorized))
				return
			}

			next.ServeHTTP(w, httputil.WithOwner(r, user.ID, user.Username))
		})
	}
}
