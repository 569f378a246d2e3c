package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/seenimoa/companydash/internal/provider"
)

// SessionCookie names the cookie that scopes the fetch memo to one browser.
const SessionCookie = "companydash_session"

// sessionMiddleware attaches the browser session id to the request context,
// issuing a new cookie when the request carries none.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	if !s.cfg.Session.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(s.cfg.Session.TTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(provider.WithSession(r.Context(), id)))
	})
}
