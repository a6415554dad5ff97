package server

import (
	"context"
	"net/http"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/session"
)

// CookieName is the session cookie.
const CookieName = "stagegraph_session"

type sessionKey struct{}

// withSession loads the caller's session, creating one if the cookie is
// missing, unknown or expired.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var sess *session.Session
		if c, err := r.Cookie(CookieName); err == nil {
			sess, err = s.sessions.Get(ctx, c.Value)
			if err != nil {
				writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "load session"))
				return
			}
		}
		if sess == nil {
			sess = session.New(s.cfg.SessionTTL)
			if err := s.sessions.Set(ctx, sess); err != nil {
				writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "create session"))
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sess.ID,
				Path:     "/",
				Expires:  sess.ExpiresAt,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, sess)))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// saveSelection stores key as the caller's selection.
func (s *Server) saveSelection(ctx context.Context, key string) error {
	sess := sessionFrom(ctx)
	if sess == nil || sess.SelectedKey == key {
		return nil
	}
	sess.SelectedKey = key
	sess.Touch(s.cfg.SessionTTL)
	if err := s.sessions.Set(ctx, sess); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save session")
	}
	return nil
}
