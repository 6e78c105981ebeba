package session

import (
	"errors"
	"net/http"
)

// ValidityErrorHandler decides the policy response to a failed validity
// check: redirect to login, render an error, and so on. The session has
// already been invalidated by the time the handler runs.
type ValidityErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware wires the engine into a request pipeline: it ensures a
// browser identity on every request, loads the presented session, runs
// validate-then-touch and injects the session into the request context.
// Requests without a session pass through untouched; validity failures
// go to onError (default: 401).
func (m *Manager) Middleware(onError ValidityErrorHandler) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, r *http.Request, _ error) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if _, err := m.EnsureBrowserID(ctx, w, r); err != nil {
				m.log.ErrorContext(ctx, "failed to ensure browser id", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			sess, err := m.Current(ctx, w, r)
			if err != nil {
				m.log.ErrorContext(ctx, "failed to load session", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if sess != nil {
				if err := sess.Validate(ctx); err != nil {
					if errors.Is(err, ErrNotValid) {
						onError(w, r, err)
						return
					}
					m.log.ErrorContext(ctx, "session validation failed", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				if err := sess.Touch(ctx); err != nil {
					m.log.ErrorContext(ctx, "failed to touch session", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				ctx = WithSession(ctx, sess)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
