// Package common provides shared plumbing for the HTTP features: the per-request
// admin session, JSON responses, flash messages, metrics and rate limiting.
package common

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"golang.org/x/text/language"
)

// Opener connects a new admin session for one request.
type Opener func(ctx context.Context, lang string) (*admin.Session, error)

type sessionKey struct{}

// WithSession returns middleware that opens a session before the handler runs
// and closes it when the handler returns, whatever the outcome.
func WithSession(open Opener, fallbackLang string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := open(r.Context(), Lang(r, fallbackLang))
			if err != nil {
				WriteError(w, logger, err)
				return
			}
			defer func() {
				if err := s.Close(); err != nil {
					logger.Warn("failed to close session", slog.String("error", err.Error()))
				}
			}()
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
		})
	}
}

// SessionFrom returns the session opened by WithSession.
func SessionFrom(ctx context.Context) *admin.Session {
	s, _ := ctx.Value(sessionKey{}).(*admin.Session)
	return s
}

// Lang picks the message language: the lang query parameter, then the first
// Accept-Language entry, then fallback.
func Lang(r *http.Request, fallback string) string {
	if l := r.URL.Query().Get("lang"); l != "" {
		return l
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		return tags[0].String()
	}
	return fallback
}
