package common

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie that carries flash messages.
const SessionName = "leapadmin"

// AddFlash queues messages for the next page load.
func AddFlash(store sessions.Store, w http.ResponseWriter, r *http.Request, msgs ...string) error {
	sess, err := store.Get(r, SessionName)
	if err != nil && sess == nil {
		return err
	}
	for _, m := range msgs {
		sess.AddFlash(m)
	}
	return sess.Save(r, w)
}

// Flashes pops the queued messages.
func Flashes(store sessions.Store, w http.ResponseWriter, r *http.Request) []string {
	sess, err := store.Get(r, SessionName)
	if err != nil && sess == nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	_ = sess.Save(r, w)
	return out
}
