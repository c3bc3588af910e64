// Package history keeps a log of the statements executed through leapadmin.
// Entries live in a small SQLite database whose schema is managed by goose.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one executed statement.
type Entry struct {
	ID        uuid.UUID     `json:"id"`
	Driver    string        `json:"driver"`
	Server    string        `json:"server,omitempty"`
	Database  string        `json:"database,omitempty"`
	Statement string        `json:"statement"`
	Duration  time.Duration `json:"duration"`
	Failed    bool          `json:"failed"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Recorder receives executed statements. A nil Recorder disables history.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}
