package models

import (
	"database/sql"
	"time"
)

// Highlight is a stored highlight row. Position holds the JSON document
// exactly as written, in whatever shape was current at the time.
type Highlight struct {
	ID           string
	DocumentID   int64
	DocumentUUID string
	UserID       string
	PageNumber   int
	Position     []byte
	ContentText  string
	ContentImage sql.NullString
	CommentText  string
	CreatedAt    time.Time
}
