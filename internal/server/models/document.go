package models

import "time"

// Document is an uploaded PDF. UUID is the identifier exposed to clients;
// ID is internal to the database.
type Document struct {
	ID         int64
	UUID       string
	UserID     string
	StorageKey string
	FileName   string
	SizeBytes  int64
	CreatedAt  time.Time
}
