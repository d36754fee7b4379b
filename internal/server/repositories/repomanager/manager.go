package repomanager

import (
	"context"
	"database/sql"

	"github.com/al0nec0der/MarkPDF/internal/dbx"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/documents"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/highlights"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/refreshtokens"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/users"
)

// RepositoryManager binds repositories to either a pool or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Documents(db dbx.DBTX) documents.Repository
	Highlights(db dbx.DBTX) highlights.Repository
}
