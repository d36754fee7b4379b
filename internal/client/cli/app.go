// Package cli is the MarkPDF command-line client: account commands,
// document management and an interactive viewer that drives a highlight
// session against the REST API.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/al0nec0der/MarkPDF/internal/client/api"
	"github.com/al0nec0der/MarkPDF/internal/client/config"
	"github.com/al0nec0der/MarkPDF/internal/client/render"
	"github.com/al0nec0der/MarkPDF/internal/client/session"
	"github.com/al0nec0der/MarkPDF/internal/client/tokenstore"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
	"github.com/al0nec0der/MarkPDF/internal/logging"
)

// Backend is the part of the REST API the client uses.
type Backend interface {
	Register(ctx context.Context, username, password string) (*api.User, error)
	Login(ctx context.Context, username, password string) (*api.TokenPair, error)
	Logout(ctx context.Context) error
	UploadDocument(ctx context.Context, fileName string, r io.Reader) (*api.Document, error)
	ListDocuments(ctx context.Context) ([]api.Document, error)
	GetDocument(ctx context.Context, id string) (*api.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListHighlights(ctx context.Context, documentID string) ([]highlight.Formatted, error)
	CreateHighlight(ctx context.Context, documentID string, p highlight.Payload) (*highlight.Formatted, error)
}

type App struct {
	config   *config.Config
	tokens   *tokenstore.Store
	backend  Backend
	renderer session.Renderer
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp wires the client from c. Diagnostics go to stderr; command output
// goes to stdout.
func NewApp(c *config.Config) (*App, error) {
	tokens, err := tokenstore.Open(c.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	client := api.New(c.ServerURL, c.RequestTimeout, tokens)

	return &App{
		config:   c,
		tokens:   tokens,
		backend:  client,
		renderer: render.New(client.HTTPClient(), 0),
		logger:   logging.NewText(os.Stderr, slog.LevelWarn),
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run executes the command line args, e.g. os.Args[1:].
func (a *App) Run(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
