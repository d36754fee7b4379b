// Package api is the HTTP client for the MarkPDF REST API. Calls that need
// a signed-in user transparently refresh an expired access token once and
// retry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
)

// TokenStore holds the token pair between calls.
type TokenStore interface {
	Tokens() (access, refresh string)
	SetTokens(access, refresh string) error
}

// TokenPair is the answer of login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is the answer of register.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Document is an uploaded PDF as listed by the server. URL is a short-lived
// download link and is only set by GetDocument and UploadDocument.
type Document struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	SizeBytes int64     `json:"sizeBytes"`
	PageCount int       `json:"pageCount,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to one MarkPDF server.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	refreshMu sync.Mutex
}

// New returns a Client for baseURL. A zero timeout means none.
func New(baseURL string, timeout time.Duration, tokens TokenStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// HTTPClient exposes the underlying client, e.g. for presigned downloads.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

func (c *Client) Register(ctx context.Context, username, password string) (*User, error) {
	var u User
	if err := c.do(ctx, call{method: http.MethodPost, path: "/api/users/register", json: credentials(username, password)}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login returns a fresh token pair. Storing it is up to the caller.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	var p TokenPair
	if err := c.do(ctx, call{method: http.MethodPost, path: "/api/users/login", json: credentials(username, password)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Refresh rotates the stored token pair.
func (c *Client) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Client) refreshLocked(ctx context.Context) error {
	_, refresh := c.tokens.Tokens()
	if refresh == "" {
		return common.ErrorUnauthorized
	}

	var p TokenPair
	if err := c.do(ctx, call{method: http.MethodPost, path: "/api/users/refresh", json: map[string]string{"refreshToken": refresh}}, &p); err != nil {
		return err
	}
	return c.tokens.SetTokens(p.AccessToken, p.RefreshToken)
}

// Logout revokes the stored refresh token on the server.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.tokens.Tokens()
	return c.do(ctx, call{method: http.MethodPost, path: "/api/users/logout", json: map[string]string{"refreshToken": refresh}}, nil)
}

// UploadDocument sends r as the PDF file fileName.
func (c *Client) UploadDocument(ctx context.Context, fileName string, r io.Reader) (*Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(common.UploadFieldName, fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var d Document
	err = c.do(ctx, call{
		method:      http.MethodPost,
		path:        "/api/documents",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		auth:        true,
	}, &d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/documents", auth: true}, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	var d Document
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/documents/" + url.PathEscape(id), auth: true}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/api/documents/" + url.PathEscape(id), auth: true}, nil)
}

// ListHighlights returns the caller's highlights on a document, newest
// first.
func (c *Client) ListHighlights(ctx context.Context, documentID string) ([]highlight.Formatted, error) {
	var hs []highlight.Formatted
	if err := c.do(ctx, call{method: http.MethodGet, path: highlightsPath(documentID), auth: true}, &hs); err != nil {
		return nil, err
	}
	if hs == nil {
		hs = []highlight.Formatted{}
	}
	return hs, nil
}

// CreateHighlight stores p on a document and returns the stored record.
func (c *Client) CreateHighlight(ctx context.Context, documentID string, p highlight.Payload) (*highlight.Formatted, error) {
	var h highlight.Formatted
	if err := c.do(ctx, call{method: http.MethodPost, path: highlightsPath(documentID), json: p, auth: true}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func highlightsPath(documentID string) string {
	return "/api/documents/" + url.PathEscape(documentID) + "/highlights"
}

func credentials(username, password string) map[string]string {
	return map[string]string{"username": username, "password": password}
}

type call struct {
	method      string
	path        string
	json        any
	body        []byte
	contentType string
	auth        bool
}

// do performs the call and decodes a 2xx answer into out. An authenticated
// call that fails with an expired token is retried once after a refresh.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	if cl.json != nil {
		b, err := json.Marshal(cl.json)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		cl.body, cl.contentType = b, "application/json"
	}

	access, _ := c.tokens.Tokens()
	err := c.send(ctx, cl, access, out)
	if err == nil || !cl.auth || !isTokenExpired(err) {
		return err
	}

	c.refreshMu.Lock()
	if current, _ := c.tokens.Tokens(); current == access {
		if rerr := c.refreshLocked(ctx); rerr != nil {
			c.refreshMu.Unlock()
			return rerr
		}
	}
	access, _ = c.tokens.Tokens()
	c.refreshMu.Unlock()

	return c.send(ctx, cl, access, out)
}

func (c *Client) send(ctx context.Context, cl call, access string, out any) error {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return err
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if cl.auth && access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var eb errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &eb); err == nil && eb.Error != "" {
		apiErr.Kind, apiErr.Message = eb.Error, eb.Message
		return apiErr
	}
	apiErr.Kind = http.StatusText(resp.StatusCode)
	apiErr.Message = strings.TrimSpace(string(data))
	if resp.StatusCode == http.StatusUnauthorized {
		apiErr.Kind = "Unauthorized"
	}
	return apiErr
}
