// Package highlight holds the highlight domain model: the canonical record,
// the formatted projection handed to renderers, and the Normalizer that
// turns payloads of any historical shape into a canonical Draft.
package highlight

import (
	"time"

	"github.com/al0nec0der/MarkPDF/internal/geometry"
)

// Position locates a highlight on a page. Rects holds one rectangle per
// selected line and is empty for single-rectangle or area selections.
// PageNumber always equals the owning highlight's PageNumber.
type Position struct {
	BoundingRect geometry.Rect   `json:"boundingRect"`
	Rects        []geometry.Rect `json:"rects"`
	PageNumber   int             `json:"pageNumber"`
}

// Content is what was selected. Text may be empty for area selections,
// in which case Image may carry a screenshot.
type Content struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// Comment is the user's annotation. An empty Text means no comment.
type Comment struct {
	Text string `json:"text"`
}

// Draft is a normalized highlight that has not been stored yet.
type Draft struct {
	DocumentRef string
	UserRef     string
	PageNumber  int
	Position    Position
	Content     Content
	Comment     Comment
}

// DisplayText is the comment when there is one and the highlighted text
// otherwise.
func (d Draft) DisplayText() string {
	return displayText(d.Content, d.Comment)
}

// Highlight is the stored record. It marshals as the raw storage shape.
type Highlight struct {
	ID          string    `json:"id"`
	DocumentRef string    `json:"documentRef"`
	UserRef     string    `json:"userRef"`
	PageNumber  int       `json:"pageNumber"`
	Position    Position  `json:"position"`
	Content     Content   `json:"content"`
	Comment     Comment   `json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DisplayText is the comment when there is one and the highlighted text
// otherwise.
func (h Highlight) DisplayText() string {
	return displayText(h.Content, h.Comment)
}

// FormattedComment is the comment shape renderers expect.
type FormattedComment struct {
	Text  string `json:"text"`
	Emoji string `json:"emoji"`
}

// Formatted is the projection {id, content, position, comment} consumed by
// rendering collaborators.
type Formatted struct {
	ID       string           `json:"id"`
	Content  Content          `json:"content"`
	Position Position         `json:"position"`
	Comment  FormattedComment `json:"comment"`
}

// Formatted projects h for renderers. Emoji is always empty.
func (h Highlight) Formatted() Formatted {
	return Formatted{
		ID:       h.ID,
		Content:  h.Content,
		Position: h.Position.clone(),
		Comment:  FormattedComment{Text: h.Comment.Text, Emoji: ""},
	}
}

// FormatAll projects every highlight, preserving order. The result is never
// nil so it encodes as an empty JSON array.
func FormatAll(hs []Highlight) []Formatted {
	out := make([]Formatted, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Formatted())
	}
	return out
}

// Payload is the current request shape for creating a highlight.
type Payload struct {
	Content    Content  `json:"content"`
	Position   Position `json:"position"`
	Comment    *Comment `json:"comment,omitempty"`
	PageNumber int      `json:"pageNumber"`
}

func displayText(c Content, cm Comment) string {
	if cm.Text != "" {
		return cm.Text
	}
	return c.Text
}

func (p Position) clone() Position {
	out := p
	out.Rects = make([]geometry.Rect, len(p.Rects))
	copy(out.Rects, p.Rects)
	return out
}
