package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/al0nec0der/MarkPDF/internal/anchor"
	"github.com/al0nec0der/MarkPDF/internal/client/api"
	"github.com/al0nec0der/MarkPDF/internal/client/session"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// viewer is the session surface the REPL drives; *session.Session
// satisfies it.
type viewer interface {
	Open(ctx context.Context, id string) error
	Select(page int, boxes []anchor.ScreenRect, text string) error
	Cancel() error
	Confirm(ctx context.Context, comment string) (*highlight.Formatted, error)
	Retry(ctx context.Context) (*highlight.Formatted, error)
	SetScale(scale float64) error
	Overlays(page int) ([]session.Overlay, error)
	Highlights() []highlight.Formatted
	Draft() (highlight.Payload, bool)
	Document() (api.Document, bool)
	PageCount() int
	State() session.State
	Scale() float64
	LastError() error
}

func (a *App) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "view <document-id>",
		Short:   "Open a document in the interactive viewer",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.signedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := session.New(session.Config{
				Backend:  a.backend,
				Renderer: a.renderer,
				Scale:    a.config.Scale,
				Logger:   a.logger,
			})
			runViewer(cmd.Context(), s, args[0], a.reader)
			return nil
		},
	}
}

const viewerHelp = `Commands:
  open <id> | reload           open another document, or retry this one
  status                       show document, page, zoom and draft
  page <n>                     go to page n and show its highlights
  zoom <scale>                 change zoom, e.g. zoom 2
  select <l,t,w,h>... [-- text] select boxes on the current page
  comment [text]               save the selection with a comment
  confirm                      save the selection without a comment
  cancel                       drop the selection
  retry                        resubmit the last failed save
  list                         list highlights, newest first
  overlays [page|all]          show overlay boxes at the current zoom
  exit | quit                  leave the viewer`

// runViewer opens docID and runs the viewer loop until EOF or quit.
// Command failures are printed and the loop goes on.
func runViewer(ctx context.Context, v viewer, docID string, reader *bufio.Reader) {
	page := 1
	open := func(id string) {
		docID = id
		page = 1
		if err := v.Open(ctx, id); err != nil {
			if errors.Is(err, session.ErrSuperseded) {
				return
			}
			printlnFn(fmt.Sprintf("Cannot open %s: %v (type reload to try again)", id, err))
			return
		}
		d, _ := v.Document()
		printlnFn(fmt.Sprintf("Opened %s: %d pages, %d highlights", d.FileName, v.PageCount(), len(v.Highlights())))
	}
	open(docID)

	for {
		printlnFn(fmt.Sprintf("markpdf [%s p%d x%g] > ", v.State(), page, v.Scale()))
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "":
			continue
		case "help":
			printlnFn(viewerHelp)
		case "open":
			if rest == "" {
				printlnFn("Usage: open <document-id>")
				continue
			}
			open(rest)
		case "reload":
			open(docID)
		case "status":
			printStatus(v, page)
		case "page":
			n, err := strconv.Atoi(rest)
			if err != nil || n < 1 || n > v.PageCount() {
				printlnFn(fmt.Sprintf("Usage: page <1..%d>", v.PageCount()))
				continue
			}
			page = n
			printOverlays(v, page)
		case "zoom":
			f, err := strconv.ParseFloat(rest, 64)
			if err == nil {
				err = v.SetScale(f)
			}
			if err != nil {
				printlnFn("Usage: zoom <scale>, scale > 0")
			}
		case "select":
			boxes, text, err := parseSelection(rest)
			if err == nil {
				err = v.Select(page, boxes, text)
			}
			if err != nil {
				printlnFn("Select failed:", err)
				continue
			}
			printlnFn("Selection pending; comment, confirm or cancel")
		case "comment":
			if rest == "" {
				text, err := GetMultiline(reader, "Comment", os.Stdout)
				if err != nil {
					printlnFn("Comment not read:", err)
					continue
				}
				rest = text
			}
			save(v.Confirm(ctx, rest))
		case "confirm":
			save(v.Confirm(ctx, ""))
		case "cancel":
			if err := v.Cancel(); err != nil {
				printlnFn("Nothing to cancel")
			}
		case "retry":
			save(v.Retry(ctx))
		case "list", "l":
			printHighlights(v)
		case "overlays":
			switch rest {
			case "":
				printOverlays(v, page)
			case "all":
				printOverlays(v, 0)
			default:
				n, err := strconv.Atoi(rest)
				if err != nil {
					printlnFn("Usage: overlays [page|all]")
					continue
				}
				printOverlays(v, n)
			}
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func save(h *highlight.Formatted, err error) {
	if err != nil {
		printlnFn(fmt.Sprintf("Save failed: %v (your draft is kept; type retry)", err))
		return
	}
	printlnFn(fmt.Sprintf("Saved highlight %s on page %d", h.ID, h.Position.PageNumber))
}

func printStatus(v viewer, page int) {
	d, ok := v.Document()
	if !ok {
		printlnFn(fmt.Sprintf("State %s, no document", v.State()))
	} else {
		printlnFn(fmt.Sprintf("%s (%s) state %s, page %d/%d, zoom %g", d.FileName, d.ID, v.State(), page, v.PageCount(), v.Scale()))
	}
	if err := v.LastError(); err != nil {
		printlnFn("Last error:", err)
	}
	if p, ok := v.Draft(); ok {
		comment := ""
		if p.Comment != nil {
			comment = p.Comment.Text
		}
		printlnFn(fmt.Sprintf("Draft on page %d: %q comment %q", p.PageNumber, p.Content.Text, comment))
	}
}

func printHighlights(v viewer) {
	hs := v.Highlights()
	if len(hs) == 0 {
		printlnFn("No highlights")
		return
	}
	for _, h := range hs {
		printlnFn(fmt.Sprintf("%s  p%d  %s", h.ID, h.Position.PageNumber, displayText(h)))
	}
}

func printOverlays(v viewer, page int) {
	ov, err := v.Overlays(page)
	if err != nil {
		printlnFn("No overlays:", err)
		return
	}
	if len(ov) == 0 {
		printlnFn("No highlights here")
		return
	}
	for _, o := range ov {
		id := o.HighlightID
		if o.Pending {
			id = "(pending)"
		}
		boxes := make([]string, len(o.Rects))
		for i, r := range o.Rects {
			boxes[i] = formatBox(r)
		}
		printlnFn(fmt.Sprintf("%s  p%d  %s  %q", id, o.Page, strings.Join(boxes, " "), o.Text))
	}
}

func displayText(h highlight.Formatted) string {
	if h.Comment.Text != "" {
		return h.Comment.Text
	}
	return h.Content.Text
}

// parseSelection reads "l,t,w,h [l,t,w,h ...] [-- text]".
func parseSelection(s string) ([]anchor.ScreenRect, string, error) {
	coords, text, _ := strings.Cut(s, "--")
	fields := strings.Fields(coords)
	if len(fields) == 0 {
		return nil, "", errors.New("usage: select <l,t,w,h>... [-- text]")
	}
	boxes := make([]anchor.ScreenRect, 0, len(fields))
	for _, f := range fields {
		b, err := parseBox(f)
		if err != nil {
			return nil, "", err
		}
		boxes = append(boxes, b)
	}
	return boxes, strings.TrimSpace(text), nil
}

func parseBox(s string) (anchor.ScreenRect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return anchor.ScreenRect{}, fmt.Errorf("box %q: want left,top,width,height", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return anchor.ScreenRect{}, fmt.Errorf("box %q: %w", s, err)
		}
		v[i] = f
	}
	return anchor.ScreenRect{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}, nil
}

func formatBox(r anchor.ScreenRect) string {
	return fmt.Sprintf("[%.1f,%.1f %.1fx%.1f]", r.Left, r.Top, r.Width, r.Height)
}
