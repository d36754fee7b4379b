package session

import (
	"errors"
	"fmt"
)

// State is where a session is in the open → annotate cycle.
type State int

const (
	Idle State = iota
	LoadingDocument
	LoadingHighlights
	Ready
	SelectionPending
	Saving
	Error
)

var stateNames = [...]string{
	Idle:              "Idle",
	LoadingDocument:   "LoadingDocument",
	LoadingHighlights: "LoadingHighlights",
	Ready:             "Ready",
	SelectionPending:  "SelectionPending",
	Saving:            "Saving",
	Error:             "Error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Event is a user action or a network completion.
type Event int

const (
	EvOpen Event = iota
	EvDocumentLoaded
	EvDocumentFailed
	EvRenderFailed
	EvHighlightsLoaded
	EvHighlightsFailed
	EvSelect
	EvCancel
	EvConfirm
	EvRetry
	EvSaved
	EvSaveFailed
)

var eventNames = [...]string{
	EvOpen:             "Open",
	EvDocumentLoaded:   "DocumentLoaded",
	EvDocumentFailed:   "DocumentFailed",
	EvRenderFailed:     "RenderFailed",
	EvHighlightsLoaded: "HighlightsLoaded",
	EvHighlightsFailed: "HighlightsFailed",
	EvSelect:           "Select",
	EvCancel:           "Cancel",
	EvConfirm:          "Confirm",
	EvRetry:            "Retry",
	EvSaved:            "Saved",
	EvSaveFailed:       "SaveFailed",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// ErrIllegalTransition is returned for an event the current state does not
// accept. The state is left unchanged.
var ErrIllegalTransition = errors.New("illegal transition")

// transitions is the whole state machine. A highlight-list failure lands in
// Ready with no highlights while a document failure lands in Error.
var transitions = map[State]map[Event]State{
	Idle: {
		EvOpen: LoadingDocument,
	},
	LoadingDocument: {
		EvOpen:           LoadingDocument,
		EvDocumentLoaded: LoadingHighlights,
		EvDocumentFailed: Error,
	},
	LoadingHighlights: {
		EvOpen:             LoadingDocument,
		EvHighlightsLoaded: Ready,
		EvHighlightsFailed: Ready,
		EvRenderFailed:     Error,
	},
	Ready: {
		EvOpen:   LoadingDocument,
		EvSelect: SelectionPending,
		EvRetry:  Saving,
	},
	SelectionPending: {
		EvOpen:    LoadingDocument,
		EvSelect:  SelectionPending,
		EvCancel:  Ready,
		EvConfirm: Saving,
	},
	Saving: {
		EvSaved:      Ready,
		EvSaveFailed: Ready,
	},
	Error: {
		EvOpen: LoadingDocument,
	},
}

func next(from State, ev Event) (State, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s in %s", ErrIllegalTransition, ev, from)
	}
	return to, nil
}
