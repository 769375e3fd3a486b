// Package recovery decides what happens when page content is malformed.
package recovery

import "context"

// Strategy is consulted for every tolerated content anomaly.
type Strategy interface {
	OnError(ctx context.Context, err error, location Location) Action
}

// Location identifies where an anomaly was found.
type Location struct {
	Page      int
	Component string // e.g. "content", "font", "annotation"
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionWarn
)
