package recovery

import (
	"context"
	"fmt"
)

// StrictStrategy implements a fail-fast recovery strategy.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(context.Context, error, Location) Action {
	return ActionFail
}

// LenientStrategy keeps going and records every anomaly.
type LenientStrategy struct {
	Errors []error
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

func (s *LenientStrategy) OnError(_ context.Context, err error, location Location) Action {
	s.Errors = append(s.Errors, fmt.Errorf("[%s] page %d: %w", location.Component, location.Page, err))
	return ActionWarn
}
