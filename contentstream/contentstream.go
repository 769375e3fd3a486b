package contentstream

import (
	"context"
	"errors"

	"github.com/wudi/pdfcrop/coords"
	"github.com/wudi/pdfcrop/fonts"
	"github.com/wudi/pdfcrop/geo"
)

type Processor interface {
	Process(ctx context.Context, ec *ExecutionContext, stream []byte) error
	RegisterHandler(op string, h OperatorHandler)
}

type OperatorHandler interface {
	Handle(ec *ExecutionContext, operands []Operand) error
}

// OperatorFunc adapts a function to OperatorHandler.
type OperatorFunc func(ec *ExecutionContext, operands []Operand) error

func (f OperatorFunc) Handle(ec *ExecutionContext, operands []Operand) error { return f(ec, operands) }

// ExecutionContext is the state threaded through the handlers of one stream.
// Form XObjects run in a child context sharing Trace.
type ExecutionContext struct {
	GraphicsState *GraphicsState
	TextState     *TextState
	Resources     Resources
	Trace         *Trace

	ctx      context.Context
	path     pathBuilder
	depth    int
	visiting map[string]bool
}

func newExecutionContext(res Resources, gs *GraphicsState, tr *Trace) *ExecutionContext {
	return &ExecutionContext{
		GraphicsState: gs,
		TextState:     newTextState(),
		Resources:     res,
		Trace:         tr,
		visiting:      make(map[string]bool),
	}
}

func (ec *ExecutionContext) child(res Resources) *ExecutionContext {
	gs := *ec.GraphicsState
	gs.stack = nil
	c := newExecutionContext(res, &gs, ec.Trace)
	c.ctx = ec.ctx
	c.depth = ec.depth + 1
	c.visiting = ec.visiting
	return c
}

// GraphicsState holds the parameters saved by q and restored by Q.
type GraphicsState struct {
	CTM   coords.Matrix
	Clip  *geo.Rectangle // device space; nil when unclipped
	Text  TextParams
	stack []*GraphicsState
}

func NewGraphicsState() *GraphicsState {
	return &GraphicsState{CTM: coords.Identity(), Text: TextParams{HorizScale: 1}}
}

func (gs *GraphicsState) Save() { clone := *gs; gs.stack = append(gs.stack, &clone) }
func (gs *GraphicsState) Restore() error {
	n := len(gs.stack)
	if n == 0 {
		return errors.New("state stack empty")
	}
	*gs = *gs.stack[n-1]
	gs.stack = gs.stack[:n-1]
	return nil
}

// TextParams are the text state parameters that belong to the graphics state.
type TextParams struct {
	Font        *fonts.Metrics
	FontSize    float64
	CharSpacing float64
	WordSpacing float64
	HorizScale  float64 // Tz/100
	Leading     float64
	Rise        float64
	RenderMode  int
}

// TextState holds the matrices of the current text object.
type TextState struct {
	TextMatrix     coords.Matrix
	TextLineMatrix coords.Matrix
	InText         bool
	block          *geo.Rectangle
}

func newTextState() *TextState {
	return &TextState{TextMatrix: coords.Identity(), TextLineMatrix: coords.Identity()}
}

type simpleProcessor struct{ handlers map[string]OperatorHandler }

func NewProcessor() Processor                                           { return &simpleProcessor{handlers: make(map[string]OperatorHandler)} }
func (p *simpleProcessor) RegisterHandler(op string, h OperatorHandler) { p.handlers[op] = h }

// Process parses stream and dispatches each operation to its handler.
// Operators without a handler are ignored. Lexical errors end the stream
// early and are recorded as trace warnings.
func (p *simpleProcessor) Process(ctx context.Context, ec *ExecutionContext, stream []byte) error {
	ops, perr := Parse(stream)
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, ok := p.handlers[op.Operator]
		if !ok {
			continue
		}
		if err := h.Handle(ec, op.Operands); err != nil {
			return err
		}
	}
	flushTextBlock(ec)
	if perr != nil && ec.Trace != nil {
		ec.Trace.Warnings = append(ec.Trace.Warnings, perr)
	}
	return nil
}
