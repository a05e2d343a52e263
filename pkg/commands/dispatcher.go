package commands

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/soban-bot/soban/pkg/logger"
	"github.com/soban-bot/soban/pkg/tracing"
)

type Outcome int

const (
	// OutcomeIgnored means the text was not a command at all.
	OutcomeIgnored Outcome = iota
	// OutcomeUnknown means the text had the prefix but named no command.
	OutcomeUnknown
	OutcomeHandled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeHandled:
		return "handled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Result struct {
	Outcome    Outcome
	Command    string
	DispatchID string
	Err        error
}

type Dispatcher struct {
	reg    *Registry
	svc    *Services
	tracer trace.Tracer
}

type DispatcherOption func(*Dispatcher)

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

func NewDispatcher(reg *Registry, svc *Services, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		reg:    reg,
		svc:    svc,
		tracer: tracing.Tracer("github.com/soban-bot/soban/pkg/commands"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the command in text, if any, and answers through origin.
// Handler failures are logged and reported in the Result; they never
// propagate, so a backend's message loop can keep going.
func (d *Dispatcher) Dispatch(ctx context.Context, origin Origin, text string) Result {
	inv, ok := Parse(text)
	if !ok {
		return Result{Outcome: OutcomeIgnored}
	}

	def, ok := d.reg.Lookup(inv.Command)
	if !ok {
		logger.DebugCF("commands", "Ignoring unknown command", map[string]any{
			"command": inv.Command,
			"backend": origin.Backend(),
		})
		return Result{Outcome: OutcomeUnknown, Command: inv.Command}
	}

	id := uuid.NewString()
	fields := map[string]any{
		"dispatch_id": id,
		"command":     def.Name,
		"invoked_as":  inv.Command,
		"rest":        inv.Rest,
		"backend":     origin.Backend(),
		"target":      origin.Target(),
	}
	if inv.Index != nil {
		fields["index"] = *inv.Index
	}
	logger.InfoCF("commands", "Processing command", fields)

	ctx, span := d.tracer.Start(ctx, "command "+def.Name, trace.WithAttributes(
		attribute.String("command.name", def.Name),
		attribute.String("command.invoked_as", inv.Command),
		attribute.String("command.backend", origin.Backend()),
		attribute.String("command.dispatch_id", id),
	))
	defer span.End()
	if inv.Index != nil {
		span.SetAttributes(attribute.Int64("command.index", int64(*inv.Index)))
	}

	err := d.run(ctx, def.Handler, origin, Args{Rest: inv.Rest, Index: inv.Index})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorCF("commands", "Command failed", map[string]any{
			"dispatch_id": id,
			"command":     def.Name,
			"backend":     origin.Backend(),
			"error":       err.Error(),
		})
		return Result{Outcome: OutcomeFailed, Command: def.Name, DispatchID: id, Err: err}
	}

	return Result{Outcome: OutcomeHandled, Command: def.Name, DispatchID: id}
}

func (d *Dispatcher) run(ctx context.Context, h Handler, origin Origin, args Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.DebugCF("commands", "Recovered handler panic", map[string]any{
				"stack": string(debug.Stack()),
			})
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()
	return h.Run(ctx, d.svc, origin, args)
}
