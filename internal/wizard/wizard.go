package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"skillconnect/internal/api"
)

// GeneralKey holds errors that do not belong to a single field.
const GeneralKey = api.GeneralField

var (
	ErrBusy         = errors.New("wizard: transition in progress")
	ErrNotFinalStep = errors.New("wizard: submit is only allowed on the final step")
	ErrCompleted    = errors.New("wizard: already completed")
	ErrEmptyFlow    = errors.New("wizard: flow has no steps")
)

// Step is one page of a flow.
type Step struct {
	Title string
	// Fields lists the field names owned by the step.
	Fields []string
	// Validate returns field errors for the step, nil when valid.
	Validate func(Fields) map[string]string
	// Commit runs after the step validates and before the wizard advances.
	// A failure keeps the wizard on the step.
	Commit func(context.Context, Fields) error
}

// Flow is an ordered list of steps.
type Flow struct {
	Name      string
	Steps     []Step
	Skippable bool
}

// Submitter sends the collected fields once the final step is reached.
type Submitter interface {
	Submit(ctx context.Context, fields Fields) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, fields Fields) error

func (f SubmitFunc) Submit(ctx context.Context, fields Fields) error {
	return f(ctx, fields)
}

// State is a snapshot of the wizard.
type State struct {
	Step      int
	Fields    Fields
	Errors    map[string]string
	Completed bool
}

// Wizard walks a flow one step at a time. Validation failures are reported
// through State().Errors and never as returned errors.
type Wizard struct {
	flow      Flow
	submitter Submitter

	step      int
	fields    Fields
	errors    map[string]string
	completed bool
	busy      bool

	mu sync.Mutex
}

// New starts a wizard on the first step of flow.
func New(flow Flow, submitter Submitter) (*Wizard, error) {
	if len(flow.Steps) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyFlow, flow.Name)
	}
	if submitter == nil {
		return nil, errors.New("wizard: nil submitter")
	}
	return &Wizard{
		flow:      flow,
		submitter: submitter,
		fields:    make(Fields),
		errors:    make(map[string]string),
	}, nil
}

func (w *Wizard) Flow() Flow {
	return w.flow
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Step:      w.step,
		Fields:    maps.Clone(w.fields),
		Errors:    maps.Clone(w.errors),
		Completed: w.completed,
	}
}

// Set stores a field value.
func (w *Wizard) Set(field string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fields[field] = value
}

// Next validates the current step and advances when it is valid.
// It reports whether the wizard moved.
func (w *Wizard) Next(ctx context.Context) (bool, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return false, ErrBusy
	}
	if w.completed {
		w.mu.Unlock()
		return false, ErrCompleted
	}

	step := w.flow.Steps[w.step]
	w.errors = validateStep(step, w.fields)
	if len(w.errors) > 0 || w.step == len(w.flow.Steps)-1 {
		w.mu.Unlock()
		return false, nil
	}

	if step.Commit == nil {
		w.step++
		w.mu.Unlock()
		return true, nil
	}

	fields := maps.Clone(w.fields)
	current := w.step
	w.busy = true
	w.mu.Unlock()

	err := step.Commit(ctx, fields)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if err != nil {
		slog.Warn("wizard step commit failed", "flow", w.flow.Name, "step", step.Title, "error", err)
		w.errors = errorFields(err)
		return false, err
	}
	if w.step == current {
		w.step++
	}
	return true, nil
}

// Back moves one step back without validating.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy || w.completed {
		return
	}
	w.step = max(w.step-1, 0)
	clear(w.errors)
}

// Skip advances without validation when the flow allows it and the wizard
// is neither on the first nor on the final step.
func (w *Wizard) Skip() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.flow.Skippable || w.busy || w.completed {
		return false
	}
	if w.step == 0 || w.step >= len(w.flow.Steps)-1 {
		return false
	}
	w.step++
	clear(w.errors)
	return true
}

// Submit re-validates every step and sends the fields. On a validation
// failure the wizard moves to the first invalid step and nil is returned.
// Backend errors are mapped onto the error map and also returned.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.busy:
		w.mu.Unlock()
		return ErrBusy
	case w.completed:
		w.mu.Unlock()
		return ErrCompleted
	case w.step != len(w.flow.Steps)-1:
		w.mu.Unlock()
		return ErrNotFinalStep
	}

	errs := make(map[string]string)
	firstInvalid := -1
	for i, step := range w.flow.Steps {
		stepErrs := validateStep(step, w.fields)
		if len(stepErrs) > 0 && firstInvalid < 0 {
			firstInvalid = i
		}
		maps.Copy(errs, stepErrs)
	}
	w.errors = errs
	if firstInvalid >= 0 {
		w.step = firstInvalid
		w.mu.Unlock()
		return nil
	}

	fields := maps.Clone(w.fields)
	w.busy = true
	w.mu.Unlock()

	err := w.submitter.Submit(ctx, fields)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if err != nil {
		slog.Error("wizard submission failed", "flow", w.flow.Name, "error", err)
		w.errors = errorFields(err)
		return err
	}
	w.completed = true
	return nil
}

// Reset starts the flow over with empty fields.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = 0
	w.fields = make(Fields)
	w.errors = make(map[string]string)
	w.completed = false
}

func validateStep(step Step, fields Fields) map[string]string {
	errs := make(map[string]string)
	if step.Validate == nil {
		return errs
	}
	maps.Copy(errs, step.Validate(fields))
	return errs
}

// errorFields turns a backend failure into wizard errors: field-keyed
// bodies map onto fields, anything else becomes a general error.
func errorFields(err error) map[string]string {
	errs := make(map[string]string)

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		maps.Copy(errs, apiErr.Fields)
		if apiErr.Message != "" {
			errs[GeneralKey] = apiErr.Message
		}
		if len(errs) > 0 {
			return errs
		}
	}
	errs[GeneralKey] = "Something went wrong. Please try again."
	return errs
}
