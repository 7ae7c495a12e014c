package billing

import (
	"context"
	"errors"
)

// Step is one stage of the three-step builder.
type Step int

const (
	StepItems Step = iota
	StepWarranties
	StepSend
)

func (s Step) String() string {
	switch s {
	case StepItems:
		return "items"
	case StepWarranties:
		return "warranties"
	case StepSend:
		return "send"
	}
	return "unknown"
}

var (
	ErrNoLineItems   = errors.New("billing: add at least one line item before continuing")
	ErrSaveInFlight  = errors.New("billing: a save is already in progress")
	ErrAtFirstStep   = errors.New("billing: already at the first step")
	ErrAtLastStep    = errors.New("billing: already at the last step")
	ErrBuilderClosed = errors.New("billing: builder is closed")
	ErrNotAtSendStep = errors.New("billing: dispatch is only available on the send step")
)

// Builder walks a draft through Items → Warranties → Send. Forward
// progress is blocked while a save is in flight; backward navigation never
// is. Closing without sending discards the in-memory draft: nothing is
// durable unless a save has already completed.
type Builder struct {
	draft      *Draft
	store      DocumentStore
	dispatcher Dispatcher

	step   Step
	busy   bool
	closed bool
}

// NewBuilder starts the workflow at the Items step over an initialized draft.
func NewBuilder(draft *Draft, store DocumentStore, dispatcher Dispatcher) *Builder {
	return &Builder{draft: draft, store: store, dispatcher: dispatcher}
}

// Draft exposes the underlying draft for item mutations.
func (b *Builder) Draft() *Draft { return b.draft }

// Step returns the current step.
func (b *Builder) Step() Step { return b.step }

// Closed reports whether the workflow has finished or been cancelled.
func (b *Builder) Closed() bool { return b.closed }

// Next advances one step. Items → Warranties requires at least one line
// item. Warranties → Send saves the draft first; if the save fails the
// transition is aborted and the builder stays on Warranties with the draft
// unchanged, ready for a retry.
func (b *Builder) Next(ctx context.Context) error {
	if b.closed {
		return ErrBuilderClosed
	}
	if b.busy {
		return ErrSaveInFlight
	}
	switch b.step {
	case StepItems:
		if len(b.draft.Items) == 0 {
			return ErrNoLineItems
		}
		b.step = StepWarranties
		return nil
	case StepWarranties:
		b.busy = true
		err := Save(ctx, b.store, b.draft)
		b.busy = false
		if err != nil {
			return err
		}
		b.step = StepSend
		return nil
	default:
		return ErrAtLastStep
	}
}

// Back returns to the previous step. Always permitted except from the
// initial step, even while a save is in flight.
func (b *Builder) Back() error {
	if b.closed {
		return ErrBuilderClosed
	}
	if b.step == StepItems {
		return ErrAtFirstStep
	}
	b.step--
	return nil
}

// Send saves the current draft state and dispatches the document to the
// recipient. On success the document is marked sent and the builder closes.
// On failure the builder stays open on the Send step.
func (b *Builder) Send(ctx context.Context, recipient string) error {
	if b.closed {
		return ErrBuilderClosed
	}
	if b.step != StepSend {
		return ErrNotAtSendStep
	}
	if b.busy {
		return ErrSaveInFlight
	}
	b.busy = true
	defer func() { b.busy = false }()

	// The draft was saved on entering this step; re-save so any last-minute
	// edits made on the review pane are what actually goes out.
	if err := Save(ctx, b.store, b.draft); err != nil {
		return err
	}
	if err := b.dispatcher.Send(ctx, b.draft.Kind, b.draft.ID, recipient); err != nil {
		return err
	}
	b.draft.Status = StatusSent
	if err := Save(ctx, b.store, b.draft); err != nil {
		return err
	}
	b.closed = true
	return nil
}

// Close cancels the workflow. Unsaved mutations are simply dropped.
func (b *Builder) Close() { b.closed = true }
