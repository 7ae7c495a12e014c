package billing_test

import (
	"context"
	"testing"

	"fieldservice-backend/billing"
)

func newTestBuilder(t *testing.T) (*billing.Builder, *fakeStore, *fakeDispatcher) {
	t.Helper()
	store := newFakeStore()
	seq := newFakeSequencer()
	disp := &fakeDispatcher{}
	draft := billing.NewDraft(context.Background(), seq, billing.KindEstimate, "job-1", dec("0.10"))
	return billing.NewBuilder(draft, store, disp), store, disp
}

func TestBuilderRequiresItemsToAdvance(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	if err := b.Next(context.Background()); err != billing.ErrNoLineItems {
		t.Fatalf("Next with empty items = %v, want ErrNoLineItems", err)
	}
	if b.Step() != billing.StepItems {
		t.Errorf("step = %s after rejected transition, want items", b.Step())
	}

	b.Draft().AddFromCatalog(laborProduct())
	if err := b.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if b.Step() != billing.StepWarranties {
		t.Errorf("step = %s, want warranties", b.Step())
	}
}

func TestBuilderSavesBeforeSendStep(t *testing.T) {
	b, store, _ := newTestBuilder(t)
	b.Draft().AddFromCatalog(laborProduct())
	ctx := context.Background()

	if err := b.Next(ctx); err != nil {
		t.Fatalf("to warranties: %v", err)
	}
	if err := b.Next(ctx); err != nil {
		t.Fatalf("to send: %v", err)
	}
	if b.Step() != billing.StepSend {
		t.Fatalf("step = %s, want send", b.Step())
	}
	if b.Draft().ID == "" {
		t.Error("entering send step did not persist the draft")
	}
	if store.inserts != 1 {
		t.Errorf("inserts = %d, want 1", store.inserts)
	}
}

func TestBuilderAbortsTransitionOnSaveFailure(t *testing.T) {
	b, store, _ := newTestBuilder(t)
	b.Draft().AddFromCatalog(laborProduct())
	ctx := context.Background()

	if err := b.Next(ctx); err != nil {
		t.Fatalf("to warranties: %v", err)
	}
	store.failInsert = true
	if err := b.Next(ctx); err == nil {
		t.Fatal("expected save failure to abort transition")
	}
	if b.Step() != billing.StepWarranties {
		t.Errorf("step = %s after failed save, want warranties", b.Step())
	}
	if b.Draft().ID != "" {
		t.Error("failed save still assigned an id")
	}

	// The draft survives for a retry.
	store.failInsert = false
	if err := b.Next(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if b.Step() != billing.StepSend {
		t.Errorf("step = %s after retry, want send", b.Step())
	}
}

func TestBuilderBackNavigation(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	if err := b.Back(); err != billing.ErrAtFirstStep {
		t.Errorf("Back from items = %v, want ErrAtFirstStep", err)
	}

	b.Draft().AddFromCatalog(laborProduct())
	ctx := context.Background()
	if err := b.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.Back(); err != nil {
		t.Fatalf("Back from warranties: %v", err)
	}
	if b.Step() != billing.StepItems {
		t.Errorf("step = %s, want items", b.Step())
	}
}

func TestBuilderSendDispatchesAndCloses(t *testing.T) {
	b, store, disp := newTestBuilder(t)
	b.Draft().AddFromCatalog(laborProduct())
	ctx := context.Background()

	if err := b.Send(ctx, "+15550100"); err != billing.ErrNotAtSendStep {
		t.Fatalf("Send from items = %v, want ErrNotAtSendStep", err)
	}

	if err := b.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.Send(ctx, "+15550100"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !b.Closed() {
		t.Error("builder still open after successful dispatch")
	}
	if len(disp.sent) != 1 {
		t.Errorf("dispatches = %d, want 1", len(disp.sent))
	}
	rec, _ := store.Fetch(ctx, billing.KindEstimate, b.Draft().ID)
	if rec.Status != billing.StatusSent {
		t.Errorf("stored status = %s, want sent", rec.Status)
	}
}

func TestBuilderSendFailureKeepsWorkflowOpen(t *testing.T) {
	b, _, disp := newTestBuilder(t)
	b.Draft().AddFromCatalog(laborProduct())
	ctx := context.Background()
	if err := b.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.Next(ctx); err != nil {
		t.Fatal(err)
	}

	disp.fail = true
	if err := b.Send(ctx, "+15550100"); err == nil {
		t.Fatal("expected dispatch failure")
	}
	if b.Closed() {
		t.Error("builder closed despite failed dispatch")
	}
	if b.Step() != billing.StepSend {
		t.Errorf("step = %s, want send", b.Step())
	}

	disp.fail = false
	if err := b.Send(ctx, "+15550100"); err != nil {
		t.Fatalf("retry send: %v", err)
	}
	if !b.Closed() {
		t.Error("builder still open after retry")
	}
}

func TestBuilderCloseDiscardsWorkflow(t *testing.T) {
	b, store, _ := newTestBuilder(t)
	b.Draft().AddFromCatalog(laborProduct())
	b.Close()

	if err := b.Next(context.Background()); err != billing.ErrBuilderClosed {
		t.Errorf("Next after close = %v, want ErrBuilderClosed", err)
	}
	if store.inserts != 0 {
		t.Errorf("cancelled workflow persisted %d documents", store.inserts)
	}
}
