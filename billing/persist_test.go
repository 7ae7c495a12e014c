package billing_test

import (
	"context"
	"testing"

	"fieldservice-backend/billing"
)

func buildEstimate(t *testing.T, seq *fakeSequencer) *billing.Draft {
	t.Helper()
	d := billing.NewDraft(context.Background(), seq, billing.KindEstimate, "job-1", dec("0.10"))
	items := referenceItems()
	a := d.AddCustomLine()
	d.SetName(a.ID, items[0].Name)
	d.SetUnitPrice(a.ID, items[0].UnitPrice)
	d.SetOurPrice(a.ID, items[0].OurPrice)
	d.SetQuantity(a.ID, items[0].Quantity)
	b := d.AddCustomLine()
	d.SetName(b.ID, items[1].Name)
	d.SetUnitPrice(b.ID, items[1].UnitPrice)
	d.SetOurPrice(b.ID, items[1].OurPrice)
	d.SetTaxable(b.ID, false)
	return d
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seq := newFakeSequencer()
	d := buildEstimate(t, seq)

	if err := billing.Save(ctx, store, d); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if d.ID == "" {
		t.Fatal("draft did not capture server id after create")
	}
	firstID := d.ID

	stored, err := store.Fetch(ctx, billing.KindEstimate, d.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !stored.Total.Equal(dec("210")) || !stored.Subtotal.Equal(dec("200")) || !stored.TaxAmount.Equal(dec("10")) {
		t.Errorf("stored totals = %s/%s/%s, want 200/10/210", stored.Subtotal, stored.TaxAmount, stored.Total)
	}

	// Re-saving unchanged state keeps identity and totals stable.
	if err := billing.Save(ctx, store, d); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if d.ID != firstID {
		t.Errorf("update changed id from %s to %s", firstID, d.ID)
	}
	if store.inserts != 1 {
		t.Errorf("inserts = %d, want 1", store.inserts)
	}
	again, _ := store.Fetch(ctx, billing.KindEstimate, d.ID)
	if !again.Total.Equal(stored.Total) || again.Number != stored.Number {
		t.Errorf("re-save changed stored state: %+v vs %+v", again, stored)
	}
}

func TestSaveFailurePreservesDraft(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failInsert = true
	seq := newFakeSequencer()
	d := buildEstimate(t, seq)

	if err := billing.Save(ctx, store, d); err == nil {
		t.Fatal("expected save error")
	}
	if d.ID != "" {
		t.Errorf("failed save assigned id %q", d.ID)
	}
	if len(d.Items) != 2 {
		t.Errorf("failed save disturbed draft items: %d", len(d.Items))
	}

	// Retry against a healthy store succeeds with the same draft.
	store.failInsert = false
	if err := billing.Save(ctx, store, d); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestConvertToInvoiceCopiesItemsAndTotals(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seq := newFakeSequencer()
	d := buildEstimate(t, seq)
	if err := billing.Save(ctx, store, d); err != nil {
		t.Fatalf("save: %v", err)
	}

	res := billing.ConvertToInvoice(ctx, store, seq, d)
	if res.State != billing.Converted {
		t.Fatalf("state = %s (%v), want converted", res.State, res.Err)
	}

	inv, err := store.Fetch(ctx, billing.KindInvoice, res.InvoiceID)
	if err != nil {
		t.Fatalf("fetch invoice: %v", err)
	}
	if len(inv.Items) != len(d.Items) {
		t.Fatalf("invoice items = %d, want %d", len(inv.Items), len(d.Items))
	}
	for i := range inv.Items {
		src, got := d.Items[i], inv.Items[i]
		if got.Quantity != src.Quantity || !got.UnitPrice.Equal(src.UnitPrice) || got.Taxable != src.Taxable {
			t.Errorf("item %d differs: %+v vs %+v", i, got, src)
		}
	}
	if !inv.Total.Equal(dec("210")) {
		t.Errorf("invoice total = %s, want 210", inv.Total)
	}
	if inv.Status != billing.StatusDraft {
		t.Errorf("invoice status = %s, want draft", inv.Status)
	}
	if inv.EstimateID != d.ID {
		t.Errorf("invoice estimate reference = %q, want %q", inv.EstimateID, d.ID)
	}

	est, _ := store.Fetch(ctx, billing.KindEstimate, d.ID)
	if est.Status != billing.StatusConverted {
		t.Errorf("estimate status = %s, want converted", est.Status)
	}
}

func TestConvertAutoSavesUnsavedEstimate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seq := newFakeSequencer()
	d := buildEstimate(t, seq)

	res := billing.ConvertToInvoice(ctx, store, seq, d)
	if res.State != billing.Converted {
		t.Fatalf("state = %s (%v), want converted", res.State, res.Err)
	}
	if d.ID == "" {
		t.Error("estimate was not auto-saved before conversion")
	}
}

func TestConvertDeepCopiesItems(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seq := newFakeSequencer()
	d := buildEstimate(t, seq)

	res := billing.ConvertToInvoice(ctx, store, seq, d)
	if res.State != billing.Converted {
		t.Fatalf("state = %s (%v)", res.State, res.Err)
	}

	// Mutate the estimate after conversion; the invoice must not move.
	d.SetQuantity(d.Items[0].ID, 99)
	inv, _ := store.Fetch(ctx, billing.KindInvoice, res.InvoiceID)
	if inv.Items[0].Quantity == 99 {
		t.Error("estimate edit leaked into converted invoice items")
	}
}

func TestConvertPartialFailureIsSurfaced(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seq := newFakeSequencer()
	d := buildEstimate(t, seq)
	if err := billing.Save(ctx, store, d); err != nil {
		t.Fatalf("save: %v", err)
	}

	store.failUpdate = true
	res := billing.ConvertToInvoice(ctx, store, seq, d)
	if res.State != billing.PartiallyConverted {
		t.Fatalf("state = %s, want partially_converted", res.State)
	}
	if res.InvoiceID == "" || res.Err == nil {
		t.Errorf("partial result must carry invoice id and error: %+v", res)
	}
	if _, err := store.Fetch(ctx, billing.KindInvoice, res.InvoiceID); err != nil {
		t.Errorf("invoice from partial conversion missing: %v", err)
	}
}

func TestConvertInsertFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seq := newFakeSequencer()
	d := buildEstimate(t, seq)
	if err := billing.Save(ctx, store, d); err != nil {
		t.Fatalf("save: %v", err)
	}

	store.failInsert = true
	res := billing.ConvertToInvoice(ctx, store, seq, d)
	if res.State != billing.ConversionFailed || res.InvoiceID != "" {
		t.Errorf("result = %+v, want failed with no invoice", res)
	}
	est, _ := store.Fetch(ctx, billing.KindEstimate, d.ID)
	if est.Status == billing.StatusConverted {
		t.Error("failed conversion still marked estimate converted")
	}
}

func TestConvertedEstimateIsImmutable(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seq := newFakeSequencer()
	d := buildEstimate(t, seq)
	res := billing.ConvertToInvoice(ctx, store, seq, d)
	if res.State != billing.Converted {
		t.Fatalf("state = %s (%v)", res.State, res.Err)
	}

	if err := billing.Save(ctx, store, d); err != billing.ErrDocumentImmutable {
		t.Errorf("save after conversion = %v, want ErrDocumentImmutable", err)
	}
	if again := billing.ConvertToInvoice(ctx, store, seq, d); again.State != billing.ConversionFailed {
		t.Errorf("double conversion state = %s, want failed", again.State)
	}
}
