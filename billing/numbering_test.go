package billing_test

import (
	"context"
	"strings"
	"testing"

	"fieldservice-backend/billing"
)

func TestGenerateNumberFormats(t *testing.T) {
	ctx := context.Background()
	seq := newFakeSequencer()

	if got := billing.GenerateNumber(ctx, seq, billing.KindEstimate); got != "EST-0001" {
		t.Errorf("first estimate number = %q, want EST-0001", got)
	}
	if got := billing.GenerateNumber(ctx, seq, billing.KindEstimate); got != "EST-0002" {
		t.Errorf("second estimate number = %q, want EST-0002", got)
	}
	// Kinds count independently.
	if got := billing.GenerateNumber(ctx, seq, billing.KindInvoice); got != "INV-0001" {
		t.Errorf("first invoice number = %q, want INV-0001", got)
	}
}

func TestGenerateNumberFallback(t *testing.T) {
	ctx := context.Background()
	seq := newFakeSequencer()
	seq.offline = true

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		got := billing.GenerateNumber(ctx, seq, billing.KindInvoice)
		if !strings.HasPrefix(got, "INV-") {
			t.Fatalf("fallback number %q lacks prefix", got)
		}
		if seen[got] {
			t.Fatalf("fallback number %q repeated within session", got)
		}
		seen[got] = true
	}
}
