package billing

import (
	"context"
	"errors"
)

// ErrDocumentImmutable is returned when saving an estimate that has already
// been converted. Converted estimates stay viewable but can no longer be
// billed against.
var ErrDocumentImmutable = errors.New("billing: converted estimate can no longer be modified")

// Save persists the draft: insert when it has no server id, update in place
// otherwise. Totals are recomputed from the current items inside Record, at
// the call site of the write. On failure the draft is left untouched so the
// caller can retry.
func Save(ctx context.Context, store DocumentStore, d *Draft) error {
	if d.Kind == KindEstimate && d.Status == StatusConverted {
		return ErrDocumentImmutable
	}
	rec := d.Record()
	if d.ID == "" {
		id, err := store.Insert(ctx, d.Kind, rec)
		if err != nil {
			return err
		}
		d.ID = id
		return nil
	}
	return store.Update(ctx, d.Kind, d.ID, rec)
}

// ConversionState tags the outcome of ConvertToInvoice.
type ConversionState string

const (
	// Converted: invoice created and the source estimate marked converted.
	Converted ConversionState = "converted"
	// PartiallyConverted: invoice created but the estimate status update
	// failed. The invoice is valid; the estimate is stale until retried.
	PartiallyConverted ConversionState = "partially_converted"
	// ConversionFailed: no invoice was created.
	ConversionFailed ConversionState = "failed"
)

// ConversionResult reports what actually happened. Callers must check State
// rather than Err alone: a partial conversion carries both an invoice id
// and an error.
type ConversionResult struct {
	State         ConversionState
	InvoiceID     string
	InvoiceNumber string
	Err           error
}

// ConvertToInvoice creates a new invoice from an estimate. The estimate is
// auto-saved first if it has no server id. Line items are deep-copied, so
// later edits to either document never affect the other. The invoice is
// persisted as a draft referencing the source estimate, then the estimate
// is marked converted. A failure between the two writes yields
// PartiallyConverted, never a silent success.
func ConvertToInvoice(ctx context.Context, store DocumentStore, seq Sequencer, est *Draft) ConversionResult {
	if est.Kind != KindEstimate {
		return ConversionResult{State: ConversionFailed, Err: errors.New("billing: only estimates can be converted")}
	}
	if est.Status == StatusConverted {
		return ConversionResult{State: ConversionFailed, Err: ErrDocumentImmutable}
	}
	if est.ID == "" {
		if err := Save(ctx, store, est); err != nil {
			return ConversionResult{State: ConversionFailed, Err: err}
		}
	}

	items := make([]LineItem, len(est.Items))
	copy(items, est.Items)

	number := GenerateNumber(ctx, seq, KindInvoice)
	total := GrandTotal(items, est.TaxRate)
	rec := DocumentRecord{
		Number:     number,
		JobID:      est.JobID,
		Status:     StatusDraft,
		TaxRate:    est.TaxRate,
		Notes:      est.Notes,
		Items:      items,
		Subtotal:   Subtotal(items),
		TaxAmount:  TotalTax(items, est.TaxRate),
		Total:      total,
		EstimateID: est.ID,
		Balance:    total,
	}

	invoiceID, err := store.Insert(ctx, KindInvoice, rec)
	if err != nil {
		return ConversionResult{State: ConversionFailed, Err: err}
	}

	est.Status = StatusConverted
	if err := store.Update(ctx, KindEstimate, est.ID, est.Record()); err != nil {
		return ConversionResult{
			State:         PartiallyConverted,
			InvoiceID:     invoiceID,
			InvoiceNumber: number,
			Err:           err,
		}
	}

	return ConversionResult{State: Converted, InvoiceID: invoiceID, InvoiceNumber: number}
}
