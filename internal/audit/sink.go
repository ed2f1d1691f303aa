package audit

import "context"

// Sink is the external collaborator for persisting receipts (spec.md §6
// "Audit sink: append-only receipt stream, one entry per kill"). Component H
// (hash-chain construction) is in scope; Sink implementations are not —
// PostgresSink below is the reference adapter, grounded in the teacher's
// own Postgres store.
type Sink interface {
	WriteReceipt(ctx context.Context, roomID string, r Receipt) error
}

// NopSink discards receipts; useful for tests and for rooms running without
// durable audit storage configured.
type NopSink struct{}

func (NopSink) WriteReceipt(context.Context, string, Receipt) error { return nil }
