package anticheat

import "fmt"

// MaxSequenceGap bounds the tolerated gap between consecutive accepted
// sequence numbers, absorbing ordinary packet loss without opening a replay
// window (spec.md §4.6 "bounded packet loss tolerance").
const MaxSequenceGap = 100

// SeqResult is the tagged outcome of validating one client sequence number.
type SeqResult int

const (
	SeqAccepted SeqResult = iota
	SeqInvalidType
	SeqReplayDetected
	SeqGapTooLarge
)

func (r SeqResult) String() string {
	switch r {
	case SeqAccepted:
		return "accepted"
	case SeqInvalidType:
		return "INVALID_SEQ_TYPE"
	case SeqReplayDetected:
		return "REPLAY_DETECTED"
	case SeqGapTooLarge:
		return "SEQ_GAP_TOO_LARGE"
	default:
		return "unknown"
	}
}

// SequenceTracker stores the highest accepted sequence number for a single
// session (spec.md §4.6 "Sequence anti-replay"). Not safe for concurrent
// use — one tracker per session, mutated only by that session's task.
type SequenceTracker struct {
	sMax      int64
	violations int
	hasSeen   bool
}

// Validate runs the spec.md §4.6 sequence checks in order: reject a
// negative/out-of-range seq as SeqInvalidType, reject seq<=sMax as a replay,
// reject a gap over MaxSequenceGap, else accept and advance the watermark.
func (t *SequenceTracker) Validate(seq int64) SeqResult {
	if seq < 0 {
		t.violations++
		return SeqInvalidType
	}
	if t.hasSeen && seq <= t.sMax {
		t.violations++
		return SeqReplayDetected
	}
	if t.hasSeen && seq-t.sMax > MaxSequenceGap {
		t.violations++
		return SeqGapTooLarge
	}
	t.sMax = seq
	t.hasSeen = true
	return SeqAccepted
}

// Violations returns the cumulative violation count (spec.md §4.6
// "Violation count is surfaced").
func (t *SequenceTracker) Violations() int { return t.violations }

// HighWatermark returns the current sMax, for diagnostics.
func (t *SequenceTracker) HighWatermark() int64 { return t.sMax }

// String renders the tracker state for logging.
func (t *SequenceTracker) String() string {
	return fmt.Sprintf("seq{sMax=%d violations=%d}", t.sMax, t.violations)
}
