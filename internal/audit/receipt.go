package audit

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rawblock/fishshoot-engine/internal/game"
)

// Receipt is the audit record tying one kill to the rules in force when it
// was paid (spec.md §4.8).
type Receipt struct {
	TargetID         uint32
	Contributors     []game.KillAttribution
	RewardFP         int64
	RulesHash        chainhash.Hash
	RulesVersion     int
	SeedCommitment   chainhash.Hash
	PrevReceiptHash  chainhash.Hash
}

// Hash computes this receipt's own content hash, used as the next
// receipt's PrevReceiptHash link.
func (r Receipt) Hash() chainhash.Hash {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s|%d|%s|%s", r.TargetID, r.RewardFP, r.RulesHash, r.RulesVersion, r.SeedCommitment, r.PrevReceiptHash)
	for _, c := range r.Contributors {
		fmt.Fprintf(h, "|%s:%d:%d", c.PlayerID, c.Damage, c.ShareFP)
	}
	sum := h.Sum(nil)
	out, _ := chainhash.NewHash(sum)
	return *out
}

// Chain is a per-room hash chain of receipts (spec.md §4.8 "Receipts form a
// per-room hash chain"). Not safe for concurrent use — a room is a single
// logical actor (spec.md §5).
type Chain struct {
	seedCommitment chainhash.Hash
	rulesHash      chainhash.Hash
	rulesVersion   int

	last     chainhash.Hash
	receipts []Receipt
}

// NewChain starts a fresh hash chain for a room, bound to the rules in force
// at room creation and a commitment to the room's spawn seed (so auditors
// can later verify spawn determinism without the server revealing the seed
// up front).
func NewChain(seedCommitment, rulesHash chainhash.Hash, rulesVersion int) *Chain {
	return &Chain{seedCommitment: seedCommitment, rulesHash: rulesHash, rulesVersion: rulesVersion}
}

// Append records a kill: target id, reward, and the per-player contributor
// shares (spec.md §4.5.2, §4.8). It sets RulesHash/RulesVersion/
// SeedCommitment/PrevReceiptHash from the chain's own state, so callers only
// supply the event-specific fields.
func (c *Chain) Append(targetID uint32, rewardFP int64, contributors []game.KillAttribution) Receipt {
	r := Receipt{
		TargetID:        targetID,
		Contributors:    contributors,
		RewardFP:        rewardFP,
		RulesHash:       c.rulesHash,
		RulesVersion:    c.rulesVersion,
		SeedCommitment:  c.seedCommitment,
		PrevReceiptHash: c.last,
	}
	c.last = r.Hash()
	c.receipts = append(c.receipts, r)
	return r
}

// Receipts returns every receipt appended so far, in order.
func (c *Chain) Receipts() []Receipt {
	out := make([]Receipt, len(c.receipts))
	copy(out, c.receipts)
	return out
}

// Head returns the hash of the most recently appended receipt, or the zero
// hash if the chain is empty.
func (c *Chain) Head() chainhash.Hash { return c.last }
