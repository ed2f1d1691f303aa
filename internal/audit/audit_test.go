package audit

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rawblock/fishshoot-engine/internal/fp"
	"github.com/rawblock/fishshoot-engine/internal/game"
)

func testSnapshot() ConfigSnapshot {
	return ConfigSnapshot{
		Tiers:   map[int]fp.TierConfig{1: {RTPTierFP: 9000, N1FP: 6000, RewardFP: 4500}},
		Weapons: map[string]fp.WeaponConfig{"1x": {CostFP: 1000, Damage: 10, RTPFP: 9000}},
		Species: map[string]fp.SpeciesConfig{"minnow": {ID: 1, Tier: 1, Health: 10, SpawnWeight: 900}},
	}
}

func TestRulesHashDeterministicAcrossMapOrder(t *testing.T) {
	h1 := RulesHash(testSnapshot())
	h2 := RulesHash(testSnapshot())
	if h1 != h2 {
		t.Fatal("identical config snapshots must hash identically regardless of map iteration order")
	}
}

func TestRulesHashChangesWithConfig(t *testing.T) {
	snap := testSnapshot()
	h1 := RulesHash(snap)

	mutated := snap.Tiers[1]
	mutated.RewardFP = 4501
	snap.Tiers[1] = mutated
	h2 := RulesHash(snap)

	if h1 == h2 {
		t.Fatal("changing a tier field must change the rules hash")
	}
}

func TestChainLinksReceiptsByPrevHash(t *testing.T) {
	snap := testSnapshot()
	rulesHash := RulesHash(snap)
	var seedCommitment chainhash.Hash

	chain := NewChain(seedCommitment, rulesHash, 1)

	r1 := chain.Append(1, 4500, []game.KillAttribution{{PlayerID: "alice", Damage: 10, ShareFP: 4500}})
	r2 := chain.Append(2, 9000, []game.KillAttribution{{PlayerID: "bob", Damage: 10, ShareFP: 9000}})

	if r2.PrevReceiptHash != r1.Hash() {
		t.Fatal("second receipt must chain to the first receipt's hash")
	}
	if len(chain.Receipts()) != 2 {
		t.Fatalf("expected 2 receipts recorded, got %d", len(chain.Receipts()))
	}
}
