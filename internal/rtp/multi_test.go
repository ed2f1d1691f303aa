package rtp

import (
	"testing"

	"github.com/rawblock/fishshoot-engine/internal/fp"
)

// threeTierTable's N1FP/RewardFP are scaled well above the largest
// per-target AttribCostFP a single fire event in these tests can produce
// (the closest-target weight share of a 5*fp.MoneyScale weapon cost), so a
// single pseudo-shot never trips hard pity on its own.
func threeTierTable() map[int]fp.TierConfig {
	return map[int]fp.TierConfig{
		1: {RTPTierFP: 9000, N1FP: 3_000_000, RewardFP: 2_250_000},
		2: {RTPTierFP: 9200, N1FP: 2_000_000, RewardFP: 1_500_000},
		3: {RTPTierFP: 9300, N1FP: 1_000_000, RewardFP: 800_000},
	}
}

func TestMultiTargetConservation(t *testing.T) {
	tiers := threeTierTable()
	weaponCostFP := int64(5) * fp.MoneyScale
	candidates := []Candidate{
		{Key: TargetKey{PlayerID: "p1", TargetID: "a"}, Tier: 1, Distance: 10},
		{Key: TargetKey{PlayerID: "p1", TargetID: "b"}, Tier: 2, Distance: 20},
		{Key: TargetKey{PlayerID: "p1", TargetID: "c"}, Tier: 3, Distance: 30},
	}

	ordered := trimAndOrder(WeaponAOE, candidates, 8)
	allocations := Allocate(tiers, WeaponAOE, weaponCostFP, ordered)

	var weightSum, budgetSum int64
	for _, a := range allocations {
		weightSum += a.WeightFP
		budgetSum += a.BudgetFP
	}
	if weightSum != fp.WeightScale {
		t.Fatalf("Σ weight = %d, want %d", weightSum, fp.WeightScale)
	}

	var rtpWeightedFP int64
	for i, c := range ordered {
		rtpWeightedFP += allocations[i].WeightFP * tiers[c.Tier].RTPTierFP / fp.WeightScale
	}
	wantBudgetTotal := weaponCostFP * rtpWeightedFP / fp.RTPScale
	if budgetSum != wantBudgetTotal {
		t.Fatalf("Σ budget = %d, want %d", budgetSum, wantBudgetTotal)
	}

	if !(allocations[0].WeightFP > allocations[1].WeightFP && allocations[1].WeightFP > allocations[2].WeightFP) {
		t.Fatalf("expected strictly descending weights by ascending distance, got %v", allocations)
	}
}

func TestMultiShotCreditsEachTargetExactlyOnce(t *testing.T) {
	tiers := threeTierTable()
	e := NewEngineWithSource(tiers, fp.DefaultK, constantSource{v: uint64(fp.PScale - 1)})
	weaponCostFP := int64(5) * fp.MoneyScale
	candidates := []Candidate{
		{Key: TargetKey{PlayerID: "p1", TargetID: "a"}, Tier: 1, Distance: 10},
		{Key: TargetKey{PlayerID: "p1", TargetID: "b"}, Tier: 2, Distance: 20},
		{Key: TargetKey{PlayerID: "p1", TargetID: "c"}, Tier: 3, Distance: 30},
	}

	allocations, outcomes, err := e.MultiShot(WeaponAOE, weaponCostFP, candidates, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(allocations) != 3 || len(outcomes) != 3 {
		t.Fatalf("expected 3 allocations/outcomes, got %d/%d", len(allocations), len(outcomes))
	}
	for i, out := range outcomes {
		if out.Kill {
			t.Fatalf("target %d unexpectedly killed with a failing roll source", i)
		}
	}
}

func TestAOECapsAtMaxTargets(t *testing.T) {
	candidates := make([]Candidate, 0, 10)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, Candidate{
			Key:      TargetKey{PlayerID: "p1", TargetID: targetIDFor(i)},
			Tier:     1,
			Distance: float64(i + 1),
		})
	}
	ordered := trimAndOrder(WeaponAOE, candidates, 8)
	if len(ordered) != 8 {
		t.Fatalf("expected 8 targets after capping, got %d", len(ordered))
	}
	if ordered[0].Distance != 1 {
		t.Fatalf("expected closest target first, got distance %v", ordered[0].Distance)
	}
}

func TestLaserOrdersByBeamIndex(t *testing.T) {
	candidates := []Candidate{
		{Key: TargetKey{TargetID: "z"}, Tier: 1, Index: 2},
		{Key: TargetKey{TargetID: "x"}, Tier: 1, Index: 0},
		{Key: TargetKey{TargetID: "y"}, Tier: 1, Index: 1},
	}
	ordered := trimAndOrder(WeaponLaser, candidates, 6)
	if ordered[0].Key.TargetID != "x" || ordered[1].Key.TargetID != "y" || ordered[2].Key.TargetID != "z" {
		t.Fatalf("expected laser order by beam index, got %v", ordered)
	}
}
