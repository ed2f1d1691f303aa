package rtp

import (
	"sort"

	"github.com/rawblock/fishshoot-engine/internal/fp"
)

// Candidate is one potential multi-hit target for an area/beam weapon fire
// event.
type Candidate struct {
	Key      TargetKey
	Tier     int
	Distance float64 // used for AOE ordering; ignored for laser
	Index    int     // beam index, used for laser ordering
}

// WeaponClass selects the ordering and raw-weight rule for a fire event.
type WeaponClass int

const (
	WeaponAOE WeaponClass = iota
	WeaponLaser
)

// Allocation is the per-target result of a multi-target fire event: the
// weight share, the budget contribution, and the attributed cost, each
// conserved exactly across all targets in the event.
type Allocation struct {
	Key         TargetKey
	WeightFP    int64
	BudgetFP    int64
	AttribCostFP int64
}

// MultiShot computes weights and budget allocation for one area/beam fire
// event, then credits each target as a pseudo-shot carrying its attributed
// cost. It returns the allocations (for callers that need weight/budget
// visibility, e.g. audit) paired with the resulting per-target Outcome.
func (e *Engine) MultiShot(class WeaponClass, weaponCostFP int64, candidates []Candidate, maxTargets int) ([]Allocation, []Outcome, error) {
	trimmed := trimAndOrder(class, candidates, maxTargets)
	allocations := Allocate(e.tiers, class, weaponCostFP, trimmed)

	outcomes := make([]Outcome, len(allocations))
	for i, a := range allocations {
		out, err := e.creditPseudoShot(a.Key, a.AttribCostFP, a.BudgetFP, trimmed[i].Tier)
		if err != nil {
			return allocations, outcomes, err
		}
		outcomes[i] = out
	}
	return allocations, outcomes, nil
}

// trimAndOrder caps the candidate list to the weapon class's max target
// count and orders it: AOE by distance ascending, laser by beam index.
func trimAndOrder(class WeaponClass, candidates []Candidate, maxTargets int) []Candidate {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)

	switch class {
	case WeaponAOE:
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Distance < ordered[j].Distance })
	case WeaponLaser:
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	}

	if len(ordered) > maxTargets {
		ordered = ordered[:maxTargets]
	}
	return ordered
}

// Allocate computes the exact weight and budget allocation for an ordered,
// already-trimmed candidate list. The last index absorbs all rounding
// residue so that Σ weight == fp.WeightScale and Σ budget == budgetTotalFP
// exactly.
func Allocate(tiers map[int]fp.TierConfig, class WeaponClass, weaponCostFP int64, ordered []Candidate) []Allocation {
	n := len(ordered)
	if n == 0 {
		return nil
	}

	raw := make([]int64, n)
	var rawSum int64
	for i, c := range ordered {
		switch class {
		case WeaponAOE:
			d := c.Distance
			if d < 1 {
				d = 1
			}
			raw[i] = int64(float64(fp.WeightScale) / d)
		case WeaponLaser:
			raw[i] = fp.WeightScale / int64(c.Index+1)
		}
		rawSum += raw[i]
	}
	if rawSum == 0 {
		rawSum = 1
	}

	weights := make([]int64, n)
	var weightSum int64
	for i := 0; i < n-1; i++ {
		weights[i] = raw[i] * fp.WeightScale / rawSum
		weightSum += weights[i]
	}
	weights[n-1] = fp.WeightScale - weightSum

	var rtpWeightedFP int64
	for i, c := range ordered {
		tierCfg := tiers[c.Tier]
		rtpWeightedFP += weights[i] * tierCfg.RTPTierFP / fp.WeightScale
	}
	budgetTotalFP := weaponCostFP * rtpWeightedFP / fp.RTPScale

	budgets := make([]int64, n)
	var budgetSum int64
	for i := 0; i < n-1; i++ {
		budgets[i] = weights[i] * budgetTotalFP / fp.WeightScale
		budgetSum += budgets[i]
	}
	budgets[n-1] = budgetTotalFP - budgetSum

	allocations := make([]Allocation, n)
	for i, c := range ordered {
		allocations[i] = Allocation{
			Key:          c.Key,
			WeightFP:     weights[i],
			BudgetFP:     budgets[i],
			AttribCostFP: weights[i] * weaponCostFP / fp.WeightScale,
		}
	}
	return allocations
}
