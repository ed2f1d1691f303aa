// Package rtp implements the deterministic, fixed-point payout controller: a
// budget-gated soft probability with hard pity for single-target resolution,
// and a weight/budget allocator for multi-target area and beam weapons.
//
// Outcome arithmetic is integer division, always truncating toward zero. The
// one float64 step is Allocate's AOE raw weight, which divides WeightScale by
// a candidate's float64 distance before truncating to an integer.
package rtp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/rawblock/fishshoot-engine/internal/fp"
)

// Reason is a tagged variant for why a shot did or did not kill.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonAlreadyKilled
	ReasonBudgetGate
	ReasonRollFailed
	ReasonHardPity
	ReasonSoft
)

func (r Reason) String() string {
	switch r {
	case ReasonAlreadyKilled:
		return "already_killed"
	case ReasonBudgetGate:
		return "budget_gate"
	case ReasonRollFailed:
		return "roll_failed"
	case ReasonHardPity:
		return "hard_pity"
	case ReasonSoft:
		return "soft"
	default:
		return "none"
	}
}

// TargetKey identifies per-(player,target) RTP state.
type TargetKey struct {
	PlayerID string
	TargetID string
}

// State is the mutable per-target RTP bookkeeping. It is only ever mutated
// by Engine.Shot for the owning key, so the caller must serialize access to
// a given key (the per-room actor model provides this for free) — State is
// not safe for concurrent use across goroutines without that serialization.
type State struct {
	SumCostFP         int64
	BudgetRemainingFP int64
	Shots             int64
	Killed            bool
}

// Outcome is the result of crediting one shot to the engine.
type Outcome struct {
	Kill              bool
	RewardFP          int64
	Reason            Reason
	BudgetRemainingFP int64
	Shots             int64
}

// Source draws uniform 64-bit values for the soft-roll gate. The production
// default is backed by crypto/rand; tests may substitute a seeded source for
// deterministic replay — see NewEngineWithSource.
type Source interface {
	Uint64() (uint64, error)
}

type cryptoSource struct{}

func (cryptoSource) Uint64() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// Engine computes shot outcomes for single-target resolution. It holds no
// table-wide state of its own beyond the per-key map — construct a fresh
// Engine per room rather than sharing one across rooms.
type Engine struct {
	tiers map[int]fp.TierConfig
	kFP   int64
	rng   Source
	state map[TargetKey]*State
}

// NewEngine builds an Engine bound to an immutable tier table, drawing rolls
// from crypto/rand. kFP is the fixed-point (fp.KScale-scaled) smoothing
// factor; callers typically pass cfg.KFP.
func NewEngine(tiers map[int]fp.TierConfig, kFP int64) *Engine {
	return NewEngineWithSource(tiers, kFP, cryptoSource{})
}

// NewEngineWithSource is NewEngine with an injectable roll Source, for
// deterministic replay in tests.
func NewEngineWithSource(tiers map[int]fp.TierConfig, kFP int64, src Source) *Engine {
	if kFP <= 0 {
		kFP = fp.DefaultK
	}
	return &Engine{
		tiers: tiers,
		kFP:   kFP,
		rng:   src,
		state: make(map[TargetKey]*State),
	}
}

// StateFor exposes a read-only snapshot of a key's current state, or
// (State{}, false) if no shot has been credited yet.
func (e *Engine) StateFor(key TargetKey) (State, bool) {
	s, ok := e.state[key]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// ClearTargetStates drops state for the given keys. Callers invoke this once
// a target's room-side record is removed so the map does not grow unbounded
// over a room's lifetime.
func (e *Engine) ClearTargetStates(keys ...TargetKey) {
	for _, k := range keys {
		delete(e.state, k)
	}
}

// Shot credits one hit on (playerID, targetID) with the given cost and tier.
// The budget contribution is derived from costFP via the standard per-tier
// RTP formula.
func (e *Engine) Shot(key TargetKey, costFP int64, tier int) (Outcome, error) {
	tierCfg, ok := e.tiers[tier]
	if !ok {
		return Outcome{}, fmt.Errorf("rtp: unknown tier %d", tier)
	}
	budgetContribFP := costFP * tierCfg.RTPTierFP / fp.RTPScale
	return e.resolve(key, costFP, budgetContribFP, tierCfg)
}

// creditPseudoShot is Shot's counterpart for a multi-target allocation: the
// budget contribution has already been computed from the weighted RTP
// across all effective targets in the fire event, so it is supplied
// directly rather than re-derived from costFP and this target's own tier
// RTP.
func (e *Engine) creditPseudoShot(key TargetKey, attribCostFP, budgetContribFP int64, tier int) (Outcome, error) {
	tierCfg, ok := e.tiers[tier]
	if !ok {
		return Outcome{}, fmt.Errorf("rtp: unknown tier %d", tier)
	}
	return e.resolve(key, attribCostFP, budgetContribFP, tierCfg)
}

// resolve runs the shared kill-resolution steps given an already-determined
// budget contribution for this shot: accrue, hard-pity check, budget gate,
// soft roll.
func (e *Engine) resolve(key TargetKey, costFP, budgetContribFP int64, tierCfg fp.TierConfig) (Outcome, error) {
	st, ok := e.state[key]
	if !ok {
		st = &State{}
		e.state[key] = st
	}

	if st.Killed {
		return Outcome{Kill: false, Reason: ReasonAlreadyKilled, BudgetRemainingFP: st.BudgetRemainingFP, Shots: st.Shots}, nil
	}

	st.SumCostFP += costFP
	st.BudgetRemainingFP += budgetContribFP
	st.Shots++

	if st.Shots*costFP >= tierCfg.N1FP {
		return e.kill(st, tierCfg.RewardFP, ReasonHardPity)
	}

	if st.BudgetRemainingFP < tierCfg.RewardFP {
		return Outcome{Kill: false, Reason: ReasonBudgetGate, BudgetRemainingFP: st.BudgetRemainingFP, Shots: st.Shots}, nil
	}

	draw, err := e.rng.Uint64()
	if err != nil {
		return Outcome{}, fmt.Errorf("rtp: csprng draw failed: %w", err)
	}
	u := int64(draw % uint64(fp.PScale))
	pFP := tierCfg.RewardFP * fp.PScale / tierCfg.N1FP * fp.KScale / e.kFP
	if u < pFP {
		return e.kill(st, tierCfg.RewardFP, ReasonSoft)
	}
	return Outcome{Kill: false, Reason: ReasonRollFailed, BudgetRemainingFP: st.BudgetRemainingFP, Shots: st.Shots}, nil
}

func (e *Engine) kill(st *State, rewardFP int64, reason Reason) (Outcome, error) {
	st.BudgetRemainingFP -= rewardFP
	st.Killed = true
	return Outcome{
		Kill:              true,
		RewardFP:          rewardFP,
		Reason:            reason,
		BudgetRemainingFP: st.BudgetRemainingFP,
		Shots:             st.Shots,
	}, nil
}
