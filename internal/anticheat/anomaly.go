package anticheat

import (
	"math"
	"time"
)

// Escalation is the tagged outcome of crossing a cumulative flag threshold
// (spec.md §4.6 "Escalation by cumulative flag count").
type Escalation int

const (
	EscalationNone Escalation = iota
	EscalationWarning
	EscalationCooldown
	EscalationDisconnect
)

func (e Escalation) String() string {
	switch e {
	case EscalationWarning:
		return "WARNING"
	case EscalationCooldown:
		return "COOLDOWN"
	case EscalationDisconnect:
		return "DISCONNECT"
	default:
		return "NONE"
	}
}

// Flag is one recorded anomaly observation, mirroring the teacher's Alert
// struct (internal/heuristics/alert_system.go) generalized from forensic
// alerts to hit-rate anomalies.
type Flag struct {
	Timestamp time.Time
	Weapon    string
	Z         float64
	Shots     int64
	Hits      int64
}

// weaponCounts tracks shots/hits for one (player, weapon) pair.
type weaponCounts struct {
	shots, hits int64
}

// Detector implements the z-score hit-rate anomaly check and the flag-count
// escalation ladder for a single session (spec.md §4.6 "Anomaly
// detection"). Flags are kept in a bounded ring, the same shape as the
// teacher's AlertManager.recentAlerts, without the webhook delivery this
// module has no use for (see DESIGN.md).
type Detector struct {
	minShots       int
	sigmaThreshold float64
	cooldownMS     int64
	expectedHitRate map[string]float64

	counts map[string]*weaponCounts

	flags      []Flag
	maxHistory int

	cooldownUntil time.Time
}

// NewDetector builds a Detector for one session.
func NewDetector(minShots int, sigmaThreshold float64, cooldownMS int64, expectedHitRate map[string]float64) *Detector {
	return &Detector{
		minShots:        minShots,
		sigmaThreshold:  sigmaThreshold,
		cooldownMS:      cooldownMS,
		expectedHitRate: expectedHitRate,
		counts:          make(map[string]*weaponCounts),
		maxHistory:      1000,
	}
}

// RecordShot accumulates one shot (and whether it hit) for a weapon, runs
// the z-score check once enough samples exist, and returns the escalation
// level implied by the session's cumulative flag count.
func (d *Detector) RecordShot(weapon string, hit bool, now time.Time) Escalation {
	c, ok := d.counts[weapon]
	if !ok {
		c = &weaponCounts{}
		d.counts[weapon] = c
	}
	c.shots++
	if hit {
		c.hits++
	}

	if int(c.shots) >= d.minShots {
		if z, flagged := d.zScore(weapon, *c); flagged {
			d.recordFlag(Flag{Timestamp: now, Weapon: weapon, Z: z, Shots: c.shots, Hits: c.hits})
		}
	}

	return d.escalation(now)
}

// zScore computes z = (p̂ - p) / sqrt(p(1-p)/shots) and reports whether it
// exceeds sigmaThreshold (spec.md §4.6).
func (d *Detector) zScore(weapon string, c weaponCounts) (float64, bool) {
	p, ok := d.expectedHitRate[weapon]
	if !ok || p <= 0 || p >= 1 {
		return 0, false
	}
	pHat := float64(c.hits) / float64(c.shots)
	sigma := math.Sqrt(p * (1 - p) / float64(c.shots))
	if sigma == 0 {
		return 0, false
	}
	z := (pHat - p) / sigma
	return z, z > d.sigmaThreshold
}

func (d *Detector) recordFlag(f Flag) {
	d.flags = append(d.flags, f)
	if len(d.flags) > d.maxHistory {
		d.flags = d.flags[len(d.flags)-d.maxHistory:]
	}
}

// escalation maps the cumulative flag count onto the ladder from spec.md
// §4.6: 1 ⇒ WARNING, 3 ⇒ COOLDOWN (cooldownMS), 5 ⇒ DISCONNECT. A session
// below the DISCONNECT count that is still inside an active cooldown window
// continues to report COOLDOWN.
func (d *Detector) escalation(now time.Time) Escalation {
	count := len(d.flags)
	if count >= 5 {
		return EscalationDisconnect
	}
	if !d.cooldownUntil.IsZero() && now.Before(d.cooldownUntil) {
		return EscalationCooldown
	}
	switch {
	case count >= 3:
		d.cooldownUntil = now.Add(time.Duration(d.cooldownMS) * time.Millisecond)
		return EscalationCooldown
	case count >= 1:
		return EscalationWarning
	default:
		return EscalationNone
	}
}

// Flags returns a copy of the recorded flag history.
func (d *Detector) Flags() []Flag {
	out := make([]Flag, len(d.flags))
	copy(out, d.flags)
	return out
}

// FlagCount returns the cumulative number of recorded anomaly flags.
func (d *Detector) FlagCount() int { return len(d.flags) }
