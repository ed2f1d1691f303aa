// Package audit implements the rules-hash and hash-chained receipt system
// from spec.md §4.8: SHA-256 of the canonicalized, sorted configuration
// produces rules_hash; each kill produces a receipt tying it to rules_hash,
// a rules_version, and the previous receipt's hash. rules_version is the
// value the caller passes to NewChain; this package does not track config
// changes or bump it.
package audit

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rawblock/fishshoot-engine/internal/fp"
)

// ConfigSnapshot is the subset of fp.Config that participates in the
// content-addressed rules hash: tiers, weapons, and species (spec.md §4.8
// "sort_by_keys(weapons ∪ fish_species ∪ tier_config)").
type ConfigSnapshot struct {
	Tiers   map[int]fp.TierConfig
	Weapons map[string]fp.WeaponConfig
	Species map[string]fp.SpeciesConfig
}

// RulesHash computes SHA-256 over the canonical encoding of a
// ConfigSnapshot. Canonicalization sorts every map by key recursively and
// stringifies values in a stable, delimiter-separated form — spec.md §4.8
// names "canonical(sort_by_keys(...))" without pinning a byte format; this
// is the Open Question resolved in DESIGN.md.
func RulesHash(snap ConfigSnapshot) chainhash.Hash {
	var b strings.Builder
	canonicalizeTiers(&b, snap.Tiers)
	canonicalizeWeapons(&b, snap.Weapons)
	canonicalizeSpecies(&b, snap.Species)

	sum := sha256.Sum256([]byte(b.String()))
	h, _ := chainhash.NewHash(sum[:])
	return *h
}

func canonicalizeTiers(b *strings.Builder, tiers map[int]fp.TierConfig) {
	keys := make([]int, 0, len(tiers))
	for k := range tiers {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		t := tiers[k]
		fmt.Fprintf(b, "tier:%d{rtp:%d,n1:%d,reward:%d,pity:%d}",
			k, t.RTPTierFP, t.N1FP, t.RewardFP, t.PityCompFP)
	}
}

func canonicalizeWeapons(b *strings.Builder, weapons map[string]fp.WeaponConfig) {
	keys := make([]string, 0, len(weapons))
	for k := range weapons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w := weapons[k]
		fmt.Fprintf(b, "weapon:%s{cost:%d,dmg:%d,cd:%d,mult:%d,rtp:%d}",
			k, w.CostFP, w.Damage, w.CooldownMS, w.Multiplier, w.RTPFP)
	}
}

func canonicalizeSpecies(b *strings.Builder, species map[string]fp.SpeciesConfig) {
	keys := make([]string, 0, len(species))
	for k := range species {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := species[k]
		fmt.Fprintf(b, "species:%s{id:%d,tier:%d,hp:%d,mult:%d,size:%s,speed:%s,weight:%d,boss:%t,special:%t,%s}",
			k, s.ID, s.Tier, s.Health, s.Multiplier,
			strconv.FormatFloat(s.Size, 'g', -1, 64),
			strconv.FormatFloat(s.Speed, 'g', -1, 64),
			s.SpawnWeight, s.IsBoss, s.IsSpecial, s.SpecialType)
	}
}
