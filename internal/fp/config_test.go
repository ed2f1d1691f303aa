package fp

import "testing"

func sampleConfig() Config {
	return Config{
		Tiers: map[int]TierConfig{
			1: {RTPTierFP: 9000, N1FP: 6000, RewardFP: 4500},
			6: {RTPTierFP: 9500, N1FP: 20000, RewardFP: 19000},
		},
		Weapons: map[string]WeaponConfig{
			"1x": {Key: "1x", CostFP: MoneyScale, Damage: 10, CooldownMS: 150, RTPFP: 9000},
		},
		AOEMaxTargets:   8,
		LaserMaxTargets: 6,
		Species: map[string]SpeciesConfig{
			"minnow": {ID: 1, Name: "minnow", Tier: 1, Health: 10, SpawnWeight: 100},
		},
		RateLimits: map[string]RateLimitConfig{
			"shoot": {Capacity: 20, RefillPerSec: 10},
		},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	c := sampleConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.KFP != DefaultK {
		t.Fatalf("expected default K to be filled in, got %d", c.KFP)
	}
}

func TestValidateRejectsMissingTiers(t *testing.T) {
	c := sampleConfig()
	c.Tiers = nil
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing tiers")
	}
}

func TestValidateRejectsOutOfRangeTier(t *testing.T) {
	c := sampleConfig()
	c.Tiers[7] = TierConfig{RTPTierFP: 9000, N1FP: 1, RewardFP: 1}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for tier out of range")
	}
}

func TestValidateRejectsZeroRewardFP(t *testing.T) {
	c := sampleConfig()
	c.Tiers[1] = TierConfig{RTPTierFP: 9000, N1FP: 6000, RewardFP: 0}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for zero reward_fp")
	}
}
