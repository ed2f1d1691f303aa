package game

import "testing"

func TestAttributeKillConservesReward(t *testing.T) {
	target := &Target{
		DamageByPlayer: map[string]int{"alice": 70, "bob": 20, "carol": 10},
	}
	attributions := AttributeKill(target, 9997)

	var sum int64
	for _, a := range attributions {
		sum += a.ShareFP
	}
	if sum != 9997 {
		t.Fatalf("sum of shares = %d, want 9997", sum)
	}
	if attributions[0].PlayerID != "alice" || attributions[0].Damage != 70 {
		t.Fatalf("expected alice first by damage descending, got %+v", attributions[0])
	}
}

func TestAttributeKillNoDamageReturnsNil(t *testing.T) {
	target := &Target{DamageByPlayer: map[string]int{}}
	if got := AttributeKill(target, 100); got != nil {
		t.Fatalf("expected nil attributions for zero total damage, got %v", got)
	}
}

func TestAttributeKillTiebreaksByPlayerID(t *testing.T) {
	target := &Target{DamageByPlayer: map[string]int{"zeta": 50, "alpha": 50}}
	attributions := AttributeKill(target, 100)
	if attributions[0].PlayerID != "alpha" {
		t.Fatalf("expected alpha first on damage tie, got %s", attributions[0].PlayerID)
	}
}

func TestRoomStepKillsTargetOnCollision(t *testing.T) {
	bounds := Bounds{MinX: -100, MaxX: 100, MinZ: -100, MaxZ: 100, Margin: 5}
	room := NewRoom(RoomConfig{BaseRadius: 1, BulletRadius: 0.1}, bounds, nil, 1)

	target := &Target{ID: 1, HP: 10, MaxHP: 10, X: 5, Z: 0, DamageByPlayer: make(map[string]int)}
	room.Targets[target.ID] = target
	room.SpawnBullet("alice", "1x", 50, 1000, 0, 0, 600, 0)

	hits, died := room.Step(1.0 / 60)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if len(died) != 1 {
		t.Fatalf("expected target to die, got %d deaths", len(died))
	}
	if _, alive := room.Targets[1]; alive {
		t.Fatal("dead target must be removed from room state")
	}
}

func TestRoomStepBulletMissesAtMostOneTargetPerTick(t *testing.T) {
	bounds := Bounds{MinX: -100, MaxX: 100, MinZ: -100, MaxZ: 100, Margin: 5}
	room := NewRoom(RoomConfig{BaseRadius: 1, BulletRadius: 0.1}, bounds, nil, 1)

	t1 := &Target{ID: 1, HP: 1000, MaxHP: 1000, X: 3, Z: 0, DamageByPlayer: make(map[string]int)}
	t2 := &Target{ID: 2, HP: 1000, MaxHP: 1000, X: 3.01, Z: 0, DamageByPlayer: make(map[string]int)}
	room.Targets[t1.ID] = t1
	room.Targets[t2.ID] = t2
	room.SpawnBullet("alice", "1x", 50, 1000, 0, 0, 600, 0)

	hits, _ := room.Step(1.0 / 60)
	if len(hits) != 1 {
		t.Fatalf("a single bullet must register at most one hit per tick, got %d", len(hits))
	}
}

func TestIsBroadcastTick(t *testing.T) {
	bounds := Bounds{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1}
	room := NewRoom(RoomConfig{}, bounds, nil, 1)
	for i := 0; i < ticksPerBroadcast-1; i++ {
		room.Step(1.0 / 60)
		if room.IsBroadcastTick() {
			t.Fatalf("tick %d should not be a broadcast boundary", room.Tick)
		}
	}
	room.Step(1.0 / 60)
	if !room.IsBroadcastTick() {
		t.Fatalf("tick %d should be a broadcast boundary", room.Tick)
	}
}
