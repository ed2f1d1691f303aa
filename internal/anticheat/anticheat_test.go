package anticheat

import (
	"testing"
	"time"
)

func TestBucketSetRefillAndExhaustion(t *testing.T) {
	now := time.Unix(0, 0)
	bs := NewBucketSet(map[Category]BucketParams{
		CategoryShoot: {Capacity: 2, RefillPerSec: 1},
	}, now)

	if !bs.Allow(CategoryShoot, now) {
		t.Fatal("first shot should be allowed")
	}
	if !bs.Allow(CategoryShoot, now) {
		t.Fatal("second shot should be allowed (capacity 2)")
	}
	if bs.Allow(CategoryShoot, now) {
		t.Fatal("third shot at same instant should be throttled")
	}
	if !bs.Allow(CategoryShoot, now.Add(time.Second)) {
		t.Fatal("shot after 1s refill should be allowed")
	}
}

func TestBucketSetUnconfiguredCategoryAllowsByDefault(t *testing.T) {
	bs := NewBucketSet(map[Category]BucketParams{}, time.Now())
	if !bs.Allow(CategoryMovement, time.Now()) {
		t.Fatal("unconfigured category should fail open")
	}
}

func TestSequenceTrackerOrdering(t *testing.T) {
	var tr SequenceTracker
	if r := tr.Validate(1); r != SeqAccepted {
		t.Fatalf("first seq should be accepted, got %v", r)
	}
	if r := tr.Validate(1); r != SeqReplayDetected {
		t.Fatalf("replayed seq should be rejected, got %v", r)
	}
	if r := tr.Validate(0); r != SeqReplayDetected {
		t.Fatalf("seq below watermark should be rejected, got %v", r)
	}
	if r := tr.Validate(200); r != SeqGapTooLarge {
		t.Fatalf("seq gap over 100 should be rejected, got %v", r)
	}
	if r := tr.Validate(-1); r != SeqInvalidType {
		t.Fatalf("negative seq should be rejected, got %v", r)
	}
	if tr.Violations() != 4 {
		t.Fatalf("violations = %d, want 4", tr.Violations())
	}
}

func TestValidateTimestampBounds(t *testing.T) {
	now := int64(100000)
	if !ValidateTimestamp(now-1000, now, 2*time.Second, 2*time.Second) {
		t.Fatal("1s lag should be within budget")
	}
	if ValidateTimestamp(now-3000, now, 2*time.Second, 2*time.Second) {
		t.Fatal("3s lag should exceed budget")
	}
	if ValidateTimestamp(now+3000, now, 2*time.Second, 2*time.Second) {
		t.Fatal("client 3s ahead should exceed clock-forward bound")
	}
}

func TestDetectorFlagsHighHitRateAndEscalates(t *testing.T) {
	d := NewDetector(50, 3.0, 10000, map[string]float64{"1x": 0.35})
	now := time.Now()

	var last Escalation
	for i := 0; i < 100; i++ {
		last = d.RecordShot("1x", true, now)
	}
	if d.FlagCount() == 0 {
		t.Fatal("100% hit rate against expected 35% should raise at least one flag")
	}
	if last == EscalationNone {
		t.Fatal("expected at least a WARNING escalation")
	}
}

func TestDetectorEscalationLadder(t *testing.T) {
	d := NewDetector(1, 0.0, 10000, map[string]float64{"1x": 0.01})
	now := time.Now()

	var levels []Escalation
	for i := 0; i < 5; i++ {
		levels = append(levels, d.RecordShot("1x", true, now))
	}
	if levels[0] != EscalationWarning {
		t.Fatalf("flag 1 should be WARNING, got %v", levels[0])
	}
	if levels[2] != EscalationCooldown {
		t.Fatalf("flag 3 should be COOLDOWN, got %v", levels[2])
	}
	if levels[4] != EscalationDisconnect {
		t.Fatalf("flag 5 should be DISCONNECT, got %v", levels[4])
	}
}

func TestSessionGuardBansAfterThreshold(t *testing.T) {
	now := time.Now()
	g := NewSessionGuard(map[Category]BucketParams{
		CategoryShoot: {Capacity: 1, RefillPerSec: 0},
	}, nil, now)

	g.Admit(CategoryShoot, now) // consumes the only token
	var last AdmitResult
	for i := 0; i < BanThreshold; i++ {
		last = g.Admit(CategoryShoot, now)
	}
	if last != AdmitBanned {
		t.Fatalf("expected Banned after %d violations, got %v", BanThreshold, last)
	}
	if !g.Banned() {
		t.Fatal("Banned() should report true")
	}
}

func TestIPGuardConnectionLimit(t *testing.T) {
	g := NewIPGuard(nil, 2, 10, time.Minute, time.Now())
	if !g.AllowConnection() || !g.AllowConnection() {
		t.Fatal("first two connections should be allowed")
	}
	if g.AllowConnection() {
		t.Fatal("third connection should be rejected at max_connections_per_ip=2")
	}
	g.ReleaseConnection()
	if !g.AllowConnection() {
		t.Fatal("connection should be allowed again after a release")
	}
}

func TestIPGuardRoomOpSlidingWindow(t *testing.T) {
	g := NewIPGuard(nil, 10, 2, time.Minute, time.Now())
	now := time.Now()
	if !g.AllowRoomOp(now) || !g.AllowRoomOp(now) {
		t.Fatal("first two room ops should be allowed")
	}
	if g.AllowRoomOp(now) {
		t.Fatal("third room op within window should be rejected")
	}
	if !g.AllowRoomOp(now.Add(2 * time.Minute)) {
		t.Fatal("room op after window expiry should be allowed")
	}
}
