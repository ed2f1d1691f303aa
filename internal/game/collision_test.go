package game

import "testing"

func TestSweptCircleHitDetectsCrossing(t *testing.T) {
	if _, hit := SweptCircleHit(0, 0, 10, 0, 5, 0, 1); !hit {
		t.Fatal("segment passing through circle center should hit")
	}
}

func TestSweptCircleHitMissesWhenFarAway(t *testing.T) {
	if _, hit := SweptCircleHit(0, 0, 10, 0, 5, 100, 1); hit {
		t.Fatal("segment far from the circle should not hit")
	}
}

func TestSweptCircleHitCatchesTunneling(t *testing.T) {
	// A fast bullet jumping past the target center in one tick must still
	// register a hit via the swept segment, not a point-in-circle test.
	if _, hit := SweptCircleHit(-50, 0, 50, 0, 0, 0, 2); !hit {
		t.Fatal("fast-moving bullet must not tunnel through the target")
	}
}

func TestSweptCircleHitStationaryPoint(t *testing.T) {
	if _, hit := SweptCircleHit(0, 0, 0, 0, 0.5, 0, 1); !hit {
		t.Fatal("stationary bullet already inside the circle should hit")
	}
	if _, hit := SweptCircleHit(0, 0, 0, 0, 5, 0, 1); hit {
		t.Fatal("stationary bullet outside the circle should not hit")
	}
}

func TestTargetRadius(t *testing.T) {
	if got := TargetRadius(2, 1.5, 0.2); got != 3.2 {
		t.Fatalf("TargetRadius = %v, want 3.2", got)
	}
}
