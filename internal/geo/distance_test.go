package geo

import "testing"

func TestHaversineMeters_ZeroDistance(t *testing.T) {
	d := HaversineMeters(10, 20, 10, 20)
	if d < 0 || d > 1e-6 {
		t.Fatalf("zero distance expected ~0, got %v", d)
	}
}

func TestHaversineMeters_KnownDistance(t *testing.T) {
	// Roughly 1 degree of latitude is ~111km.
	d := HaversineMeters(0, 0, 1, 0)
	if d < 110_000 || d > 112_000 {
		t.Fatalf("expected ~111km, got %v meters", d)
	}
}

func TestStep_ArrivesExactlyOnFinalTick(t *testing.T) {
	cur := Point{Lat: 0, Lon: 0}
	target := Point{Lat: 0.01, Lon: 0}
	d := Distance(cur, target)

	next, covered, arrived := Step(cur, target, d+1)
	if !arrived {
		t.Fatalf("expected arrival when step distance exceeds remaining distance")
	}
	if next != target {
		t.Fatalf("expected exact arrival at target, got %+v", next)
	}
	if covered <= 0 {
		t.Fatalf("expected positive distance covered, got %v", covered)
	}
}

func TestStep_PartialMoveInterpolatesLinearly(t *testing.T) {
	cur := Point{Lat: 0, Lon: 0}
	target := Point{Lat: 1, Lon: 0}
	d := Distance(cur, target)

	next, covered, arrived := Step(cur, target, d/2)
	if arrived {
		t.Fatalf("did not expect arrival on a half-distance step")
	}
	if next.Lat <= 0 || next.Lat >= 1 {
		t.Fatalf("expected lat strictly between endpoints, got %v", next.Lat)
	}
	if covered <= 0 {
		t.Fatalf("expected positive distance covered, got %v", covered)
	}
}

func TestStep_AlreadyAtTarget(t *testing.T) {
	p := Point{Lat: 5, Lon: 5}
	next, covered, arrived := Step(p, p, 1000)
	if !arrived || covered != 0 || next != p {
		t.Fatalf("expected no-op arrival, got next=%+v covered=%v arrived=%v", next, covered, arrived)
	}
}
