package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ptozin/droneswarm/internal/config"
)

func writeDataset(t *testing.T, dir string) {
	t.Helper()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	must(os.WriteFile(filepath.Join(dir, "delivery_drones.csv"),
		[]byte("id;capacity;autonomy;velocity;initialPos\n1;5kg;1000Km;8m/s;wh1\n"), 0o644))
	must(os.WriteFile(filepath.Join(dir, "delivery_center1.csv"),
		[]byte("id;latitude;longitude;weight\nwh1;0,0;0,0;\no1;0,001;0,0;2\n"), 0o644))
}

// TestRun_SingleDroneSingleWarehouse wires the whole bootstrap path (ingest
// -> matrix -> warehouse/drone goroutines -> errgroup) over a tiny fixture
// and expects it to converge once the lone drone finishes its lone order.
func TestRun_SingleDroneSingleWarehouse(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir)

	cfg := &config.Config{
		Simulation: config.SimulationConfig{
			DataDir:            dir,
			TickRate:           time.Millisecond,
			TimeMultiplier:     1000,
			RequestTimeout:     time.Second,
			SuggestRetries:     3,
			ReservationTTL:     5 * time.Second,
			GridDimension:      5,
			CapacityMultiplier: 3.0,
			MetricsDir:         t.TempDir(),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, nil) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(4 * time.Second):
		t.Fatalf("Run did not converge in time")
	}
}

func TestRun_UnknownInitialWarehouseFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "delivery_drones.csv"),
		[]byte("id;capacity;autonomy;velocity;initialPos\n1;5kg;10Km;8m/s;nowhere\n"), 0o644); err != nil {
		t.Fatalf("write drones fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "delivery_center1.csv"),
		[]byte("id;latitude;longitude;weight\nwh1;0,0;0,0;\n"), 0o644); err != nil {
		t.Fatalf("write warehouse fixture: %v", err)
	}

	cfg := &config.Config{
		Simulation: config.SimulationConfig{
			DataDir:            dir,
			TickRate:           time.Millisecond,
			TimeMultiplier:     1000,
			RequestTimeout:     time.Second,
			SuggestRetries:     1,
			ReservationTTL:     5 * time.Second,
			GridDimension:      5,
			CapacityMultiplier: 3.0,
			MetricsDir:         t.TempDir(),
		},
	}

	if err := Run(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unknown initialPos")
	}
}
