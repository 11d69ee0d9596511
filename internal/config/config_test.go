package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("GRPC_ADDRESS")
	os.Unsetenv("VIZ_ADDRESS")
	os.Unsetenv("JWT_SECRET")
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.GRPC.Address == "" || cfg.Viz.Address == "" || cfg.Auth.JWTSecret == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if cfg.Simulation.DataDir != "data/small" {
		t.Fatalf("expected default data dir 'data/small', got %q", cfg.Simulation.DataDir)
	}
	if cfg.Simulation.GridDimension != 5 {
		t.Fatalf("expected default grid dimension 5, got %d", cfg.Simulation.GridDimension)
	}
	if cfg.Simulation.CapacityMultiplier != 3.0 {
		t.Fatalf("expected default capacity multiplier 3.0, got %v", cfg.Simulation.CapacityMultiplier)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	t.Setenv("DATA_DIR", "original")
	t.Setenv("GRPC_ADDRESS", ":1234")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is not set")
	}
	t.Setenv("JWT_SECRET", "x")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
	if cfg.Simulation.DataDir != "original" {
		t.Fatalf("expected DATA_DIR override to take effect, got %q", cfg.Simulation.DataDir)
	}
}

func TestDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("MATRIX_GRID_DIMENSION", "8")
	t.Setenv("SUGGEST_RETRIES", "5")
	t.Setenv("CAPACITY_MULTIPLIER", "2.5")
	t.Setenv("TICK_RATE", "50ms")
	t.Setenv("JWT_SECRET", "x")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.GridDimension != 8 {
		t.Fatalf("expected grid dimension override 8, got %d", cfg.Simulation.GridDimension)
	}
	if cfg.Simulation.SuggestRetries != 5 {
		t.Fatalf("expected suggest retries override 5, got %d", cfg.Simulation.SuggestRetries)
	}
	if cfg.Simulation.CapacityMultiplier != 2.5 {
		t.Fatalf("expected capacity multiplier override 2.5, got %v", cfg.Simulation.CapacityMultiplier)
	}
	if cfg.Simulation.TickRate.String() != "50ms" {
		t.Fatalf("expected tick rate override 50ms, got %v", cfg.Simulation.TickRate)
	}
}

func TestLoadBootstrapFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bootstrap.json")
	content := `{"docker_container_id":"abc123","prosody_password":"s3cret"}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write bootstrap file: %v", err)
	}

	bc, err := LoadBootstrapFile(path)
	if err != nil {
		t.Fatalf("LoadBootstrapFile: %v", err)
	}
	if bc.DockerContainerID != "abc123" || bc.ProsodyPassword != "s3cret" {
		t.Fatalf("unexpected bootstrap config: %+v", bc)
	}
}

func TestLoadBootstrapFile_MissingFile(t *testing.T) {
	if _, err := LoadBootstrapFile("/nonexistent/path/bootstrap.json"); err == nil {
		t.Fatalf("expected error for missing bootstrap file")
	}
}
