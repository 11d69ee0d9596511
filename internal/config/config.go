// Package config loads simulation, negotiation, transport and bootstrap
// settings from environment variables (with a JSON overlay for the
// out-of-scope user-provisioning fields), following the same
// Load/LoadWithDefaults split the rest of the codebase expects.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Simulation SimulationConfig
	GRPC       GRPCConfig
	Viz        VizConfig
	Auth       AuthConfig
}

// SimulationConfig contains the negotiation/physics tunables named
// throughout spec.md (§4.1, §4.4, §4.5, §5).
type SimulationConfig struct {
	DataDir string // path to the dataset folder (e.g. "data/original", "data/small")

	TickRate           time.Duration // wall-clock duration of one simulated tick
	TimeMultiplier     float64       // simulated seconds per wall-clock second; per-tick step is velocity*TimeMultiplier*TickRate
	RequestTimeout     time.Duration // suggest/pickup mailbox wait timeout
	SuggestRetries     int           // retries before a drone gives up on a warehouse
	ReservationTTL     time.Duration // matrix reservation timeout before rollback
	GridDimension      int           // OrdersMatrix D, default 5
	CapacityMultiplier float64       // over-offer factor applied to free capacity

	MetricsDir string // directory logs/{drone_id}.json is written under
}

// GRPCConfig contains the optional (-tags grpcserver) control-plane server settings.
type GRPCConfig struct {
	Address string // gRPC server listen address (e.g., ":50051")
}

// VizConfig contains the websocket visualization bridge settings.
type VizConfig struct {
	Address string // HTTP/websocket listen address (e.g., ":8090")
}

// AuthConfig contains authentication settings for the visualization/admin
// control plane. There is no end-user authentication in this system.
type AuthConfig struct {
	JWTSecret string // JWT signing secret
}

// BootstrapConfig holds the fields the out-of-scope user-provisioning
// bootstrap consumes. Nothing in the simulation core reads these; the field
// exists, per design note §9 ("Global module state"), so the former
// process-global PROSODY_PASSWORD has an explicit, testable home instead of
// being a package-level variable.
type BootstrapConfig struct {
	DockerContainerID string `json:"docker_container_id"`
	ProsodyPassword   string `json:"prosody_password"`
}

// Load loads configuration from environment variables with sensible
// simulation defaults, requiring an explicit JWT secret.
func Load() (*Config, error) {
	cfg := defaults()
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")

	// Validate critical settings
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}

	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in
// development. WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg := defaults()
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "dev-secret-change-me")
	return cfg, nil
}

func defaults() *Config {
	gridDim, _ := getEnvInt("MATRIX_GRID_DIMENSION", 5)
	retries, _ := getEnvInt("SUGGEST_RETRIES", 3)
	return &Config{
		Simulation: SimulationConfig{
			DataDir:            getEnv("DATA_DIR", "data/small"),
			TickRate:           getEnvDuration("TICK_RATE", 30*time.Millisecond),
			TimeMultiplier:     getEnvFloat("TIME_MULTIPLIER", 1.0),
			RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
			SuggestRetries:     retries,
			ReservationTTL:     getEnvDuration("RESERVATION_TTL", 5*time.Second),
			GridDimension:      gridDim,
			CapacityMultiplier: getEnvFloat("CAPACITY_MULTIPLIER", 3.0),
			MetricsDir:         getEnv("METRICS_DIR", "logs"),
		},
		GRPC: GRPCConfig{
			Address: getEnv("GRPC_ADDRESS", ":50051"),
		},
		Viz: VizConfig{
			Address: getEnv("VIZ_ADDRESS", ":8090"),
		},
	}
}

// LoadBootstrapFile reads the external JSON config file exposing
// {docker_container_id, prosody_password} (spec.md §6). Never consumed by
// simulation logic; kept for the out-of-scope provisioning flow.
func LoadBootstrapFile(path string) (BootstrapConfig, error) {
	var bc BootstrapConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return bc, fmt.Errorf("read bootstrap config: %w", err)
	}
	if err := json.Unmarshal(b, &bc); err != nil {
		return bc, fmt.Errorf("parse bootstrap config: %w", err)
	}
	return bc, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Data: %s, gRPC: %s, Viz: %s, Auth: *** (masked) ***}",
		c.Simulation.DataDir, c.GRPC.Address, c.Viz.Address)
}
