// Package config loads the service's environment-variable configuration
// into a typed Config, matching the env vars spec.md §6 defines.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every environment-derived setting the service's bootstrap
// needs to construct its components.
type Config struct {
	// APIKeys is the allow-list parsed from ZEROID_API_KEYS.
	APIKeys []string

	// IssuerPrivateKeyHex is the issuer's BabyJubJub seed from
	// ZEROID_ISSUER_PRIVATE_KEY, or empty if it should be loaded/generated
	// at $KeysDir/issuer.json instead.
	IssuerPrivateKeyHex string

	// RegulatorKeysHex maps regulatorId -> hex-encoded AES key, collected
	// from every ZEROID_REGULATOR_KEY_<ID> variable.
	RegulatorKeysHex map[string]string

	// StoreMasterKeyHex seeds HKDF for per-store key derivation. Empty
	// means an ephemeral random master key is used (the caller is
	// responsible for emitting the startup warning this implies).
	StoreMasterKeyHex string

	// VKeyPath is the path to the Groth16 verification key JSON.
	VKeyPath string

	// Port, Host configure the public API listener.
	Port string
	Host string

	// CORSOrigin is the allowed Origin for the public API, or "*".
	CORSOrigin string

	// KeysDir is where a generated issuer key is persisted when
	// IssuerPrivateKeyHex is unset.
	KeysDir string

	// DataDir is the root directory for every Badger-backed collection.
	DataDir string

	// RedisAddr, if set, backs the distributed rate limiter; otherwise an
	// in-memory token bucket is used.
	RedisAddr string

	// SanctionsListPath points at the sanctions country-code list JSON; if
	// empty, the bundled illustrative default list is used.
	SanctionsListPath string

	// AdminAddr is the bind address for the internal-only admin/metrics
	// surface (healthz, metrics, sanctions refresh).
	AdminAddr string
}

const regulatorKeyPrefix = "ZEROID_REGULATOR_KEY_"

// Load reads the process environment into a Config, applying the same
// defaults spec.md §6 describes.
func Load() (*Config, error) {
	cfg := &Config{
		APIKeys:           splitCSV(os.Getenv("ZEROID_API_KEYS")),
		IssuerPrivateKeyHex: os.Getenv("ZEROID_ISSUER_PRIVATE_KEY"),
		RegulatorKeysHex:  collectRegulatorKeys(os.Environ()),
		StoreMasterKeyHex: os.Getenv("ZEROID_STORE_MASTER_KEY"),
		VKeyPath:          os.Getenv("ZEROID_VKEY_PATH"),
		Port:              envOrDefault("PORT", "8080"),
		Host:              envOrDefault("HOST", "0.0.0.0"),
		CORSOrigin:        envOrDefault("ZEROID_CORS_ORIGIN", "*"),
		KeysDir:           envOrDefault("ZEROID_KEYS_DIR", "./data/keys"),
		DataDir:           envOrDefault("ZEROID_DATA_DIR", "./data"),
		RedisAddr:         os.Getenv("ZEROID_REDIS_ADDR"),
		SanctionsListPath: os.Getenv("ZEROID_SANCTIONS_LIST_PATH"),
		AdminAddr:         envOrDefault("ZEROID_ADMIN_ADDR", "127.0.0.1:9090"),
	}

	if cfg.IssuerPrivateKeyHex != "" {
		if _, err := hex.DecodeString(cfg.IssuerPrivateKeyHex); err != nil {
			return nil, fmt.Errorf("config: ZEROID_ISSUER_PRIVATE_KEY is not valid hex: %w", err)
		}
	}
	for id, keyHex := range cfg.RegulatorKeysHex {
		if _, err := hex.DecodeString(keyHex); err != nil {
			return nil, fmt.Errorf("config: %s%s is not valid hex: %w", regulatorKeyPrefix, id, err)
		}
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("config: PORT %q is not numeric: %w", cfg.Port, err)
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// collectRegulatorKeys scans the environment for ZEROID_REGULATOR_KEY_<ID>
// variables, returning a map of regulatorId -> hex key.
func collectRegulatorKeys(environ []string) map[string]string {
	keys := make(map[string]string)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, regulatorKeyPrefix) {
			continue
		}
		id := strings.TrimPrefix(k, regulatorKeyPrefix)
		if id != "" {
			keys[id] = v
		}
	}
	return keys
}

// IsAPIKeyAllowed reports whether key is in the configured allow-list.
func (c *Config) IsAPIKeyAllowed(key string) bool {
	for _, k := range c.APIKeys {
		if k == key {
			return true
		}
	}
	return false
}
