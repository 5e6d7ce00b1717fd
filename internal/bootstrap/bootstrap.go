// Package bootstrap wires every long-lived singleton — keys, stores,
// domain services — into a single Service struct that cmd/zeroid can start
// and gracefully shut down as one unit.
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/internal/crypto/eddsa"
	"github.com/zeroidhq/zeroid-core/internal/crypto/keys"
	"github.com/zeroidhq/zeroid-core/internal/escrow"
	"github.com/zeroidhq/zeroid-core/internal/issuer"
	"github.com/zeroidhq/zeroid-core/internal/log"
	"github.com/zeroidhq/zeroid-core/internal/sanctions"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/internal/store/kv"
	"github.com/zeroidhq/zeroid-core/internal/verification"
	"github.com/zeroidhq/zeroid-core/internal/verifier"
)

// sanctionsTreeDepth bounds the service to 2^10 sanctioned-country leaves,
// the sanctions package's default tree depth.
const sanctionsTreeDepth = sanctions.DefaultDepth

// Config collects every environment-sourced setting bootstrap needs. The
// cmd layer is responsible for reading os.Getenv and populating this; this
// package never touches the environment directly so it stays testable.
type Config struct {
	DataDir             string
	IssuerPrivateKeyHex string
	KeysDir             string
	RegulatorKeys       map[string]string // regulatorKeyId -> hex-encoded 32-byte AES key
	StoreMasterKeyHex   string
	VerificationKeyPath string
	SanctionsListPath   string
}

// Service holds every singleton the API layers depend on, plus the handles
// needed to shut them down cleanly.
type Service struct {
	Logger       log.Logger
	Issuer       *issuer.Service
	Escrow       *escrow.Service
	Verifier     *verifier.Service
	Verification *verification.Service
	Sanctions    *sanctions.Service
	Groth16      *verifier.Groth16Verifier

	kvStore   *kv.Store
	issuerKey *eddsa.PrivateKey
}

// New loads keys, opens the embedded store, and constructs every domain
// service described in cfg.
func New(cfg Config, logger log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	issuerKey, err := loadOrCreateIssuerKey(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: issuer key: %w", err)
	}

	regulatorKeys, err := decodeRegulatorKeys(cfg.RegulatorKeys)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: regulator keys: %w", err)
	}

	masterKey, err := loadOrGenerateMasterKey(cfg.StoreMasterKeyHex, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: store master key: %w", err)
	}

	kvStore, err := kv.Open(kv.Options{Path: cfg.DataDir, SyncWrites: true}, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open store: %w", err)
	}

	env, err := store.NewEnvelope(kvStore, masterKey, "zeroid-store-v1")
	if err != nil {
		_ = kvStore.Close()
		return nil, fmt.Errorf("bootstrap: build envelope: %w", err)
	}
	keys.Wipe(masterKey)

	sanctionsSvc, err := sanctions.NewService(cfg.SanctionsListPath, sanctionsTreeDepth)
	if err != nil {
		_ = kvStore.Close()
		return nil, fmt.Errorf("bootstrap: sanctions list: %w", err)
	}

	credentialStore := store.NewCredentialStore(env)
	escrowStore := store.NewEscrowStore(env)
	nullifierStore := store.NewNullifierStore(env)
	auditStore := store.NewAuditStore(env)
	verificationStore := store.NewVerificationStore(env)
	proofCacheStore := store.NewProofCacheStore(env)

	sysClock := clock.NewSystemClock()

	escrowSvc := escrow.NewService(escrowStore, auditStore, regulatorKeys, sysClock)

	groth16 := verifier.NewGroth16Verifier(nil)
	if cfg.VerificationKeyPath != "" {
		vk, vkErr := verifier.LoadVerificationKey(cfg.VerificationKeyPath)
		if vkErr != nil {
			logger.Warnf("bootstrap: failed to load verification key from %q, proof verification will fail until reloaded: %v", cfg.VerificationKeyPath, vkErr)
		} else {
			groth16.SetVerificationKey(vk)
		}
	} else {
		logger.Warn("bootstrap: ZEROID_VKEY_PATH not set, proof verification disabled until a key is loaded")
	}

	proofCache := verifier.NewCache(proofCacheStore, sysClock)
	verifierSvc := verifier.NewService(groth16, proofCache, nullifierStore, auditStore, sysClock)

	kycProvider := issuer.NewMockProvider(sysClock)
	issuerSvc := issuer.NewService(issuerKey, sanctionsSvc, escrowSvc, credentialStore, auditStore, kycProvider, sysClock)

	verificationSvc := verification.NewService(verificationStore, sysClock)

	return &Service{
		Logger:       logger,
		Issuer:       issuerSvc,
		Escrow:       escrowSvc,
		Verifier:     verifierSvc,
		Verification: verificationSvc,
		Sanctions:    sanctionsSvc,
		Groth16:      groth16,
		kvStore:      kvStore,
		issuerKey:    issuerKey,
	}, nil
}

// Close drains any in-flight store writes and closes the embedded
// database. Callers should invoke this once, after every HTTP server has
// finished its own graceful shutdown.
func (s *Service) Close(_ context.Context) error {
	if s.issuerKey != nil {
		keys.Wipe(s.issuerKey.Bytes())
	}
	if s.kvStore == nil {
		return nil
	}
	return s.kvStore.Close()
}

// loadOrCreateIssuerKey loads the issuer signing key from cfg's hex seed
// if set, otherwise loads a previously persisted key from cfg.KeysDir, and
// failing that generates and persists a new one.
func loadOrCreateIssuerKey(cfg Config, logger log.Logger) (*eddsa.PrivateKey, error) {
	if cfg.IssuerPrivateKeyHex != "" {
		seed, err := hex.DecodeString(strings.TrimPrefix(cfg.IssuerPrivateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("decode hex seed: %w", err)
		}
		defer keys.Wipe(seed)
		return eddsa.NewPrivateKeyFromBytes(seed)
	}

	keysDir := cfg.KeysDir
	if keysDir == "" {
		keysDir = "./data/keys"
	}
	keyPath := filepath.Join(keysDir, "issuer.json")

	if raw, err := os.ReadFile(keyPath); err == nil {
		var persisted struct {
			SeedHex string `json:"seedHex"`
		}
		if err := json.Unmarshal(raw, &persisted); err != nil {
			return nil, fmt.Errorf("parse persisted issuer key %q: %w", keyPath, err)
		}
		seed, err := hex.DecodeString(persisted.SeedHex)
		if err != nil {
			return nil, fmt.Errorf("decode persisted issuer key %q: %w", keyPath, err)
		}
		defer keys.Wipe(seed)
		return eddsa.NewPrivateKeyFromBytes(seed)
	}

	logger.Warnf("bootstrap: no ZEROID_ISSUER_PRIVATE_KEY set and no persisted key at %q, generating a new issuer key", keyPath)
	sk, err := eddsa.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate issuer key: %w", err)
	}
	if err := persistIssuerKey(keyPath, sk); err != nil {
		return nil, fmt.Errorf("persist issuer key: %w", err)
	}
	return sk, nil
}

func persistIssuerKey(path string, sk *eddsa.PrivateKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	seed := sk.Bytes()
	defer keys.Wipe(seed)
	body, err := json.Marshal(struct {
		SeedHex string `json:"seedHex"`
	}{SeedHex: hex.EncodeToString(seed)})
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

// decodeRegulatorKeys hex-decodes every configured regulator key, failing
// closed on any malformed entry rather than silently dropping it. A
// missing "default" entry is not an error here: escrow.Service rejects
// puts against an unknown regulator key id at call time instead.
func decodeRegulatorKeys(raw map[string]string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(raw))
	for id, hexKey := range raw {
		key, err := hex.DecodeString(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("regulator key %q: %w", id, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("regulator key %q: must be 32 bytes, got %d", id, len(key))
		}
		out[id] = key
	}
	return out, nil
}

// loadOrGenerateMasterKey hex-decodes the configured store master key, or
// generates an ephemeral one with a loud warning: without persistence,
// every previously stored credential/escrow/nullifier record becomes
// undecryptable on restart.
func loadOrGenerateMasterKey(hexKey string, logger log.Logger) ([]byte, error) {
	if hexKey != "" {
		key, err := hex.DecodeString(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("decode hex master key: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("store master key must be 32 bytes, got %d", len(key))
		}
		return key, nil
	}
	logger.Warn("bootstrap: ZEROID_STORE_MASTER_KEY not set, generating an ephemeral key — all encrypted records become unreadable on restart")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate ephemeral master key: %w", err)
	}
	return key, nil
}
