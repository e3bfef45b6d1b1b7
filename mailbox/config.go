package mailbox

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"notifyledger/fault"
	"notifyledger/keyedstore"
	"notifyledger/model"
)

// ConfigTag is the storage tag of the deployment config. The config lives
// under the tag with an empty identity, a single well-known key.
const ConfigTag = "config"

func configKey() []byte {
	key, err := keyedstore.Key(ConfigTag, "")
	if err != nil {
		// the tag is a non-empty constant
		panic(err)
	}
	return key
}

// Instantiate writes the deployment config exactly once. The stored seed is
// SHA-256 of the base64 form of prngSeed.
func Instantiate(state keyedstore.State, inv Invocation, contract, prngSeed string) (*model.Config, error) {
	if prngSeed == "" {
		return nil, fault.ErrInvalidSeed
	}
	deployer, err := canonicalIdentity(inv.Caller, "deployer")
	if err != nil {
		return nil, err
	}

	existing, err := state.Get(configKey())
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger config: %w", err)
	}
	if existing != nil {
		return nil, fault.ErrAlreadyInstantiated
	}

	seed := sha256.Sum256([]byte(base64.StdEncoding.EncodeToString([]byte(prngSeed))))
	cfg := &model.Config{
		Kind:     model.ConfigKind,
		Deployer: deployer,
		Contract: contract,
		PRNGSeed: seed[:],
	}
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger config: %w", err)
	}
	if err := state.Put(configKey(), cfgBytes); err != nil {
		return nil, fmt.Errorf("failed to save ledger config: %w", err)
	}
	logger.Infof("Ledger instantiated by '%s' for contract '%s'", deployer, contract)
	return cfg, nil
}

// LoadConfig reads the deployment config. A missing config means the ledger
// was never instantiated and fails with fault.ErrConfigNotFound.
func LoadConfig(state keyedstore.State) (*model.Config, error) {
	raw, err := state.Get(configKey())
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger config: %w", err)
	}
	if raw == nil {
		return nil, fault.ErrConfigNotFound
	}
	var cfg model.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger config: %w", err)
	}
	if cfg.Kind != model.ConfigKind || len(cfg.PRNGSeed) == 0 {
		return nil, fmt.Errorf("ledger config is malformed: %w", fault.ErrConfigNotFound)
	}
	return &cfg, nil
}
