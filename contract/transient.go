package contract

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"notifyledger/fault"
)

// Transient map fields. Secrets travel here so they never reach the block.
const (
	TransientPRNGSeed   = "prngSeed"
	TransientEntropy    = "entropy"
	TransientViewingKey = "viewingKey"
)

func transientField(ctx contractapi.TransactionContextInterface, name string) (string, bool, error) {
	transient, err := ctx.GetStub().GetTransient()
	if err != nil {
		return "", false, fmt.Errorf("failed to read transient data: %w", err)
	}
	value, ok := transient[name]
	if !ok {
		return "", false, nil
	}
	return string(value), true, nil
}

func transientSeed(ctx contractapi.TransactionContextInterface) (string, error) {
	seed, ok, err := transientField(ctx, TransientPRNGSeed)
	if err != nil {
		return "", err
	}
	if !ok || seed == "" {
		return "", fmt.Errorf("transient field %q: %w", TransientPRNGSeed, fault.ErrInvalidSeed)
	}
	return seed, nil
}

func transientEntropy(ctx contractapi.TransactionContextInterface) (string, error) {
	entropy, ok, err := transientField(ctx, TransientEntropy)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("transient field %q is required: %w", TransientEntropy, fault.ErrInvalidEntropy)
	}
	return entropy, nil
}

// transientViewingKey returns the supplied key, or "" which never verifies.
func transientViewingKey(ctx contractapi.TransactionContextInterface) (string, error) {
	key, _, err := transientField(ctx, TransientViewingKey)
	return key, err
}
