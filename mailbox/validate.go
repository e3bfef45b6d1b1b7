package mailbox

import (
	"fmt"
	"strings"

	"notifyledger/fault"
)

// Input limits.
const (
	MaxReferenceLength = 280
	MaxEntropyLength   = 256
	MaxIdentityLength  = 4096
	DefaultPageSize    = 10
	MaxPageSize        = 100
)

// canonicalIdentity is the one place identities are normalized.
func canonicalIdentity(identity, field string) (string, error) {
	trimmed := strings.TrimSpace(identity)
	if trimmed == "" {
		return "", fmt.Errorf("%s cannot be empty: %w", field, fault.ErrInvalidIdentity)
	}
	if len(trimmed) > MaxIdentityLength {
		return "", fmt.Errorf("%s exceeds max length %d: %w", field, MaxIdentityLength, fault.ErrInvalidIdentity)
	}
	return trimmed, nil
}

func validateReference(reference string) (string, error) {
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return "", fmt.Errorf("reference cannot be empty: %w", fault.ErrInvalidReference)
	}
	if len(trimmed) > MaxReferenceLength {
		return "", fmt.Errorf("reference exceeds max length %d: %w", MaxReferenceLength, fault.ErrInvalidReference)
	}
	return trimmed, nil
}

func validateEntropy(entropy string) error {
	if len(entropy) > MaxEntropyLength {
		return fmt.Errorf("entropy exceeds max length %d: %w", MaxEntropyLength, fault.ErrInvalidEntropy)
	}
	return nil
}

// NormalizePageSize applies the default and the cap.
func NormalizePageSize(pageSize uint32) uint32 {
	if pageSize == 0 {
		return DefaultPageSize
	}
	if pageSize > MaxPageSize {
		logger.Warningf("Requested pageSize %d exceeds max of %d. Capping.", pageSize, MaxPageSize)
		return MaxPageSize
	}
	return pageSize
}
