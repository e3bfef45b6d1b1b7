package keyedstore

import (
	"encoding/binary"
	"fmt"
	"math"

	"notifyledger/fault"
)

const (
	lengthSuffix = 'n'
	indexSuffix  = 'i'
)

// State is the host's byte store. Get returns nil, nil for a missing key.
type State interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Namespace isolates one sequence: one purpose for one identity.
type Namespace struct {
	tag      string
	identity string
	prefix   []byte
}

// NewNamespace builds the namespace for tag and identity.
func NewNamespace(tag, identity string) (Namespace, error) {
	prefix, err := encodePrefix(tag, identity)
	if err != nil {
		return Namespace{}, err
	}
	return Namespace{tag: tag, identity: identity, prefix: prefix}, nil
}

// Key returns the singleton key for tag and identity, used for values that
// are not sequences (viewing keys, the ledger config).
func Key(tag, identity string) ([]byte, error) {
	return encodePrefix(tag, identity)
}

func encodePrefix(tag, identity string) ([]byte, error) {
	if tag == "" || len(tag) > math.MaxUint16 {
		return nil, fmt.Errorf("namespace tag %q has invalid length %d", tag, len(tag))
	}
	if len(identity) > math.MaxUint16 {
		return nil, fmt.Errorf("identity of %d bytes: %w", len(identity), fault.ErrInvalidIdentity)
	}
	buf := make([]byte, 0, 4+len(tag)+len(identity))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(tag)))
	buf = append(buf, tag...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(identity)))
	buf = append(buf, identity...)
	return buf, nil
}

// Tag returns the purpose tag.
func (ns Namespace) Tag() string { return ns.tag }

// Identity returns the owner identity the namespace was built for.
func (ns Namespace) Identity() string { return ns.identity }

// Prefix returns a copy of the encoded namespace prefix.
func (ns Namespace) Prefix() []byte {
	return append([]byte(nil), ns.prefix...)
}

func (ns Namespace) lengthKey() []byte {
	key := make([]byte, 0, len(ns.prefix)+1)
	key = append(key, ns.prefix...)
	return append(key, lengthSuffix)
}

func (ns Namespace) indexKey(index uint32) []byte {
	key := make([]byte, 0, len(ns.prefix)+5)
	key = append(key, ns.prefix...)
	key = append(key, indexSuffix)
	return binary.BigEndian.AppendUint32(key, index)
}

func (ns Namespace) String() string {
	return fmt.Sprintf("%s/%s", ns.tag, ns.identity)
}
