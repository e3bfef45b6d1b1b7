// Package registry manages the lifecycle of per-identity collections.
//
// A collection is an append-only sequence whose reserved index 0 holds a
// tagged CollectionHeader naming the owner. Existence is decided by reading
// and decoding that header, never by a separate flag.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/fabric/common/flogging"

	"notifyledger/fault"
	"notifyledger/keyedstore"
	"notifyledger/model"
)

var logger = flogging.MustGetLogger("notifyledger.registry")

// CollectionTag is the purpose tag of every recipient's collection.
const CollectionTag = "messages_received"

// HeaderIndex is the reserved slot of the collection header.
const HeaderIndex uint32 = 0

// HeaderState is the outcome of probing a namespace for a collection header.
type HeaderState int

const (
	HeaderAbsent HeaderState = iota
	HeaderCorrupt
	HeaderPresent
)

func (s HeaderState) String() string {
	switch s {
	case HeaderAbsent:
		return "absent"
	case HeaderCorrupt:
		return "corrupt"
	case HeaderPresent:
		return "present"
	}
	return fmt.Sprintf("HeaderState(%d)", int(s))
}

// Creation describes the transaction that creates a collection.
type Creation struct {
	By string
	At time.Time
}

// Registry answers existence and ownership questions for collections.
type Registry struct {
	store *keyedstore.Store
}

// New returns a Registry backed by store.
func New(store *keyedstore.Store) *Registry {
	return &Registry{store: store}
}

// Namespace returns the collection namespace of owner.
func (r *Registry) Namespace(owner string) (keyedstore.Namespace, error) {
	return keyedstore.NewNamespace(CollectionTag, owner)
}

// Exists reports whether owner has a collection. A namespace holding data that
// does not decode as a collection header is reported as not existing.
func (r *Registry) Exists(owner string) (bool, error) {
	ns, err := r.Namespace(owner)
	if err != nil {
		return false, err
	}
	_, state, err := r.Probe(ns)
	if err != nil {
		return false, err
	}
	return state == HeaderPresent, nil
}

// CreateWithSentinel writes the collection header for owner at index 0.
func (r *Registry) CreateWithSentinel(owner string, creation Creation) error {
	ns, err := r.Namespace(owner)
	if err != nil {
		return err
	}
	_, state, err := r.Probe(ns)
	if err != nil {
		return err
	}
	switch state {
	case HeaderPresent:
		return fmt.Errorf("collection for '%s': %w", owner, fault.ErrAlreadyExists)
	case HeaderCorrupt:
		return fmt.Errorf("namespace of '%s' holds foreign data: %w", owner, fault.ErrNotACollection)
	}

	length, err := r.store.Length(ns)
	if err != nil {
		return err
	}
	if length != 0 {
		return fmt.Errorf("namespace of '%s' has %d elements but no header: %w", owner, length, fault.ErrNotACollection)
	}

	header := model.CollectionHeader{
		Kind:      model.CollectionHeaderKind,
		Version:   model.CollectionHeaderVersion,
		Owner:     owner,
		CreatedBy: creation.By,
		CreatedAt: creation.At,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal collection header for '%s': %w", owner, err)
	}
	index, err := r.store.Append(ns, headerBytes)
	if err != nil {
		return fmt.Errorf("failed to write collection header for '%s': %w", owner, err)
	}
	if index != HeaderIndex {
		return fmt.Errorf("collection header for '%s' landed at index %d: %w", owner, index, fault.ErrNotACollection)
	}
	logger.Infof("Created collection for '%s' (by '%s')", owner, creation.By)
	return nil
}

// OwnerOf returns the owner recorded in the header of owner's namespace.
func (r *Registry) OwnerOf(owner string) (string, error) {
	ns, err := r.Namespace(owner)
	if err != nil {
		return "", err
	}
	header, state, err := r.Probe(ns)
	if err != nil {
		return "", err
	}
	if state != HeaderPresent {
		return "", fmt.Errorf("collection for '%s' is %s: %w", owner, state, fault.ErrNotACollection)
	}
	return header.Owner, nil
}

// Probe reads index 0 of ns and decodes it as a collection header. Only host
// errors are returned; missing and undecodable headers are reported through
// the state.
func (r *Registry) Probe(ns keyedstore.Namespace) (*model.CollectionHeader, HeaderState, error) {
	raw, err := r.store.Get(ns, HeaderIndex)
	switch {
	case errors.Is(err, fault.ErrOutOfRange):
		return nil, HeaderAbsent, nil
	case errors.Is(err, fault.ErrCorruptLengthCounter), errors.Is(err, fault.ErrCorruptRecord):
		logger.Warningf("Probe of %s found unreadable data: %v", ns, err)
		return nil, HeaderCorrupt, nil
	case err != nil:
		return nil, HeaderAbsent, fmt.Errorf("failed to probe %s: %w", ns, err)
	}

	header, err := decodeHeader(raw)
	if err != nil {
		logger.Warningf("Probe of %s: index 0 is not a collection header: %v", ns, err)
		return nil, HeaderCorrupt, nil
	}
	return header, HeaderPresent, nil
}

func decodeHeader(raw []byte) (*model.CollectionHeader, error) {
	var header model.CollectionHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, err
	}
	if header.Kind != model.CollectionHeaderKind {
		return nil, fmt.Errorf("kind %q", header.Kind)
	}
	if header.Version != model.CollectionHeaderVersion {
		return nil, fmt.Errorf("version %d: %w", header.Version, fault.ErrUnsupportedHeader)
	}
	if header.Owner == "" {
		return nil, errors.New("header has no owner")
	}
	return &header, nil
}
