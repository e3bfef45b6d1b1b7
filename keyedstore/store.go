package keyedstore

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hyperledger/fabric/common/flogging"

	"notifyledger/fault"
)

var logger = flogging.MustGetLogger("notifyledger.keyedstore")

// Store reads and writes append-only sequences through a State.
type Store struct {
	state State
}

// New returns a Store over state.
func New(state State) *Store {
	return &Store{state: state}
}

// Append stores value at the tail of ns and returns its index.
func (s *Store) Append(ns Namespace, value []byte) (uint32, error) {
	length, err := s.Length(ns)
	if err != nil {
		return 0, err
	}
	if length == math.MaxUint32 {
		return 0, fmt.Errorf("append to %s: %w", ns, fault.ErrLengthOverflow)
	}
	if err := s.state.Put(ns.indexKey(length), value); err != nil {
		return 0, fmt.Errorf("failed to write element %d of %s: %w", length, ns, err)
	}
	if err := s.putLength(ns, length+1); err != nil {
		return 0, err
	}
	logger.Debugf("appended element %d to %s", length, ns)
	return length, nil
}

// Get returns the element at index. Indices at or beyond the length fail with
// fault.ErrOutOfRange, whatever bytes may remain in the cell.
func (s *Store) Get(ns Namespace, index uint32) ([]byte, error) {
	length, err := s.Length(ns)
	if err != nil {
		return nil, err
	}
	if index >= length {
		return nil, fmt.Errorf("element %d of %s (length %d): %w", index, ns, length, fault.ErrOutOfRange)
	}
	value, err := s.state.Get(ns.indexKey(index))
	if err != nil {
		return nil, fmt.Errorf("failed to read element %d of %s: %w", index, ns, err)
	}
	if value == nil {
		return nil, fmt.Errorf("element %d of %s is missing below length %d: %w", index, ns, length, fault.ErrCorruptRecord)
	}
	return value, nil
}

// Length returns the number of elements in ns, 0 when ns was never written.
func (s *Store) Length(ns Namespace) (uint32, error) {
	length, _, err := s.readLength(ns)
	return length, err
}

// Attached reports whether ns has a length counter at all. A namespace that
// was truncated to zero is attached; one that was never written is not.
func (s *Store) Attached(ns Namespace) (bool, error) {
	_, present, err := s.readLength(ns)
	return present, err
}

// TruncateTo lowers the length of ns to newLength. Cells above the new length
// are left in place and become unreachable.
func (s *Store) TruncateTo(ns Namespace, newLength uint32) error {
	length, err := s.Length(ns)
	if err != nil {
		return err
	}
	if newLength > length {
		return fmt.Errorf("truncate %s to %d beyond length %d: %w", ns, newLength, length, fault.ErrOutOfRange)
	}
	if newLength == length {
		return nil
	}
	if err := s.putLength(ns, newLength); err != nil {
		return err
	}
	logger.Debugf("truncated %s from %d to %d", ns, length, newLength)
	return nil
}

func (s *Store) readLength(ns Namespace) (uint32, bool, error) {
	raw, err := s.state.Get(ns.lengthKey())
	if err != nil {
		return 0, false, fmt.Errorf("failed to read length of %s: %w", ns, err)
	}
	if raw == nil {
		return 0, false, nil
	}
	if len(raw) != 4 {
		return 0, true, fmt.Errorf("length of %s has %d bytes: %w", ns, len(raw), fault.ErrCorruptLengthCounter)
	}
	return binary.BigEndian.Uint32(raw), true, nil
}

func (s *Store) putLength(ns Namespace, length uint32) error {
	raw := binary.BigEndian.AppendUint32(nil, length)
	if err := s.state.Put(ns.lengthKey(), raw); err != nil {
		return fmt.Errorf("failed to write length of %s: %w", ns, err)
	}
	return nil
}
