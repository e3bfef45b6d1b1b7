// Package viewingkey issues and checks viewing keys: opaque bearer secrets
// that authenticate read access to one identity's collection.
//
// Only SHA-256(key) is persisted. Verification always performs exactly one
// constant-time comparison of a full-size hash, including when the identity
// never had a key, so response time does not reveal whether a key exists.
package viewingkey

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/hyperledger/fabric/common/flogging"
	"golang.org/x/crypto/hkdf"

	"notifyledger/fault"
	"notifyledger/keyedstore"
)

var logger = flogging.MustGetLogger("notifyledger.viewingkey")

const (
	// Tag is the storage tag of hashed viewing keys.
	Tag = "viewing_key"
	// Prefix starts every issued key.
	Prefix = "api_key_"
	// HashSize is the size of the stored form.
	HashSize = sha256.Size
)

// zeroHash stands in for the stored hash of an identity without a key.
var zeroHash [HashSize]byte

// Context is the execution context mixed into key derivation.
type Context struct {
	TxID      string
	Timestamp time.Time
	Channel   string
}

// Manager derives, stores and verifies viewing keys.
type Manager struct {
	state keyedstore.State
	seed  []byte
}

// NewManager returns a Manager using the deployment seed.
func NewManager(state keyedstore.State, seed []byte) *Manager {
	return &Manager{state: state, seed: seed}
}

// Generate derives a fresh key for identity from the seed, the caller's
// entropy and the execution context. It does not store the key.
func (m *Manager) Generate(identity, entropy string, ctx Context) (string, error) {
	if len(m.seed) == 0 {
		return "", fmt.Errorf("derive viewing key: %w", fault.ErrInvalidSeed)
	}
	info := make([]byte, 0, 64+len(identity)+len(entropy))
	info = appendField(info, []byte(identity))
	info = appendField(info, []byte(entropy))
	info = appendField(info, []byte(ctx.TxID))
	info = binary.BigEndian.AppendUint64(info, uint64(ctx.Timestamp.UnixNano()))
	info = appendField(info, []byte(ctx.Channel))

	okm := make([]byte, HashSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, m.seed, nil, info), okm); err != nil {
		return "", fmt.Errorf("derive viewing key: %w", err)
	}
	digest := sha256.Sum256(okm)
	return Prefix + base64.StdEncoding.EncodeToString(digest[:]), nil
}

// Store persists the hashed form of key for identity, replacing any previous
// key.
func (m *Manager) Store(identity, key string) error {
	storageKey, err := keyedstore.Key(Tag, identity)
	if err != nil {
		return err
	}
	hashed := Hash(key)
	if err := m.state.Put(storageKey, hashed); err != nil {
		return fmt.Errorf("failed to store viewing key for '%s': %w", identity, err)
	}
	logger.Infof("Stored viewing key for '%s'", identity)
	return nil
}

// Verify reports whether supplied is the current key of identity.
func (m *Manager) Verify(identity, supplied string) (bool, error) {
	storageKey, err := keyedstore.Key(Tag, identity)
	if err != nil {
		return false, err
	}
	stored, err := m.state.Get(storageKey)
	if err != nil {
		return false, fmt.Errorf("failed to read viewing key for '%s': %w", identity, err)
	}
	return verifyOrRejectInConstantTime(supplied, stored), nil
}

// Hash returns the stored form of key.
func Hash(key string) []byte {
	digest := sha256.Sum256([]byte(key))
	return digest[:]
}

// verifyOrRejectInConstantTime compares H(supplied) with the stored hash. A
// missing or malformed stored hash is replaced by zeroHash and compared all
// the same.
func verifyOrRejectInConstantTime(supplied string, stored []byte) bool {
	expected := expectedHash(stored)
	match := subtle.ConstantTimeCompare(Hash(supplied), expected) == 1
	return match && len(stored) == HashSize
}

func expectedHash(stored []byte) []byte {
	if len(stored) != HashSize {
		if stored != nil {
			logger.Warningf("stored viewing key hash has %d bytes, expected %d", len(stored), HashSize)
		}
		return zeroHash[:]
	}
	return stored
}

func appendField(buf, field []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(field)))
	return append(buf, field...)
}
