package viewingkey

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyledger/fault"
	"notifyledger/keyedstore"
	"notifyledger/testutil"
)

var (
	testSeed = []byte("0123456789abcdef0123456789abcdef")
	testCtx  = Context{TxID: "tx-1", Timestamp: time.Unix(1700000000, 0), Channel: "mychannel"}
)

func TestGenerateIsDeterministicPerInput(t *testing.T) {
	m := NewManager(testutil.NewMemState(), testSeed)

	k1, err := m.Generate("alice", "e1", testCtx)
	require.NoError(t, err)
	k2, err := m.Generate("alice", "e1", testCtx)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, Prefix))

	variants := []struct {
		identity, entropy string
		ctx               Context
	}{
		{"bob", "e1", testCtx},
		{"alice", "e2", testCtx},
		{"alice", "e1", Context{TxID: "tx-2", Timestamp: testCtx.Timestamp, Channel: testCtx.Channel}},
		{"alice", "e1", Context{TxID: testCtx.TxID, Timestamp: testCtx.Timestamp.Add(time.Second), Channel: testCtx.Channel}},
	}
	for _, v := range variants {
		k, err := m.Generate(v.identity, v.entropy, v.ctx)
		require.NoError(t, err)
		assert.NotEqual(t, k1, k, "input %+v must change the key", v)
	}

	other := NewManager(testutil.NewMemState(), []byte("another seed"))
	k3, err := other.Generate("alice", "e1", testCtx)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3, "the deployment seed must change the key")
}

func TestGenerateRequiresSeed(t *testing.T) {
	m := NewManager(testutil.NewMemState(), nil)
	_, err := m.Generate("alice", "e1", testCtx)
	assert.ErrorIs(t, err, fault.ErrInvalidSeed)
}

func TestStoreKeepsOnlyHash(t *testing.T) {
	state := testutil.NewMemState()
	m := NewManager(state, testSeed)
	key, err := m.Generate("alice", "e1", testCtx)
	require.NoError(t, err)
	require.NoError(t, m.Store("alice", key))

	storageKey, err := keyedstore.Key(Tag, "alice")
	require.NoError(t, err)
	stored, err := state.Get(storageKey)
	require.NoError(t, err)
	assert.Equal(t, Hash(key), stored)
	assert.NotContains(t, string(stored), key)
	assert.Len(t, stored, HashSize)
}

func TestVerify(t *testing.T) {
	m := NewManager(testutil.NewMemState(), testSeed)
	key, err := m.Generate("alice", "e1", testCtx)
	require.NoError(t, err)
	require.NoError(t, m.Store("alice", key))

	ok, err := m.Verify("alice", key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Verify("alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Verify("bob", key)
	require.NoError(t, err)
	assert.False(t, ok, "a key is bound to its identity")
}

func TestRotationReplacesKey(t *testing.T) {
	m := NewManager(testutil.NewMemState(), testSeed)
	first, err := m.Generate("alice", "e1", testCtx)
	require.NoError(t, err)
	require.NoError(t, m.Store("alice", first))

	second, err := m.Generate("alice", "e2", testCtx)
	require.NoError(t, err)
	require.NoError(t, m.Store("alice", second))

	ok, _ := m.Verify("alice", first)
	assert.False(t, ok)
	ok, _ = m.Verify("alice", second)
	assert.True(t, ok)
}

func TestAbsentKeyComparesAgainstZeroBuffer(t *testing.T) {
	expected := expectedHash(nil)
	assert.Len(t, expected, HashSize, "the stand-in must be as large as a real hash")
	assert.Equal(t, make([]byte, HashSize), expected)

	assert.Equal(t, make([]byte, HashSize), expectedHash([]byte{1, 2, 3}), "a malformed hash is replaced too")

	m := NewManager(testutil.NewMemState(), testSeed)
	ok, err := m.Verify("nobody", "api_key_anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestZeroBufferNeverAuthenticates(t *testing.T) {
	assert.False(t, verifyOrRejectInConstantTime("", nil))
	assert.False(t, verifyOrRejectInConstantTime("x", make([]byte, HashSize)))
}

func TestVerifyTimingAbsentVersusWrong(t *testing.T) {
	if testing.Short() {
		t.Skip("timing sample skipped in short mode")
	}
	m := NewManager(testutil.NewMemState(), testSeed)
	key, err := m.Generate("alice", "e1", testCtx)
	require.NoError(t, err)
	require.NoError(t, m.Store("alice", key))

	const rounds = 2000
	sample := func(identity string) time.Duration {
		start := time.Now()
		for i := 0; i < rounds; i++ {
			_, _ = m.Verify(identity, "api_key_wrong")
		}
		return time.Since(start)
	}
	// warm up
	sample("alice")
	sample("nobody")

	withKey := sample("alice")
	withoutKey := sample("nobody")

	// both paths hash and compare; a short circuit would be an order of
	// magnitude faster
	assert.Greater(t, int64(withoutKey)*5, int64(withKey),
		"absent-key verification is suspiciously fast: %v vs %v", withoutKey, withKey)
}
