package keyedstore

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyledger/fault"
	"notifyledger/testutil"
)

func newTestStore(t *testing.T) (*Store, *testutil.MemState) {
	t.Helper()
	state := testutil.NewMemState()
	return New(state), state
}

func mustNamespace(t *testing.T, tag, identity string) Namespace {
	t.Helper()
	ns, err := NewNamespace(tag, identity)
	require.NoError(t, err)
	return ns
}

func appendN(t *testing.T, s *Store, ns Namespace, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.Append(ns, []byte(fmt.Sprintf("v%d", i)))
		require.NoError(t, err)
	}
}

func TestAppendReturnsSequentialIndices(t *testing.T) {
	s, _ := newTestStore(t)
	ns := mustNamespace(t, "messages", "alice")

	for want := uint32(0); want < 5; want++ {
		got, err := s.Append(ns, []byte{byte(want)})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	length, err := s.Length(ns)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), length)

	v, err := s.Get(ns, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, v)
}

func TestAppendWritesOneCellPlusCounter(t *testing.T) {
	s, state := newTestStore(t)
	ns := mustNamespace(t, "messages", "alice")
	appendN(t, s, ns, 10)

	before := state.Puts()
	_, err := s.Append(ns, []byte("tail"))
	require.NoError(t, err)
	assert.Equal(t, 2, state.Puts()-before, "append must not rewrite earlier elements")
}

func TestAbsentNamespace(t *testing.T) {
	s, _ := newTestStore(t)
	ns := mustNamespace(t, "messages", "nobody")

	length, err := s.Length(ns)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), length)

	attached, err := s.Attached(ns)
	require.NoError(t, err)
	assert.False(t, attached)

	_, err = s.Get(ns, 0)
	assert.ErrorIs(t, err, fault.ErrOutOfRange)
}

func TestEmptyIsDistinctFromAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	ns := mustNamespace(t, "messages", "alice")
	appendN(t, s, ns, 1)
	require.NoError(t, s.TruncateTo(ns, 0))

	attached, err := s.Attached(ns)
	require.NoError(t, err)
	assert.True(t, attached, "a truncated namespace keeps its counter")

	length, err := s.Length(ns)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), length)
}

func TestGetPastLengthFailsEvenWithStaleBytes(t *testing.T) {
	s, state := newTestStore(t)
	ns := mustNamespace(t, "messages", "alice")
	appendN(t, s, ns, 4)

	require.NoError(t, s.TruncateTo(ns, 1))

	stale, err := state.Get(ns.indexKey(2))
	require.NoError(t, err)
	require.NotNil(t, stale, "truncation leaves the old cell in place")

	_, err = s.Get(ns, 2)
	assert.ErrorIs(t, err, fault.ErrOutOfRange)

	// the next append reuses the slot
	idx, err := s.Append(ns, []byte("fresh"))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)
	v, err := s.Get(ns, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), v)
}

func TestTruncateBeyondLength(t *testing.T) {
	s, _ := newTestStore(t)
	ns := mustNamespace(t, "messages", "alice")
	appendN(t, s, ns, 2)

	err := s.TruncateTo(ns, 3)
	assert.ErrorIs(t, err, fault.ErrOutOfRange)
}

func TestNamespacesDoNotCollide(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustNamespace(t, "ab", "c")
	b := mustNamespace(t, "a", "bc")
	c := mustNamespace(t, "viewing_key", "c")

	assert.False(t, bytes.Equal(a.Prefix(), b.Prefix()))
	assert.False(t, bytes.HasPrefix(a.Prefix(), b.Prefix()))

	appendN(t, s, a, 3)
	appendN(t, s, b, 1)

	la, _ := s.Length(a)
	lb, _ := s.Length(b)
	lc, _ := s.Length(c)
	assert.Equal(t, uint32(3), la)
	assert.Equal(t, uint32(1), lb)
	assert.Equal(t, uint32(0), lc)
}

func TestKeyLayout(t *testing.T) {
	ns := mustNamespace(t, "tx", "al")
	assert.Equal(t, []byte{0, 2, 't', 'x', 0, 2, 'a', 'l', 'n'}, ns.lengthKey())
	assert.Equal(t, []byte{0, 2, 't', 'x', 0, 2, 'a', 'l', 'i', 0, 0, 1, 2}, ns.indexKey(258))

	key, err := Key("config", "")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 6, 'c', 'o', 'n', 'f', 'i', 'g', 0, 0}, key)
}

func TestCorruptLengthCounter(t *testing.T) {
	s, state := newTestStore(t)
	ns := mustNamespace(t, "messages", "alice")
	require.NoError(t, state.Put(ns.lengthKey(), []byte{1, 2}))

	_, err := s.Length(ns)
	assert.ErrorIs(t, err, fault.ErrCorruptLengthCounter)
}

func TestAppendPropagatesStateErrors(t *testing.T) {
	s, state := newTestStore(t)
	ns := mustNamespace(t, "messages", "alice")
	state.FailPut = fmt.Errorf("disk full")

	_, err := s.Append(ns, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func collect(t *testing.T, c *Cursor) []string {
	t.Helper()
	var out []string
	for c.HasNext() {
		_, v, err := c.Next()
		require.NoError(t, err)
		out = append(out, string(v))
	}
	return out
}

func TestIterate(t *testing.T) {
	s, _ := newTestStore(t)
	ns := mustNamespace(t, "messages", "alice")
	appendN(t, s, ns, 5)

	tests := []struct {
		name  string
		order Order
		skip  uint32
		take  uint32
		want  []string
	}{
		{"all ascending", Ascending, 0, 5, []string{"v0", "v1", "v2", "v3", "v4"}},
		{"skip first", Ascending, 1, 10, []string{"v1", "v2", "v3", "v4"}},
		{"window", Ascending, 1, 2, []string{"v1", "v2"}},
		{"all descending", Descending, 0, 5, []string{"v4", "v3", "v2", "v1", "v0"}},
		{"descending page two", Descending, 2, 2, []string{"v2", "v1"}},
		{"descending tail page", Descending, 4, 2, []string{"v0"}},
		{"skip past end", Ascending, 5, 1, nil},
		{"take nothing", Descending, 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := s.Iterate(ns, tt.order, tt.skip, tt.take)
			require.NoError(t, err)
			assert.Equal(t, tt.want, collect(t, c))
		})
	}
}

func TestIterateIsRestartable(t *testing.T) {
	s, _ := newTestStore(t)
	ns := mustNamespace(t, "messages", "alice")
	appendN(t, s, ns, 2)

	c, err := s.Iterate(ns, Ascending, 0, 10)
	require.NoError(t, err)
	assert.Len(t, collect(t, c), 2)

	_, _, err = c.Next()
	assert.ErrorIs(t, err, fault.ErrOutOfRange, "an exhausted cursor stays exhausted")

	appendN(t, s, ns, 1)
	c, err = s.Iterate(ns, Ascending, 0, 10)
	require.NoError(t, err)
	assert.Len(t, collect(t, c), 3, "a new cursor re-reads the store")
}

func TestNamespaceRejectsOversizedIdentity(t *testing.T) {
	_, err := NewNamespace("messages", string(make([]byte, 70000)))
	assert.ErrorIs(t, err, fault.ErrInvalidIdentity)
}
