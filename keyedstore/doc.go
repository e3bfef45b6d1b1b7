// Package keyedstore implements append-only sequences over a flat key-value
// byte store.
//
// Every sequence lives in a namespace built from a purpose tag and an owner
// identity. Each element is stored under its own key and the length is kept
// in a separate counter cell, so appending never rewrites earlier elements.
//
// Key layout:
//
//	u16be(len(tag)) || tag || u16be(len(identity)) || identity || suffix
//
// where suffix is 'n' for the length counter or 'i' || u32be(index) for an
// element. Both lengths are encoded, so no (tag, identity) pair can produce
// the prefix of another.
//
// Truncation only lowers the counter. Cells above the counter may keep stale
// bytes; every read is gated by the counter so they are unreachable.
package keyedstore
