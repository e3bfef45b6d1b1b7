// File: model/records.go
package model

import "time"

// Kind markers stored in every JSON document so a typed decode can tell
// what it is looking at.
const (
	RecordKind           = "record"
	CollectionHeaderKind = "collection-header"
	ConfigKind           = "config"

	// CollectionHeaderVersion is the only header layout this code writes.
	CollectionHeaderVersion = 1
)

// Record is one deposited notification: a reference to a file plus the
// identity that deposited it. Immutable once appended.
type Record struct {
	Kind        string    `json:"kind"`
	Reference   string    `json:"reference"`             // File path or content reference
	Sender      string    `json:"sender"`                // Identity of the depositor
	DepositedAt time.Time `json:"depositedAt,omitempty"` // Transaction timestamp of the deposit
	TxID        string    `json:"txId,omitempty"`        // Transaction that appended the record
}

// CollectionHeader occupies the reserved index 0 of every collection and
// names its owner. It is never returned as a Record.
type CollectionHeader struct {
	Kind      string    `json:"kind"`
	Version   int       `json:"version"`
	Owner     string    `json:"owner"`
	CreatedBy string    `json:"createdBy"` // Caller whose transaction created the collection
	CreatedAt time.Time `json:"createdAt"`
}

// Config is the deployment record written once by InitLedger.
type Config struct {
	Kind     string `json:"kind"`
	Deployer string `json:"deployer"`
	Contract string `json:"contract"`
	PRNGSeed []byte `json:"prngSeed"`
}

// PublicConfig is the part of Config that may be returned to any caller.
type PublicConfig struct {
	Deployer string `json:"deployer"`
	Contract string `json:"contract"`
}
