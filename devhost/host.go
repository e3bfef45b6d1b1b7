// Package devhost runs the notification ledger against a local LevelDB
// database. Every invocation is one LevelDB transaction: committed when the
// operation succeeds and discarded when it fails, the same all-or-nothing
// behaviour a Fabric peer gives a failed transaction.
package devhost

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric/common/flogging"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"

	"notifyledger/keyedstore"
	"notifyledger/mailbox"
	"notifyledger/model"
)

var logger = flogging.MustGetLogger("notifyledger.devhost")

// ContractName is recorded in the config of ledgers deployed by this host.
const ContractName = "notifyledger-devhost"

// Host owns the database handle.
type Host struct {
	sync.Mutex
	db      *leveldb.DB
	channel string
	now     func() time.Time
}

// Open opens or creates the database at path.
func Open(path, channel string) (*Host, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open ledger database %q: %w", path, err)
	}
	logger.Debugf("Opened ledger database %s", path)
	return newHost(db, channel), nil
}

// OpenMemory returns a host over a fresh in-memory database.
func OpenMemory(channel string) (*Host, error) {
	db, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open memory ledger: %w", err)
	}
	return newHost(db, channel), nil
}

func newHost(db *leveldb.DB, channel string) *Host {
	return &Host{db: db, channel: channel, now: time.Now}
}

// Close releases the database.
func (h *Host) Close() error {
	h.Lock()
	defer h.Unlock()
	return h.db.Close()
}

// Deploy instantiates the ledger with caller as deployer.
func (h *Host) Deploy(caller, prngSeed string) (*model.PublicConfig, error) {
	var public model.PublicConfig
	err := h.transact(caller, func(state keyedstore.State, inv mailbox.Invocation) error {
		cfg, err := mailbox.Instantiate(state, inv, ContractName, prngSeed)
		if err != nil {
			return err
		}
		public = model.PublicConfig{Deployer: cfg.Deployer, Contract: cfg.Contract}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &public, nil
}

// Invoke runs fn as caller against a service bound to a new transaction.
func (h *Host) Invoke(caller string, fn func(svc *mailbox.Service, inv mailbox.Invocation) error) error {
	return h.transact(caller, func(state keyedstore.State, inv mailbox.Invocation) error {
		cfg, err := mailbox.LoadConfig(state)
		if err != nil {
			return err
		}
		return fn(mailbox.NewService(state, cfg), inv)
	})
}

func (h *Host) transact(caller string, fn func(state keyedstore.State, inv mailbox.Invocation) error) error {
	h.Lock()
	defer h.Unlock()

	trx, err := h.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("open transaction: %w", err)
	}
	inv := mailbox.Invocation{
		Caller:    caller,
		TxID:      uuid.NewString(),
		Timestamp: h.now().UTC(),
		Channel:   h.channel,
	}
	if err := fn(&txState{trx: trx}, inv); err != nil {
		trx.Discard()
		logger.Debugf("Discarded transaction %s: %v", inv.TxID, err)
		return err
	}
	if err := trx.Commit(); err != nil {
		return fmt.Errorf("commit transaction %s: %w", inv.TxID, err)
	}
	return nil
}
