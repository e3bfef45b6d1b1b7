package mailbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric/common/flogging"

	"notifyledger/fault"
	"notifyledger/keyedstore"
	"notifyledger/model"
	"notifyledger/registry"
	"notifyledger/viewingkey"
)

var logger = flogging.MustGetLogger("notifyledger.mailbox")

// Invocation describes the transaction an operation runs in.
type Invocation struct {
	Caller    string
	TxID      string
	Timestamp time.Time
	Channel   string
}

func (inv Invocation) keyContext() viewingkey.Context {
	return viewingkey.Context{TxID: inv.TxID, Timestamp: inv.Timestamp, Channel: inv.Channel}
}

// Service orchestrates collections and viewing keys for one invocation.
type Service struct {
	store    *keyedstore.Store
	registry *registry.Registry
	keys     *viewingkey.Manager
	config   *model.Config
}

// NewService returns a Service over state using the deployment config.
func NewService(state keyedstore.State, config *model.Config) *Service {
	store := keyedstore.New(state)
	return &Service{
		store:    store,
		registry: registry.New(store),
		keys:     viewingkey.NewManager(state, config.PRNGSeed),
		config:   config,
	}
}

// Config returns the public part of the deployment config.
func (s *Service) Config() model.PublicConfig {
	return model.PublicConfig{Deployer: s.config.Deployer, Contract: s.config.Contract}
}

// InitializeIdentity creates the caller's collection and issues its first
// viewing key. It fails with fault.ErrAlreadyInitialized once the caller has a
// collection, whether from an earlier call or from a deposit.
func (s *Service) InitializeIdentity(inv Invocation, entropy string) (string, error) {
	identity, err := canonicalIdentity(inv.Caller, "caller")
	if err != nil {
		return "", err
	}
	if err := validateEntropy(entropy); err != nil {
		return "", err
	}

	exists, err := s.registry.Exists(identity)
	if err != nil {
		return "", fmt.Errorf("failed to check collection of '%s': %w", identity, err)
	}
	if exists {
		return "", fmt.Errorf("initialize '%s': %w", identity, fault.ErrAlreadyInitialized)
	}

	key, err := s.keys.Generate(identity, entropy, inv.keyContext())
	if err != nil {
		return "", err
	}
	if err := s.registry.CreateWithSentinel(identity, registry.Creation{By: identity, At: inv.Timestamp}); err != nil {
		return "", fmt.Errorf("initialize '%s': %w", identity, err)
	}
	if err := s.keys.Store(identity, key); err != nil {
		return "", err
	}
	logger.Infof("Initialized identity '%s'", identity)
	return key, nil
}

// RotateCredential issues a new viewing key for the caller, replacing any
// previous one. It does not touch the caller's collection.
func (s *Service) RotateCredential(inv Invocation, entropy string) (string, error) {
	identity, err := canonicalIdentity(inv.Caller, "caller")
	if err != nil {
		return "", err
	}
	if err := validateEntropy(entropy); err != nil {
		return "", err
	}
	key, err := s.keys.Generate(identity, entropy, inv.keyContext())
	if err != nil {
		return "", err
	}
	if err := s.keys.Store(identity, key); err != nil {
		return "", err
	}
	logger.Infof("Rotated viewing key of '%s'", identity)
	return key, nil
}

// Deposit appends a record from the caller to recipient's collection,
// creating the collection first when recipient has none.
func (s *Service) Deposit(inv Invocation, recipient, reference string) (*model.DepositReceipt, error) {
	sender, err := canonicalIdentity(inv.Caller, "caller")
	if err != nil {
		return nil, err
	}
	recipient, err = canonicalIdentity(recipient, "recipient")
	if err != nil {
		return nil, err
	}
	reference, err = validateReference(reference)
	if err != nil {
		return nil, err
	}

	record := model.Record{
		Kind:        model.RecordKind,
		Reference:   reference,
		Sender:      sender,
		DepositedAt: inv.Timestamp,
		TxID:        inv.TxID,
	}
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record for '%s': %w", recipient, err)
	}

	exists, err := s.registry.Exists(recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection of '%s': %w", recipient, err)
	}
	if !exists {
		if err := s.registry.CreateWithSentinel(recipient, registry.Creation{By: sender, At: inv.Timestamp}); err != nil {
			return nil, fmt.Errorf("deposit to '%s': %w", recipient, err)
		}
	}

	ns, err := s.registry.Namespace(recipient)
	if err != nil {
		return nil, err
	}
	index, err := s.store.Append(ns, recordBytes)
	if err != nil {
		return nil, fmt.Errorf("deposit to '%s': %w", recipient, err)
	}
	logger.Infof("Deposited record %d for '%s' from '%s'", index, recipient, sender)
	return &model.DepositReceipt{Recipient: recipient, Position: index - 1, Created: !exists}, nil
}

// List returns every record of target in insertion order. The viewing key is
// checked before anything else, so an unknown target and a wrong key fail
// the same way.
func (s *Service) List(inv Invocation, target, key string) (*model.RecordsResponse, error) {
	ns, err := s.authenticate(inv, target, key)
	if err != nil {
		return nil, err
	}
	total, err := s.recordCount(ns)
	if err != nil {
		return nil, err
	}
	cursor, err := s.store.Iterate(ns, keyedstore.Ascending, 1, total)
	if err != nil {
		return nil, err
	}
	records, err := readRecords(cursor)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Listed %d records of '%s' for '%s'", len(records), ns.Identity(), inv.Caller)
	return &model.RecordsResponse{Records: records, Length: total}, nil
}

// ListPage returns one page of target's records, newest first.
func (s *Service) ListPage(inv Invocation, target, key string, page, pageSize uint32) (*model.RecordsPage, error) {
	ns, err := s.authenticate(inv, target, key)
	if err != nil {
		return nil, err
	}
	pageSize = NormalizePageSize(pageSize)
	total, err := s.recordCount(ns)
	if err != nil {
		return nil, err
	}

	result := &model.RecordsPage{Records: []model.Record{}, Page: page, PageSize: pageSize, Total: total}
	skip := uint64(page) * uint64(pageSize)
	if skip >= uint64(total) {
		return result, nil
	}
	take := pageSize
	if left := total - uint32(skip); left < take {
		take = left
	}
	// descending from the tail; take never reaches the header
	cursor, err := s.store.Iterate(ns, keyedstore.Descending, uint32(skip), take)
	if err != nil {
		return nil, err
	}
	result.Records, err = readRecords(cursor)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetRecord returns the record at position, 0 being the oldest record.
func (s *Service) GetRecord(inv Invocation, target, key string, position uint32) (*model.Record, error) {
	ns, err := s.authenticate(inv, target, key)
	if err != nil {
		return nil, err
	}
	total, err := s.recordCount(ns)
	if err != nil {
		return nil, err
	}
	if position >= total {
		return nil, fmt.Errorf("record %d of '%s' (%d records): %w", position, ns.Identity(), total, fault.ErrOutOfRange)
	}
	raw, err := s.store.Get(ns, position+1)
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

// Length returns the number of records of target, the header excluded.
func (s *Service) Length(inv Invocation, target, key string) (uint32, error) {
	ns, err := s.authenticate(inv, target, key)
	if err != nil {
		return 0, err
	}
	return s.recordCount(ns)
}

// Purge removes every record of the caller's collection, keeping the header.
// Only the owner may purge. Purging without a collection succeeds and writes
// nothing.
func (s *Service) Purge(inv Invocation, identity string) error {
	caller, err := canonicalIdentity(inv.Caller, "caller")
	if err != nil {
		return err
	}
	identity, err = canonicalIdentity(identity, "identity")
	if err != nil {
		return err
	}
	if caller != identity {
		return fmt.Errorf("'%s' cannot purge '%s': %w", caller, identity, fault.ErrSelfServiceOnly)
	}

	ns, err := s.registry.Namespace(identity)
	if err != nil {
		return err
	}
	header, state, err := s.registry.Probe(ns)
	if err != nil {
		return fmt.Errorf("purge '%s': %w", identity, err)
	}
	switch state {
	case registry.HeaderAbsent:
		logger.Debugf("Purge of '%s': no collection, nothing to do", identity)
		return nil
	case registry.HeaderCorrupt:
		return fmt.Errorf("purge '%s': %w", identity, fault.ErrNotACollection)
	}
	if header.Owner != identity {
		return fmt.Errorf("purge '%s' owned by '%s': %w", identity, header.Owner, fault.ErrOwnerMismatch)
	}
	if err := s.store.TruncateTo(ns, registry.HeaderIndex+1); err != nil {
		return fmt.Errorf("purge '%s': %w", identity, err)
	}
	logger.Infof("Purged records of '%s'", identity)
	return nil
}

// authenticate verifies key for target and that target's collection is owned
// by target, returning its namespace.
func (s *Service) authenticate(inv Invocation, target, key string) (keyedstore.Namespace, error) {
	target, err := canonicalIdentity(target, "target")
	if err != nil {
		return keyedstore.Namespace{}, err
	}
	ok, err := s.keys.Verify(target, key)
	if err != nil {
		return keyedstore.Namespace{}, err
	}
	if !ok {
		logger.Debugf("Rejected viewing key for '%s' presented by '%s'", target, inv.Caller)
		return keyedstore.Namespace{}, fault.ErrUnauthorized
	}

	owner, err := s.registry.OwnerOf(target)
	if err != nil {
		return keyedstore.Namespace{}, fmt.Errorf("read collection of '%s': %w", target, err)
	}
	if owner != target {
		logger.Errorf("Collection of '%s' names owner '%s'", target, owner)
		return keyedstore.Namespace{}, fmt.Errorf("collection of '%s': %w", target, fault.ErrOwnerMismatch)
	}
	return s.registry.Namespace(target)
}

func (s *Service) recordCount(ns keyedstore.Namespace) (uint32, error) {
	length, err := s.store.Length(ns)
	if err != nil {
		return 0, err
	}
	if length == 0 {
		return 0, nil
	}
	return length - 1, nil
}

func readRecords(cursor *keyedstore.Cursor) ([]model.Record, error) {
	records := []model.Record{}
	for cursor.HasNext() {
		_, raw, err := cursor.Next()
		if err != nil {
			return nil, err
		}
		record, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func decodeRecord(raw []byte) (*model.Record, error) {
	var record model.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%v: %w", err, fault.ErrCorruptRecord)
	}
	if record.Kind != model.RecordKind {
		return nil, fmt.Errorf("kind %q: %w", record.Kind, fault.ErrCorruptRecord)
	}
	return &record, nil
}
