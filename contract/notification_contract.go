package contract

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"

	"notifyledger/mailbox"
	"notifyledger/model"
)

var logger = flogging.MustGetLogger("notifyledger.contract")

// ContractName is the name the contract is registered under.
const ContractName = "NotificationContract"

// NotificationContract exposes the notification ledger as chaincode.
// @contract:NotificationContract
type NotificationContract struct {
	contractapi.Contract
}

// New returns the contract with its name set.
func New() *NotificationContract {
	c := &NotificationContract{}
	c.Name = ContractName
	return c
}

// serviceFor loads the deployment config and binds a service to ctx.
func (c *NotificationContract) serviceFor(ctx contractapi.TransactionContextInterface) (*mailbox.Service, mailbox.Invocation, error) {
	inv, err := newInvocation(ctx)
	if err != nil {
		return nil, mailbox.Invocation{}, err
	}
	state := newStubState(ctx.GetStub())
	cfg, err := mailbox.LoadConfig(state)
	if err != nil {
		logger.Errorf("Ledger config unavailable: %v", err)
		return nil, mailbox.Invocation{}, err
	}
	return mailbox.NewService(state, cfg), inv, nil
}

// --- Lifecycle ---

// InitLedger stores the deployment config. It succeeds once per ledger. The
// seed is read from the transient map.
func (c *NotificationContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	logger.Infof("Chaincode Call: InitLedger by '%s'", callerForLog(ctx))
	inv, err := newInvocation(ctx)
	if err != nil {
		return err
	}
	prngSeed, err := transientSeed(ctx)
	if err != nil {
		return fmt.Errorf("InitLedger: %w", err)
	}
	if _, err := mailbox.Instantiate(newStubState(ctx.GetStub()), inv, c.GetName(), prngSeed); err != nil {
		return fmt.Errorf("InitLedger: %w", err)
	}
	return nil
}

// GetConfig returns the deployer and contract name. The seed stays private.
func (c *NotificationContract) GetConfig(ctx contractapi.TransactionContextInterface) (*model.PublicConfig, error) {
	svc, _, err := c.serviceFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetConfig: %w", err)
	}
	cfg := svc.Config()
	return &cfg, nil
}

// --- Viewing keys ---

// InitializeIdentity creates the caller's collection and returns its first
// viewing key. Entropy is read from the transient map.
func (c *NotificationContract) InitializeIdentity(ctx contractapi.TransactionContextInterface) (*model.ViewingKeyResponse, error) {
	logger.Infof("Chaincode Call: InitializeIdentity by '%s'", callerForLog(ctx))
	svc, inv, err := c.serviceFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("InitializeIdentity: %w", err)
	}
	entropy, err := transientEntropy(ctx)
	if err != nil {
		return nil, fmt.Errorf("InitializeIdentity: %w", err)
	}
	key, err := svc.InitializeIdentity(inv, entropy)
	if err != nil {
		return nil, fmt.Errorf("InitializeIdentity: %w", err)
	}
	return &model.ViewingKeyResponse{Key: key}, nil
}

// RotateCredential issues a new viewing key for the caller. Entropy is read
// from the transient map.
func (c *NotificationContract) RotateCredential(ctx contractapi.TransactionContextInterface) (*model.ViewingKeyResponse, error) {
	logger.Infof("Chaincode Call: RotateCredential by '%s'", callerForLog(ctx))
	svc, inv, err := c.serviceFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("RotateCredential: %w", err)
	}
	entropy, err := transientEntropy(ctx)
	if err != nil {
		return nil, fmt.Errorf("RotateCredential: %w", err)
	}
	key, err := svc.RotateCredential(inv, entropy)
	if err != nil {
		return nil, fmt.Errorf("RotateCredential: %w", err)
	}
	return &model.ViewingKeyResponse{Key: key}, nil
}

// --- Records ---

// Deposit appends a record from the caller to recipient's collection.
func (c *NotificationContract) Deposit(ctx contractapi.TransactionContextInterface, recipient, reference string) (*model.DepositReceipt, error) {
	logger.Infof("Chaincode Call: Deposit to '%s' by '%s'", recipient, callerForLog(ctx))
	svc, inv, err := c.serviceFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	receipt, err := svc.Deposit(inv, recipient, reference)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	emitDepositEvent(ctx, inv, receipt)
	return receipt, nil
}

// ListRecords returns all of target's records in insertion order. The
// viewing key of target is read from the transient map, as for every read.
func (c *NotificationContract) ListRecords(ctx contractapi.TransactionContextInterface, target string) (*model.RecordsResponse, error) {
	logger.Debugf("Chaincode Call: ListRecords for '%s'", target)
	svc, inv, err := c.serviceFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecords: %w", err)
	}
	viewingKey, err := transientViewingKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecords: %w", err)
	}
	resp, err := svc.List(inv, target, viewingKey)
	if err != nil {
		return nil, fmt.Errorf("ListRecords: %w", err)
	}
	return resp, nil
}

// ListRecordsPage returns one page of target's records, newest first.
func (c *NotificationContract) ListRecordsPage(ctx contractapi.TransactionContextInterface, target string, page, pageSize uint32) (*model.RecordsPage, error) {
	logger.Debugf("Chaincode Call: ListRecordsPage for '%s' page %d size %d", target, page, pageSize)
	svc, inv, err := c.serviceFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecordsPage: %w", err)
	}
	viewingKey, err := transientViewingKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecordsPage: %w", err)
	}
	resp, err := svc.ListPage(inv, target, viewingKey, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("ListRecordsPage: %w", err)
	}
	return resp, nil
}

// GetRecord returns target's record at position, 0 being the oldest.
func (c *NotificationContract) GetRecord(ctx contractapi.TransactionContextInterface, target string, position uint32) (*model.Record, error) {
	logger.Debugf("Chaincode Call: GetRecord %d for '%s'", position, target)
	svc, inv, err := c.serviceFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetRecord: %w", err)
	}
	viewingKey, err := transientViewingKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetRecord: %w", err)
	}
	rec, err := svc.GetRecord(inv, target, viewingKey, position)
	if err != nil {
		return nil, fmt.Errorf("GetRecord: %w", err)
	}
	return rec, nil
}

// CollectionLength returns how many records target holds.
func (c *NotificationContract) CollectionLength(ctx contractapi.TransactionContextInterface, target string) (uint32, error) {
	svc, inv, err := c.serviceFor(ctx)
	if err != nil {
		return 0, fmt.Errorf("CollectionLength: %w", err)
	}
	viewingKey, err := transientViewingKey(ctx)
	if err != nil {
		return 0, fmt.Errorf("CollectionLength: %w", err)
	}
	n, err := svc.Length(inv, target, viewingKey)
	if err != nil {
		return 0, fmt.Errorf("CollectionLength: %w", err)
	}
	return n, nil
}

// PurgeRecords removes every record from the caller's own collection.
func (c *NotificationContract) PurgeRecords(ctx contractapi.TransactionContextInterface) error {
	logger.Infof("Chaincode Call: PurgeRecords by '%s'", callerForLog(ctx))
	svc, inv, err := c.serviceFor(ctx)
	if err != nil {
		return fmt.Errorf("PurgeRecords: %w", err)
	}
	if err := svc.Purge(inv, inv.Caller); err != nil {
		return fmt.Errorf("PurgeRecords: %w", err)
	}
	return nil
}
