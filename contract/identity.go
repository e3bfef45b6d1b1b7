package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"notifyledger/mailbox"
)

func isValidX509ID(id string) bool {
	// "eDUwOTo6" is "x509::" base64 encoded
	return strings.HasPrefix(id, "x509::") || strings.HasPrefix(id, "eDUwOTo6")
}

// currentIdentity returns the ID of the transaction's submitter.
func currentIdentity(ctx contractapi.TransactionContextInterface) (string, error) {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity ID from context: %w", err)
	}
	if id == "" {
		return "", errors.New("client identity ID from context is empty")
	}
	if !isValidX509ID(id) {
		logger.Debugf("Current client ID '%s' does not appear to be a standard X.509 format.", id)
	}
	return id, nil
}

// callerForLog returns the caller's ID or a placeholder, for log lines only.
func callerForLog(ctx contractapi.TransactionContextInterface) string {
	id, err := currentIdentity(ctx)
	if err != nil {
		return "UNKNOWN_CALLER"
	}
	return id
}

// newInvocation collects the caller and transaction metadata of ctx.
func newInvocation(ctx contractapi.TransactionContextInterface) (mailbox.Invocation, error) {
	caller, err := currentIdentity(ctx)
	if err != nil {
		return mailbox.Invocation{}, err
	}
	stub := ctx.GetStub()
	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return mailbox.Invocation{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return mailbox.Invocation{
		Caller:    caller,
		TxID:      stub.GetTxID(),
		Timestamp: ts.AsTime(),
		Channel:   stub.GetChannelID(),
	}, nil
}
