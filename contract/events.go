package contract

import (
	"encoding/json"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"notifyledger/mailbox"
	"notifyledger/model"
)

// DepositEventName is the chaincode event emitted by Deposit.
const DepositEventName = "RecordDeposited"

// emitDepositEvent publishes who received a record. The reference itself is
// only readable with the recipient's viewing key and is not included.
func emitDepositEvent(ctx contractapi.TransactionContextInterface, inv mailbox.Invocation, receipt *model.DepositReceipt) {
	payload := map[string]interface{}{
		"recipient": receipt.Recipient,
		"sender":    inv.Caller,
		"position":  receipt.Position,
		"created":   receipt.Created,
		"txId":      inv.TxID,
	}
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		logger.Warningf("emitDepositEvent: Failed to marshal event payload for '%s': %v", receipt.Recipient, err)
		return
	}
	if errSet := ctx.GetStub().SetEvent(DepositEventName, eventBytes); errSet != nil {
		logger.Warningf("emitDepositEvent: Failed to set event for '%s': %v", receipt.Recipient, errSet)
	}
}
