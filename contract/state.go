package contract

import (
	"encoding/hex"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// stubState exposes the transaction's world state as a keyedstore.State.
// Binary keys are hex-encoded: the result is valid UTF-8, never starts with
// the composite key marker and keeps the byte order of the original keys.
type stubState struct {
	stub shim.ChaincodeStubInterface
}

func newStubState(stub shim.ChaincodeStubInterface) *stubState {
	return &stubState{stub: stub}
}

func stateKey(key []byte) string {
	return hex.EncodeToString(key)
}

func (s *stubState) Get(key []byte) ([]byte, error) {
	return s.stub.GetState(stateKey(key))
}

func (s *stubState) Put(key, value []byte) error {
	return s.stub.PutState(stateKey(key), value)
}

func (s *stubState) Delete(key []byte) error {
	return s.stub.DelState(stateKey(key))
}
