package contract

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/google/uuid"
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/msp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyledger/model"
)

// serializedIdentity returns a creator for a fresh self-signed certificate.
func serializedIdentity(t *testing.T, commonName string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: commonName, Organization: []string{"Org1"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	creator, err := proto.Marshal(&msp.SerializedIdentity{Mspid: "Org1MSP", IdBytes: certPEM})
	require.NoError(t, err)
	return creator
}

type chaincodeSession struct {
	stub *shimtest.MockStub
}

func newChaincodeSession(t *testing.T) *chaincodeSession {
	t.Helper()
	cc, err := contractapi.NewChaincode(New())
	require.NoError(t, err)
	stub := shimtest.NewMockStub("notifyledger", cc)
	stub.ChannelID = "mychannel"
	return &chaincodeSession{stub: stub}
}

// as switches the creator and returns the identity ID the contract will see.
func (s *chaincodeSession) as(t *testing.T, creator []byte) string {
	t.Helper()
	s.stub.Creator = creator
	id, err := cid.GetID(s.stub)
	require.NoError(t, err)
	return id
}

func (s *chaincodeSession) call(t *testing.T, data map[string][]byte, fn string, args ...string) []byte {
	t.Helper()
	s.stub.TransientMap = data
	invokeArgs := [][]byte{[]byte(ContractName + ":" + fn)}
	for _, a := range args {
		invokeArgs = append(invokeArgs, []byte(a))
	}
	resp := s.stub.MockInvoke(uuid.NewString(), invokeArgs)
	require.Equal(t, int32(shim.OK), resp.Status, "%s failed: %s", fn, resp.Message)
	return resp.Payload
}

func (s *chaincodeSession) callFails(t *testing.T, data map[string][]byte, fn string, args ...string) string {
	t.Helper()
	s.stub.TransientMap = data
	invokeArgs := [][]byte{[]byte(ContractName + ":" + fn)}
	for _, a := range args {
		invokeArgs = append(invokeArgs, []byte(a))
	}
	resp := s.stub.MockInvoke(uuid.NewString(), invokeArgs)
	require.NotEqual(t, int32(shim.OK), resp.Status, "%s should fail", fn)
	return resp.Message
}

func TestChaincodeDispatch(t *testing.T) {
	s := newChaincodeSession(t)
	adminCreator := serializedIdentity(t, "admin")
	aliceCreator := serializedIdentity(t, "alice")
	bobCreator := serializedIdentity(t, "bob")

	admin := s.as(t, adminCreator)
	s.call(t, transient(TransientPRNGSeed, "deployment secret"), "InitLedger")

	var cfg model.PublicConfig
	require.NoError(t, json.Unmarshal(s.call(t, nil, "GetConfig"), &cfg))
	assert.Equal(t, admin, cfg.Deployer)
	assert.Equal(t, ContractName, cfg.Contract)

	alice := s.as(t, aliceCreator)
	var issued model.ViewingKeyResponse
	require.NoError(t, json.Unmarshal(s.call(t, transient(TransientEntropy, "alice entropy"), "InitializeIdentity"), &issued))
	require.NotEmpty(t, issued.Key)

	bob := s.as(t, bobCreator)
	for _, ref := range []string{"ipfs://first", "ipfs://second", "ipfs://third"} {
		var receipt model.DepositReceipt
		require.NoError(t, json.Unmarshal(s.call(t, nil, "Deposit", alice, ref), &receipt))
		assert.Equal(t, alice, receipt.Recipient)
		assert.False(t, receipt.Created)
	}

	s.as(t, aliceCreator)
	var page model.RecordsPage
	require.NoError(t, json.Unmarshal(s.call(t, withKey(issued.Key), "ListRecordsPage", alice, "0", "2"), &page))
	require.Len(t, page.Records, 2)
	assert.Equal(t, uint32(3), page.Total)
	assert.Equal(t, uint32(2), page.PageSize)
	assert.Equal(t, "ipfs://third", page.Records[0].Reference)
	assert.Equal(t, bob, page.Records[0].Sender)

	var rec model.Record
	require.NoError(t, json.Unmarshal(s.call(t, withKey(issued.Key), "GetRecord", alice, "1"), &rec))
	assert.Equal(t, "ipfs://second", rec.Reference)
	assert.False(t, rec.DepositedAt.IsZero())

	assert.Equal(t, "3", string(s.call(t, withKey(issued.Key), "CollectionLength", alice)))

	// the key sent by bob opens nothing
	s.as(t, bobCreator)
	msg := s.callFails(t, withKey("api_key_guess"), "ListRecords", alice)
	assert.Contains(t, msg, "unauthorized")

	// a position that does not parse as uint32 is rejected by the dispatcher
	s.as(t, aliceCreator)
	s.callFails(t, withKey(issued.Key), "GetRecord", alice, "-1")
}
