package main

import (
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"notifyledger/config"
	"notifyledger/contract"
)

func main() {
	cfg, err := config.LoadChaincode()
	if err != nil {
		panic("Error reading chaincode configuration: " + err.Error())
	}

	cc, err := contractapi.NewChaincode(contract.New())
	if err != nil {
		panic("Error creating NotificationContract: " + err.Error())
	}

	if !cfg.External() {
		if err := cc.Start(); err != nil {
			panic("Error starting chaincode: " + err.Error())
		}
		return
	}

	tlsProps, err := cfg.TLSProperties()
	if err != nil {
		panic("Error reading chaincode TLS material: " + err.Error())
	}
	server := &shim.ChaincodeServer{
		CCID:     cfg.ID,
		Address:  cfg.ServerAddress,
		CC:       cc,
		TLSProps: tlsProps,
	}
	if err := server.Start(); err != nil {
		panic("Error starting chaincode server: " + err.Error())
	}
}
