package config

import (
	"fmt"
	"os"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// Chaincode configures the chaincode binary. With an empty ServerAddress the
// peer launches the chaincode; otherwise it runs as an external service.
type Chaincode struct {
	ServerAddress string `env:"CHAINCODE_SERVER_ADDRESS"`
	ID            string `env:"CHAINCODE_ID"`
	TLSDisabled   bool   `env:"CHAINCODE_TLS_DISABLED" envDefault:"true"`
	TLSKeyFile    string `env:"CHAINCODE_TLS_KEY"`
	TLSCertFile   string `env:"CHAINCODE_TLS_CERT"`
	ClientCAFile  string `env:"CHAINCODE_CLIENT_CA_CERT"`
}

// LoadChaincode parses the chaincode environment.
func LoadChaincode() (Chaincode, error) {
	var cfg Chaincode
	if err := ParseEnv(&cfg); err != nil {
		return Chaincode{}, err
	}
	if cfg.ServerAddress != "" && cfg.ID == "" {
		return Chaincode{}, fmt.Errorf("CHAINCODE_ID is required with CHAINCODE_SERVER_ADDRESS")
	}
	return cfg, nil
}

// External reports whether the chaincode runs as a service.
func (c Chaincode) External() bool {
	return c.ServerAddress != ""
}

// TLSProperties reads the configured key material.
func (c Chaincode) TLSProperties() (shim.TLSProperties, error) {
	props := shim.TLSProperties{Disabled: c.TLSDisabled}
	if c.TLSDisabled {
		return props, nil
	}
	var err error
	if props.Key, err = readPEM("CHAINCODE_TLS_KEY", c.TLSKeyFile); err != nil {
		return props, err
	}
	if props.Cert, err = readPEM("CHAINCODE_TLS_CERT", c.TLSCertFile); err != nil {
		return props, err
	}
	if c.ClientCAFile != "" {
		if props.ClientCACerts, err = readPEM("CHAINCODE_CLIENT_CA_CERT", c.ClientCAFile); err != nil {
			return props, err
		}
	}
	return props, nil
}

func readPEM(name, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%s is required when TLS is enabled", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
