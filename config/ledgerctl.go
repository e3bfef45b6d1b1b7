package config

// Ledgerctl holds the defaults of the ledgerctl CLI. Flags override them.
type Ledgerctl struct {
	DB      string `env:"LEDGERCTL_DB" envDefault:"./notifyledger.db"`
	Channel string `env:"LEDGERCTL_CHANNEL" envDefault:"devchannel"`
}

// LoadLedgerctl parses the ledgerctl environment.
func LoadLedgerctl() (Ledgerctl, error) {
	var cfg Ledgerctl
	if err := ParseEnv(&cfg); err != nil {
		return Ledgerctl{}, err
	}
	return cfg, nil
}
