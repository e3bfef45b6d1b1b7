package cli

import (
	"fmt"

	"github.com/hyperledger/fabric/common/flogging"
	"github.com/spf13/cobra"

	"notifyledger/config"
	"notifyledger/devhost"
	"notifyledger/mailbox"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DB      string
	Channel string
	Caller  string
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of ledgerctl. defaults seeds the
// flag defaults, usually from the environment.
func NewRootCommand(defaults config.Ledgerctl) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Drive a local notification ledger",
		Long: `ledgerctl runs notification ledger operations against a local LevelDB
database, one transaction per command.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Verbose {
				flogging.ActivateSpec("debug")
			} else {
				flogging.ActivateSpec("warning")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", defaults.DB, "path to the ledger database")
	cmd.PersistentFlags().StringVar(&opts.Channel, "channel", defaults.Channel, "channel name mixed into viewing keys")
	cmd.PersistentFlags().StringVar(&opts.Caller, "as", "", "identity the command runs as")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewDeployCommand(opts))
	cmd.AddCommand(NewInitIdentityCommand(opts))
	cmd.AddCommand(NewRotateKeyCommand(opts))
	cmd.AddCommand(NewDepositCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewListPageCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewLengthCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openHost opens the configured database for one command.
func (o *RootOptions) openHost() (*devhost.Host, error) {
	if o.DB == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	h, err := devhost.Open(o.DB, o.Channel)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot open ledger", err)
	}
	return h, nil
}

func (o *RootOptions) caller() (string, error) {
	if o.Caller == "" {
		return "", NewExitError(ExitCommandError, "--as is required")
	}
	return o.Caller, nil
}

// invoke runs fn as the --as identity in one ledger transaction.
func (o *RootOptions) invoke(fn func(svc *mailbox.Service, inv mailbox.Invocation) error) error {
	caller, err := o.caller()
	if err != nil {
		return err
	}
	h, err := o.openHost()
	if err != nil {
		return err
	}
	defer h.Close()
	return h.Invoke(caller, fn)
}
