package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"notifyledger/mailbox"
	"notifyledger/model"
)

func newLedgerCommand(use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
}

// NewDeployCommand creates the deploy command.
func NewDeployCommand(opts *RootOptions) *cobra.Command {
	return newLedgerCommand("deploy <prng-seed>", "Instantiate the ledger", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			h, err := opts.openHost()
			if err != nil {
				return err
			}
			defer h.Close()
			cfg, err := h.Deploy(caller, args[0])
			if err != nil {
				return err
			}
			return newFormatter(opts, cmd.OutOrStdout()).Success(cfg, func(w io.Writer) {
				fmt.Fprintf(w, "Ledger deployed by %s\n", cfg.Deployer)
			})
		})
}

func entropyFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "entropy", "", "caller entropy for the viewing key (random when empty)")
}

func entropyOrRandom(entropy string) string {
	if entropy == "" {
		return uuid.NewString()
	}
	return entropy
}

func printKey(opts *RootOptions, cmd *cobra.Command, key string) error {
	resp := model.ViewingKeyResponse{Key: key}
	return newFormatter(opts, cmd.OutOrStdout()).Success(resp, func(w io.Writer) {
		fmt.Fprintln(w, key)
	})
}

// NewInitIdentityCommand creates the init-identity command.
func NewInitIdentityCommand(opts *RootOptions) *cobra.Command {
	var entropy string
	cmd := newLedgerCommand("init-identity", "Create the caller's collection and first viewing key", cobra.NoArgs,
		func(cmd *cobra.Command, args []string) error {
			var key string
			err := opts.invoke(func(svc *mailbox.Service, inv mailbox.Invocation) error {
				var err error
				key, err = svc.InitializeIdentity(inv, entropyOrRandom(entropy))
				return err
			})
			if err != nil {
				return err
			}
			return printKey(opts, cmd, key)
		})
	entropyFlag(cmd, &entropy)
	return cmd
}

// NewRotateKeyCommand creates the rotate-key command.
func NewRotateKeyCommand(opts *RootOptions) *cobra.Command {
	var entropy string
	cmd := newLedgerCommand("rotate-key", "Issue a new viewing key for the caller", cobra.NoArgs,
		func(cmd *cobra.Command, args []string) error {
			var key string
			err := opts.invoke(func(svc *mailbox.Service, inv mailbox.Invocation) error {
				var err error
				key, err = svc.RotateCredential(inv, entropyOrRandom(entropy))
				return err
			})
			if err != nil {
				return err
			}
			return printKey(opts, cmd, key)
		})
	entropyFlag(cmd, &entropy)
	return cmd
}

// NewDepositCommand creates the deposit command.
func NewDepositCommand(opts *RootOptions) *cobra.Command {
	return newLedgerCommand("deposit <recipient> <reference>", "Append a record to a recipient's collection", cobra.ExactArgs(2),
		func(cmd *cobra.Command, args []string) error {
			var receipt *model.DepositReceipt
			err := opts.invoke(func(svc *mailbox.Service, inv mailbox.Invocation) error {
				var err error
				receipt, err = svc.Deposit(inv, args[0], args[1])
				return err
			})
			if err != nil {
				return err
			}
			return newFormatter(opts, cmd.OutOrStdout()).Success(receipt, func(w io.Writer) {
				fmt.Fprintf(w, "Deposited record %d for %s\n", receipt.Position, receipt.Recipient)
			})
		})
}

func keyFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "key", "", "viewing key of the target")
	_ = cmd.MarkFlagRequired("key")
}

func printRecords(w io.Writer, first uint32, step int, records []model.Record) {
	pos := int64(first)
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\n", pos, r.Sender, r.Reference)
		pos += int64(step)
	}
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var key string
	cmd := newLedgerCommand("list <target>", "List every record of a collection", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			var resp *model.RecordsResponse
			err := opts.invoke(func(svc *mailbox.Service, inv mailbox.Invocation) error {
				var err error
				resp, err = svc.List(inv, args[0], key)
				return err
			})
			if err != nil {
				return err
			}
			return newFormatter(opts, cmd.OutOrStdout()).Success(resp, func(w io.Writer) {
				printRecords(w, 0, 1, resp.Records)
			})
		})
	keyFlag(cmd, &key)
	return cmd
}

// NewListPageCommand creates the list-page command.
func NewListPageCommand(opts *RootOptions) *cobra.Command {
	var (
		key      string
		page     uint32
		pageSize uint32
	)
	cmd := newLedgerCommand("list-page <target>", "List one page of a collection, newest first", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			var resp *model.RecordsPage
			err := opts.invoke(func(svc *mailbox.Service, inv mailbox.Invocation) error {
				var err error
				resp, err = svc.ListPage(inv, args[0], key, page, pageSize)
				return err
			})
			if err != nil {
				return err
			}
			return newFormatter(opts, cmd.OutOrStdout()).Success(resp, func(w io.Writer) {
				fmt.Fprintf(w, "page %d (%d per page, %d records)\n", resp.Page, resp.PageSize, resp.Total)
				skip := uint64(resp.Page) * uint64(resp.PageSize)
				if len(resp.Records) > 0 {
					printRecords(w, resp.Total-1-uint32(skip), -1, resp.Records)
				}
			})
		})
	keyFlag(cmd, &key)
	cmd.Flags().Uint32Var(&page, "page", 0, "0-based page number")
	cmd.Flags().Uint32Var(&pageSize, "page-size", mailbox.DefaultPageSize, "records per page")
	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	var key string
	cmd := newLedgerCommand("get <target> <position>", "Show one record of a collection", cobra.ExactArgs(2),
		func(cmd *cobra.Command, args []string) error {
			position, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid position", err)
			}
			var rec *model.Record
			err = opts.invoke(func(svc *mailbox.Service, inv mailbox.Invocation) error {
				var err error
				rec, err = svc.GetRecord(inv, args[0], key, uint32(position))
				return err
			})
			if err != nil {
				return err
			}
			return newFormatter(opts, cmd.OutOrStdout()).Success(rec, func(w io.Writer) {
				printRecords(w, uint32(position), 1, []model.Record{*rec})
			})
		})
	keyFlag(cmd, &key)
	return cmd
}

// NewLengthCommand creates the length command.
func NewLengthCommand(opts *RootOptions) *cobra.Command {
	var key string
	cmd := newLedgerCommand("length <target>", "Count the records of a collection", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			var n uint32
			err := opts.invoke(func(svc *mailbox.Service, inv mailbox.Invocation) error {
				var err error
				n, err = svc.Length(inv, args[0], key)
				return err
			})
			if err != nil {
				return err
			}
			return newFormatter(opts, cmd.OutOrStdout()).Success(map[string]uint32{"length": n}, func(w io.Writer) {
				fmt.Fprintln(w, n)
			})
		})
	keyFlag(cmd, &key)
	return cmd
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(opts *RootOptions) *cobra.Command {
	return newLedgerCommand("purge", "Remove every record from the caller's collection", cobra.NoArgs,
		func(cmd *cobra.Command, args []string) error {
			err := opts.invoke(func(svc *mailbox.Service, inv mailbox.Invocation) error {
				return svc.Purge(inv, inv.Caller)
			})
			if err != nil {
				return err
			}
			return newFormatter(opts, cmd.OutOrStdout()).Success(map[string]bool{"purged": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Purged records of %s\n", opts.Caller)
			})
		})
}
