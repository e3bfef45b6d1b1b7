package main

import (
	"fmt"
	"os"

	"notifyledger/cli"
	"notifyledger/config"
)

func main() {
	defaults, err := config.LoadLedgerctl()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCommandError)
	}

	cmd := cli.NewRootCommand(defaults)
	if err := cmd.Execute(); err != nil {
		formatter := &cli.OutputFormatter{Format: "text", Writer: os.Stderr}
		if f, _ := cmd.PersistentFlags().GetString("format"); f == "json" {
			formatter = &cli.OutputFormatter{Format: "json", Writer: os.Stdout}
		}
		_ = formatter.Error(err)
		os.Exit(cli.GetExitCode(err))
	}
}
