package main

import (
	"github.com/calehh/ballot-app/tx"
	"github.com/spf13/cobra"
)

var proposeArgs submitArguments

var proposeCmd = &cobra.Command{
	Use:   "propose <session> <text>",
	Short: "Add a proposal to a session",
	Args:  cobra.ExactArgs(2),
	RunE:  proposeRun,
}

func init() {
	submitFlags(proposeCmd, &proposeArgs)
}

func proposeRun(cmd *cobra.Command, args []string) error {
	session, err := parseAddressArg("session", args[0])
	if err != nil {
		return err
	}
	return submit(&proposeArgs, &tx.AddProposalTx{
		Session: session,
		Text:    args[1],
	})
}
