package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/app"
	"github.com/spf13/cobra"
)

type showArguments struct {
	Url string
}

var showArgs showArguments

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Read records from the chain",
}

func init() {
	showCmd.PersistentFlags().StringVarP(&showArgs.Url, "url", "u", "http://127.0.0.1:26657", "ballot node rpc url")
	showCmd.AddCommand(
		newShowRecordCmd("session", app.QuerySession, "Show a session"),
		newShowRecordCmd("proposal", app.QueryProposal, "Show a proposal"),
		newShowRecordCmd("voter", app.QueryVoter, "Show a voter record"),
		newShowRecordCmd("voted", app.QueryVoted, "Show a vote marker"),
		newShowRecordCmd("account", app.QueryAccount, "Show the account of a signer public key"),
		showParamsCmd,
		showProposalsCmd,
	)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newShowRecordCmd(name string, path string, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <address>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddressArg(name, args[0])
			if err != nil {
				return err
			}
			cli, err := newClient(showArgs.Url)
			if err != nil {
				return err
			}
			var v json.RawMessage
			if err = queryJSON(context.Background(), cli, path, addr.Bytes(), &v); err != nil {
				return err
			}
			return printJSON(v)
		},
	}
}

var showParamsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the chain parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient(showArgs.Url)
		if err != nil {
			return err
		}
		params, err := queryParams(context.Background(), cli)
		if err != nil {
			return err
		}
		return printJSON(params)
	},
}

var showProposalsCmd = &cobra.Command{
	Use:   "proposals <session>",
	Short: "Show every proposal of a session in index order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := parseAddressArg("session", args[0])
		if err != nil {
			return err
		}
		cli, err := newClient(showArgs.Url)
		if err != nil {
			return err
		}
		ctx := context.Background()
		params, err := queryParams(ctx, cli)
		if err != nil {
			return err
		}
		sv, err := querySession(ctx, cli, session)
		if err != nil {
			return err
		}
		proposals := make([]app.ProposalView, 0, sv.ProposalCount)
		for i := uint32(0); i < sv.ProposalCount; i++ {
			addr, _, err := address.ProposalAddress(params.ProgramID, session, uint8(i))
			if err != nil {
				return err
			}
			var pv app.ProposalView
			if err = queryJSON(ctx, cli, app.QueryProposal, addr.Bytes(), &pv); err != nil {
				return err
			}
			proposals = append(proposals, pv)
		}
		return printJSON(proposals)
	},
}
