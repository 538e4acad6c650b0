package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/tx"
	"github.com/spf13/cobra"
)

var voteArgs submitArguments

var voteCmd = &cobra.Command{
	Use:   "vote <session> <proposal address|index>",
	Short: "Vote for a proposal of a session",
	Args:  cobra.ExactArgs(2),
	RunE:  voteRun,
}

func init() {
	submitFlags(voteCmd, &voteArgs)
}

// proposalArg accepts either a proposal address or its index in the session.
func proposalArg(url string, session address.Address, arg string) (address.Address, error) {
	idx, err := strconv.ParseUint(arg, 10, 8)
	if err != nil {
		return parseAddressArg("proposal", arg)
	}
	cli, err := newClient(url)
	if err != nil {
		return address.Address{}, err
	}
	params, err := queryParams(context.Background(), cli)
	if err != nil {
		return address.Address{}, err
	}
	proposal, _, err := address.ProposalAddress(params.ProgramID, session, uint8(idx))
	return proposal, err
}

func voteRun(cmd *cobra.Command, args []string) error {
	session, err := parseAddressArg("session", args[0])
	if err != nil {
		return err
	}
	proposal, err := proposalArg(voteArgs.Url, session, args[1])
	if err != nil {
		return err
	}
	return submit(&voteArgs, &tx.VoteTx{
		Session:  session,
		Proposal: proposal,
	})
}

var tallyArgs submitArguments

var tallyCmd = &cobra.Command{
	Use:   "tally <session>",
	Short: "Select the winning proposal of a session",
	Long: `Reads the proposal count of the session, derives the address of every
proposal in index order and submits them for counting.`,
	Args: cobra.ExactArgs(1),
	RunE: tallyRun,
}

func init() {
	submitFlags(tallyCmd, &tallyArgs)
}

func tallyRun(cmd *cobra.Command, args []string) error {
	session, err := parseAddressArg("session", args[0])
	if err != nil {
		return err
	}
	cli, err := newClient(tallyArgs.Url)
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
	if sv.WinnerSelected {
		return fmt.Errorf("session %s already decided, winner %d", session, sv.WinnerIdx)
	}
	proposals := make([]address.Address, 0, sv.ProposalCount)
	for i := uint32(0); i < sv.ProposalCount; i++ {
		p, _, err := address.ProposalAddress(params.ProgramID, session, uint8(i))
		if err != nil {
			return err
		}
		proposals = append(proposals, p)
	}
	return submit(&tallyArgs, &tx.TallyTx{
		Session:   session,
		Proposals: proposals,
	})
}
