package main

import (
	"fmt"
	"time"

	"github.com/calehh/ballot-app/tx"
	"github.com/spf13/cobra"
)

type sessionArguments struct {
	submitArguments
	Seed     string
	Deadline int64
	Duration time.Duration
}

var sessionArgs sessionArguments

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Open a voting session chaired by the signing key",
	Args:  cobra.NoArgs,
	RunE:  sessionRun,
}

func init() {
	submitFlags(sessionCmd, &sessionArgs.submitArguments)
	sessionCmd.Flags().StringVar(&sessionArgs.Seed, "seed", "", "session seed, unique per chairperson")
	sessionCmd.Flags().Int64Var(&sessionArgs.Deadline, "deadline", 0, "voting deadline in unix seconds")
	sessionCmd.Flags().DurationVar(&sessionArgs.Duration, "duration", 0, "voting deadline relative to now, used when --deadline is not set")
	_ = sessionCmd.MarkFlagRequired("seed")
}

func sessionRun(cmd *cobra.Command, args []string) error {
	deadline := sessionArgs.Deadline
	if deadline == 0 {
		if sessionArgs.Duration <= 0 {
			return fmt.Errorf("either --deadline or --duration is required")
		}
		deadline = time.Now().Add(sessionArgs.Duration).Unix()
	}
	return submit(&sessionArgs.submitArguments, &tx.InitialiseVotingTx{
		Seed:     sessionArgs.Seed,
		Deadline: deadline,
	})
}

type memberArguments struct {
	submitArguments
	Weight         uint8
	ProposeAnswers bool
}

var memberArgs memberArguments

var memberCmd = &cobra.Command{
	Use:   "member <session> <member pubkey>",
	Short: "Register a voter on a session, chairperson only",
	Args:  cobra.ExactArgs(2),
	RunE:  memberRun,
}

func init() {
	submitFlags(memberCmd, &memberArgs.submitArguments)
	memberCmd.Flags().Uint8Var(&memberArgs.Weight, "weight", 1, "voter weight")
	memberCmd.Flags().BoolVar(&memberArgs.ProposeAnswers, "propose", false, "member may propose answers")
}

func memberRun(cmd *cobra.Command, args []string) error {
	session, err := parseAddressArg("session", args[0])
	if err != nil {
		return err
	}
	member, err := parseAddressArg("member", args[1])
	if err != nil {
		return err
	}
	return submit(&memberArgs.submitArguments, &tx.AddMemberTx{
		Session:        session,
		Member:         member,
		Weight:         memberArgs.Weight,
		ProposeAnswers: memberArgs.ProposeAnswers,
	})
}
