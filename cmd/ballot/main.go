package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ballotCmd = &cobra.Command{
	Use:   "ballot",
	Short: "Ballot is a voting chain",
	Long: `A CometBFT chain running named voting sessions: open a session,
add proposals, vote once per proposal and tally the winner.`,
	SilenceUsage: true,
}

func main() {
	ballotCmd.AddCommand(nodeCmd)
	ballotCmd.AddCommand(initCmd)
	ballotCmd.AddCommand(versionCmd)
	ballotCmd.AddCommand(pubkeyCmd)
	ballotCmd.AddCommand(sessionCmd)
	ballotCmd.AddCommand(memberCmd)
	ballotCmd.AddCommand(proposeCmd)
	ballotCmd.AddCommand(voteCmd)
	ballotCmd.AddCommand(tallyCmd)
	ballotCmd.AddCommand(showCmd)
	if err := ballotCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
