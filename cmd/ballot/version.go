package main

import (
	"encoding/json"
	"fmt"

	"github.com/calehh/ballot-app/types"
	"github.com/spf13/cobra"
)

// GitCommit is set at link time.
var GitCommit string

const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

var Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)

func VersionWithCommit(gitCommit string) string {
	vsn := Version
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	return vsn
}

type versionInfo struct {
	Version       string `json:"version"`
	RecordVersion uint8  `json:"record_version"`
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the binary and record layout versions",
	Aliases: []string{"V"},
	Args:    cobra.NoArgs,
	RunE:    versionRun,
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print as json")
}

func versionRun(cmd *cobra.Command, args []string) error {
	info := versionInfo{Version: VersionWithCommit(GitCommit), RecordVersion: types.RecordVersion1}
	if !versionJSON {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (records v%d)\n", info.Version, info.RecordVersion)
		return nil
	}
	out, err := json.Marshal(info)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
