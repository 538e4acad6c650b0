package main

import (
	"bytes"
	"testing"

	"github.com/calehh/ballot-app/address"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionWithCommit(t *testing.T) {
	assert.Equal(t, Version, VersionWithCommit(""))
	assert.Equal(t, Version+"-0123abcd", VersionWithCommit("0123abcdef"))
}

func TestProposalArgAddress(t *testing.T) {
	want := address.BytesToAddress([]byte("proposal"))
	got, err := proposalArg("http://127.0.0.1:1", address.Address{}, want.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = proposalArg("http://127.0.0.1:1", address.Address{}, "nothex")
	assert.ErrorIs(t, err, address.ErrInvalidAddress)
}

func TestSubmitFlags(t *testing.T) {
	for _, c := range []*cobra.Command{sessionCmd, memberCmd, proposeCmd, voteCmd, tallyCmd} {
		for _, name := range []string{"url", "skeyPath", "nonce", "nosend"} {
			assert.NotNil(t, c.Flags().Lookup(name), "%s --%s", c.Name(), name)
		}
	}
	assert.Equal(t, "-1", voteCmd.Flags().Lookup("nonce").DefValue)
}

func TestVersionJSON(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionJSON = true
	defer func() { versionJSON = false }()
	require.NoError(t, versionRun(versionCmd, nil))
	assert.JSONEq(t, `{"version":"`+VersionWithCommit(GitCommit)+`","record_version":1}`, out.String())
}
