package types

import (
	"strings"
	"testing"

	"github.com/calehh/ballot-app/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVotingRecord(t *testing.T) {
	v := &Voting{
		Chairperson:    address.BytesToAddress([]byte{9}),
		ProposalCount:  3,
		WinnerIdx:      2,
		WinnerSelected: true,
		Deadline:       -5,
	}
	dat, err := v.Marshal()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(dat), VotingSpace)
	assert.Equal(t, KindVoting, KindOf(dat))

	got, err := UnmarshalVoting(dat)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestProposalRecordCapacity(t *testing.T) {
	p := &Proposal{Index: 255, Text: strings.Repeat("x", MaxProposalTextLen), VoteCounter: ^uint32(0)}
	dat, err := p.Marshal()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(dat), ProposalSpace)

	got, err := UnmarshalProposal(dat)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.Text += "x"
	_, err = p.Marshal()
	assert.ErrorIs(t, err, ErrRecordTooLarge)
}

func TestRecordKindMismatch(t *testing.T) {
	dat, err := (&Proposal{Index: 1, Text: "a"}).Marshal()
	require.NoError(t, err)

	_, err = UnmarshalVoting(dat)
	assert.ErrorIs(t, err, ErrRecordKind)
	_, err = UnmarshalVoted(dat)
	assert.ErrorIs(t, err, ErrRecordKind)

	_, err = UnmarshalProposal(dat[:4])
	assert.ErrorIs(t, err, ErrRecordTooShort)

	bad := append([]byte{}, dat...)
	bad[DiscriminatorLen] = 7
	_, err = UnmarshalProposal(bad)
	assert.ErrorIs(t, err, ErrRecordVersion)

	assert.Nil(t, KindOf([]byte("garbage!!")))
}

func TestVotedRecord(t *testing.T) {
	dat, err := Voted{}.Marshal()
	require.NoError(t, err)
	assert.Len(t, dat, RecordHeaderLen)
	assert.LessOrEqual(t, len(dat), VotedSpace)
	_, err = UnmarshalVoted(dat)
	require.NoError(t, err)

	_, err = UnmarshalVoted(append(dat, 1))
	assert.Error(t, err)
}

func TestVoterAndAccountRecords(t *testing.T) {
	v := &Voter{Key: address.BytesToAddress([]byte{1}), Weight: 3, ProposeAnswers: true}
	dat, err := v.Marshal()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(dat), VoterSpace)
	got, err := UnmarshalVoter(dat)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	a := &Account{PubKey: address.BytesToAddress([]byte{2}), Nonce: ^uint64(0)}
	dat, err = a.Marshal()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(dat), AccountSpace)
	acnt, err := UnmarshalAccount(dat)
	require.NoError(t, err)
	assert.Equal(t, a, acnt)
}

func TestDiscriminatorsDistinct(t *testing.T) {
	seen := map[string]string{}
	for _, k := range recordKinds {
		d := string(k.Discriminator())
		prev, dup := seen[d]
		require.False(t, dup, "%s shares discriminator with %s", k.Name, prev)
		seen[d] = k.Name
	}
}

func TestParseAppGenesis(t *testing.T) {
	g, err := ParseAppGenesis(nil)
	require.NoError(t, err)
	assert.Equal(t, address.DefaultProgramID, g.ProgramID)
	assert.False(t, g.RequireRegistration)

	pid := address.BytesToAddress([]byte("program"))
	g, err = ParseAppGenesis([]byte(`{"program_id":"` + pid.String() + `","require_registration":true}`))
	require.NoError(t, err)
	assert.Equal(t, pid, g.ProgramID)
	assert.True(t, g.RequireRegistration)

	_, err = ParseAppGenesis([]byte(`{"program_id":"nothex"}`))
	assert.Error(t, err)
}
