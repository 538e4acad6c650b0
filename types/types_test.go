package types

import (
	"testing"

	"github.com/calehh/ballot-app/address"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsDecodeWhatTheyEncode(t *testing.T) {
	s := address.BytesToAddress([]byte("session"))
	p := address.BytesToAddress([]byte("proposal"))
	u := address.BytesToAddress([]byte("voter"))

	initEv := &EventVotingInitialised{Session: s, Chairperson: u, Seed: "board", Deadline: 1700000000}
	ev := EncodeEventVotingInitialised(initEv)
	assert.Equal(t, EventVotingInitialisedType, ev.Type)
	assert.Equal(t, initEv, DecodeEventVotingInitialised(ev))

	added := &EventProposalAdded{Session: s, Proposal: p, Index: 7, Text: "build the bridge"}
	assert.Equal(t, added, DecodeEventProposalAdded(EncodeEventProposalAdded(added)))

	cast := &EventVoteCast{Session: s, Proposal: p, Voter: u, Marker: p, Votes: 12}
	assert.Equal(t, cast, DecodeEventVoteCast(EncodeEventVoteCast(cast)))

	tallied := &EventVotingTallied{Session: s, Caller: u, WinnerIdx: 1, WinnerVotes: 4, Proposals: 3}
	assert.Equal(t, tallied, DecodeEventVotingTallied(EncodeEventVotingTallied(tallied)))

	member := &EventMemberAdded{Session: s, Member: u, Record: p, Weight: 2, ProposeAnswers: true}
	assert.Equal(t, member, DecodeEventMemberAdded(EncodeEventMemberAdded(member)))
}

func TestDecodeEventRejectsBadAttributes(t *testing.T) {
	ev := abci.Event{
		Type:       EventVoteCastType,
		Attributes: []abci.EventAttribute{{Key: "session", Value: "not-hex"}},
	}
	assert.Nil(t, DecodeEventVoteCast(ev))

	ev = abci.Event{
		Type:       EventProposalAddedType,
		Attributes: []abci.EventAttribute{{Key: "index", Value: "300"}},
	}
	require.Nil(t, DecodeEventProposalAdded(ev))
}
