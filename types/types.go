package types

import (
	"fmt"
	"strconv"

	"github.com/calehh/ballot-app/address"
	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventVotingInitialisedType = "voting_initialised"
	EventProposalAddedType     = "proposal_added"
	EventVoteCastType          = "vote_cast"
	EventVotingTalliedType     = "voting_tallied"
	EventMemberAddedType       = "member_added"
)

type EventVotingInitialised struct {
	Session     address.Address `json:"session"`
	Chairperson address.Address `json:"chairperson"`
	Seed        string          `json:"seed"`
	Deadline    int64           `json:"deadline"`
}

func EncodeEventVotingInitialised(event *EventVotingInitialised) abci.Event {
	return abci.Event{
		Type: EventVotingInitialisedType,
		Attributes: []abci.EventAttribute{
			{Key: "session", Value: event.Session.String(), Index: true},
			{Key: "chairperson", Value: event.Chairperson.String(), Index: true},
			{Key: "seed", Value: event.Seed, Index: false},
			{Key: "deadline", Value: fmt.Sprintf("%v", event.Deadline), Index: false},
		},
	}
}

func DecodeEventVotingInitialised(originEvent abci.Event) *EventVotingInitialised {
	event := &EventVotingInitialised{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "session":
			event.Session, err = address.ParseAddress(v.Value)
		case "chairperson":
			event.Chairperson, err = address.ParseAddress(v.Value)
		case "seed":
			event.Seed = v.Value
		case "deadline":
			event.Deadline, err = strconv.ParseInt(v.Value, 10, 64)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventProposalAdded struct {
	Session  address.Address `json:"session"`
	Proposal address.Address `json:"proposal"`
	Index    uint8           `json:"index"`
	Text     string          `json:"text"`
}

func EncodeEventProposalAdded(event *EventProposalAdded) abci.Event {
	return abci.Event{
		Type: EventProposalAddedType,
		Attributes: []abci.EventAttribute{
			{Key: "session", Value: event.Session.String(), Index: true},
			{Key: "proposal", Value: event.Proposal.String(), Index: true},
			{Key: "index", Value: fmt.Sprintf("%v", event.Index), Index: false},
			{Key: "text", Value: event.Text, Index: false},
		},
	}
}

func DecodeEventProposalAdded(originEvent abci.Event) *EventProposalAdded {
	event := &EventProposalAdded{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "session":
			event.Session, err = address.ParseAddress(v.Value)
		case "proposal":
			event.Proposal, err = address.ParseAddress(v.Value)
		case "index":
			var idx uint64
			idx, err = strconv.ParseUint(v.Value, 10, 8)
			event.Index = uint8(idx)
		case "text":
			event.Text = v.Value
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventVoteCast struct {
	Session  address.Address `json:"session"`
	Proposal address.Address `json:"proposal"`
	Voter    address.Address `json:"voter"`
	Marker   address.Address `json:"marker"`
	Votes    uint32          `json:"votes"`
}

func EncodeEventVoteCast(event *EventVoteCast) abci.Event {
	return abci.Event{
		Type: EventVoteCastType,
		Attributes: []abci.EventAttribute{
			{Key: "session", Value: event.Session.String(), Index: true},
			{Key: "proposal", Value: event.Proposal.String(), Index: true},
			{Key: "voter", Value: event.Voter.String(), Index: true},
			{Key: "marker", Value: event.Marker.String(), Index: false},
			{Key: "votes", Value: fmt.Sprintf("%v", event.Votes), Index: false},
		},
	}
}

func DecodeEventVoteCast(originEvent abci.Event) *EventVoteCast {
	event := &EventVoteCast{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "session":
			event.Session, err = address.ParseAddress(v.Value)
		case "proposal":
			event.Proposal, err = address.ParseAddress(v.Value)
		case "voter":
			event.Voter, err = address.ParseAddress(v.Value)
		case "marker":
			event.Marker, err = address.ParseAddress(v.Value)
		case "votes":
			var votes uint64
			votes, err = strconv.ParseUint(v.Value, 10, 32)
			event.Votes = uint32(votes)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventVotingTallied struct {
	Session     address.Address `json:"session"`
	Caller      address.Address `json:"caller"`
	WinnerIdx   uint8           `json:"winnerIdx"`
	WinnerVotes uint32          `json:"winnerVotes"`
	Proposals   uint32          `json:"proposals"`
}

func EncodeEventVotingTallied(event *EventVotingTallied) abci.Event {
	return abci.Event{
		Type: EventVotingTalliedType,
		Attributes: []abci.EventAttribute{
			{Key: "session", Value: event.Session.String(), Index: true},
			{Key: "caller", Value: event.Caller.String(), Index: false},
			{Key: "winner", Value: fmt.Sprintf("%v", event.WinnerIdx), Index: false},
			{Key: "winnerVotes", Value: fmt.Sprintf("%v", event.WinnerVotes), Index: false},
			{Key: "proposals", Value: fmt.Sprintf("%v", event.Proposals), Index: false},
		},
	}
}

func DecodeEventVotingTallied(originEvent abci.Event) *EventVotingTallied {
	event := &EventVotingTallied{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "session":
			event.Session, err = address.ParseAddress(v.Value)
		case "caller":
			event.Caller, err = address.ParseAddress(v.Value)
		case "winner":
			var idx uint64
			idx, err = strconv.ParseUint(v.Value, 10, 8)
			event.WinnerIdx = uint8(idx)
		case "winnerVotes":
			var votes uint64
			votes, err = strconv.ParseUint(v.Value, 10, 32)
			event.WinnerVotes = uint32(votes)
		case "proposals":
			var n uint64
			n, err = strconv.ParseUint(v.Value, 10, 32)
			event.Proposals = uint32(n)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventMemberAdded struct {
	Session        address.Address `json:"session"`
	Member         address.Address `json:"member"`
	Record         address.Address `json:"record"`
	Weight         uint8           `json:"weight"`
	ProposeAnswers bool            `json:"proposeAnswers"`
}

func EncodeEventMemberAdded(event *EventMemberAdded) abci.Event {
	return abci.Event{
		Type: EventMemberAddedType,
		Attributes: []abci.EventAttribute{
			{Key: "session", Value: event.Session.String(), Index: true},
			{Key: "member", Value: event.Member.String(), Index: true},
			{Key: "record", Value: event.Record.String(), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
			{Key: "proposeAnswers", Value: fmt.Sprintf("%v", event.ProposeAnswers), Index: false},
		},
	}
}

func DecodeEventMemberAdded(originEvent abci.Event) *EventMemberAdded {
	event := &EventMemberAdded{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "session":
			event.Session, err = address.ParseAddress(v.Value)
		case "member":
			event.Member, err = address.ParseAddress(v.Value)
		case "record":
			event.Record, err = address.ParseAddress(v.Value)
		case "weight":
			var w uint64
			w, err = strconv.ParseUint(v.Value, 10, 8)
			event.Weight = uint8(w)
		case "proposeAnswers":
			event.ProposeAnswers, err = strconv.ParseBool(v.Value)
		}
		if err != nil {
			return nil
		}
	}
	return event
}
