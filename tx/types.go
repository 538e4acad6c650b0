package tx

import (
	"errors"
)

type TxType uint8

const (
	TxTypeUnknown          TxType = 0
	TxTypeInitialiseVoting TxType = 1
	TxTypeAddProposal      TxType = 2
	TxTypeVote             TxType = 3
	TxTypeTally            TxType = 4
	TxTypeAddMember        TxType = 5
)

func (t TxType) String() string {
	switch t {
	case TxTypeInitialiseVoting:
		return "initialise_voting"
	case TxTypeAddProposal:
		return "add_proposal"
	case TxTypeVote:
		return "vote"
	case TxTypeTally:
		return "tally"
	case TxTypeAddMember:
		return "add_member"
	default:
		return "unknown"
	}
}

const (
	TxVersion0 uint8 = 0
	TxVersion1 uint8 = 1
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnmatchedTxType      = errors.New("unmatched tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
