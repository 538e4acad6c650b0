package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/calehh/ballot-app/address"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	DiscriminatorLen = 8
	RecordHeaderLen  = DiscriminatorLen + 1

	RecordVersion1 uint8 = 1

	VotingSpace   = 80
	ProposalSpace = 192
	VotedSpace    = 16
	VoterSpace    = 80
	AccountSpace  = 64

	// MaxProposalTextLen is the text capacity of a proposal slot.
	MaxProposalTextLen = 164
	// MaxProposals is bounded by the single byte proposal index seed.
	MaxProposals = 256
)

var (
	ErrRecordKind     = errors.New("unexpected record kind")
	ErrRecordVersion  = errors.New("unsupported record version")
	ErrRecordTooLarge = errors.New("record exceeds slot size")
	ErrRecordTooShort = errors.New("record too short")

	ErrRecordExists   = errors.New("record already exists")
	ErrRecordNotFound = errors.New("record not found")
)

type RecordKind struct {
	Name          string
	Space         int
	discriminator [DiscriminatorLen]byte
}

func newRecordKind(name string, space int) *RecordKind {
	k := &RecordKind{Name: name, Space: space}
	copy(k.discriminator[:], crypto.Keccak256([]byte("record:"+name)))
	return k
}

func (k *RecordKind) Discriminator() []byte {
	return k.discriminator[:]
}

var (
	KindVoting   = newRecordKind("Voting", VotingSpace)
	KindProposal = newRecordKind("Proposal", ProposalSpace)
	KindVoted    = newRecordKind("Voted", VotedSpace)
	KindVoter    = newRecordKind("Voter", VoterSpace)
	KindAccount  = newRecordKind("Account", AccountSpace)

	recordKinds = []*RecordKind{KindVoting, KindProposal, KindVoted, KindVoter, KindAccount}
)

// KindOf returns the record kind a payload was written as, or nil.
func KindOf(dat []byte) *RecordKind {
	if len(dat) < DiscriminatorLen {
		return nil
	}
	for _, k := range recordKinds {
		if bytes.Equal(dat[:DiscriminatorLen], k.discriminator[:]) {
			return k
		}
	}
	return nil
}

func encodeRecord(kind *RecordKind, body any) (dat []byte, err error) {
	var enc []byte
	if body != nil {
		enc, err = rlp.EncodeToBytes(body)
		if err != nil {
			return nil, err
		}
	}
	dat = make([]byte, 0, RecordHeaderLen+len(enc))
	dat = append(dat, kind.discriminator[:]...)
	dat = append(dat, RecordVersion1)
	dat = append(dat, enc...)
	if len(dat) > kind.Space {
		return nil, fmt.Errorf("%w: %s is %d bytes, slot is %d", ErrRecordTooLarge, kind.Name, len(dat), kind.Space)
	}
	return
}

func decodeRecord(kind *RecordKind, dat []byte, body any) error {
	if len(dat) < RecordHeaderLen {
		return fmt.Errorf("%w: %d bytes", ErrRecordTooShort, len(dat))
	}
	if len(dat) > kind.Space {
		return fmt.Errorf("%w: %s is %d bytes, slot is %d", ErrRecordTooLarge, kind.Name, len(dat), kind.Space)
	}
	if !bytes.Equal(dat[:DiscriminatorLen], kind.discriminator[:]) {
		got := "unknown"
		if k := KindOf(dat); k != nil {
			got = k.Name
		}
		return fmt.Errorf("%w: want %s, got %s", ErrRecordKind, kind.Name, got)
	}
	if dat[DiscriminatorLen] != RecordVersion1 {
		return fmt.Errorf("%w: %s version %d", ErrRecordVersion, kind.Name, dat[DiscriminatorLen])
	}
	if body == nil {
		if len(dat) != RecordHeaderLen {
			return fmt.Errorf("%w: %s carries %d trailing bytes", ErrRecordKind, kind.Name, len(dat)-RecordHeaderLen)
		}
		return nil
	}
	return rlp.DecodeBytes(dat[RecordHeaderLen:], body)
}

// Voting is the session record.
type Voting struct {
	Chairperson    address.Address `json:"chairperson"`
	ProposalCount  uint32          `json:"proposalCount"`
	WinnerIdx      uint8           `json:"winnerIdx"`
	WinnerSelected bool            `json:"winnerSelected"`
	Deadline       int64           `json:"deadline"`
}

type votingBody struct {
	Chairperson    address.Address
	ProposalCount  uint32
	WinnerIdx      uint8
	WinnerSelected bool
	Deadline       uint64
}

func (v *Voting) Marshal() ([]byte, error) {
	return encodeRecord(KindVoting, &votingBody{
		Chairperson:    v.Chairperson,
		ProposalCount:  v.ProposalCount,
		WinnerIdx:      v.WinnerIdx,
		WinnerSelected: v.WinnerSelected,
		Deadline:       uint64(v.Deadline),
	})
}

func UnmarshalVoting(dat []byte) (v *Voting, err error) {
	var body votingBody
	if err = decodeRecord(KindVoting, dat, &body); err != nil {
		return nil, err
	}
	v = &Voting{
		Chairperson:    body.Chairperson,
		ProposalCount:  body.ProposalCount,
		WinnerIdx:      body.WinnerIdx,
		WinnerSelected: body.WinnerSelected,
		Deadline:       int64(body.Deadline),
	}
	return
}

type Proposal struct {
	Index       uint8  `json:"index"`
	Text        string `json:"text"`
	VoteCounter uint32 `json:"voteCounter"`
}

func (p *Proposal) Marshal() ([]byte, error) {
	if len(p.Text) > MaxProposalTextLen {
		return nil, fmt.Errorf("%w: proposal text is %d bytes, capacity is %d", ErrRecordTooLarge, len(p.Text), MaxProposalTextLen)
	}
	return encodeRecord(KindProposal, p)
}

func UnmarshalProposal(dat []byte) (p *Proposal, err error) {
	p = new(Proposal)
	if err = decodeRecord(KindProposal, dat, p); err != nil {
		return nil, err
	}
	return
}

// Voted marks that a voter has voted for a proposal. Its existence is the
// only information it carries.
type Voted struct{}

func (Voted) Marshal() ([]byte, error) {
	return encodeRecord(KindVoted, nil)
}

func UnmarshalVoted(dat []byte) (*Voted, error) {
	if err := decodeRecord(KindVoted, dat, nil); err != nil {
		return nil, err
	}
	return &Voted{}, nil
}

type Voter struct {
	Key            address.Address `json:"key"`
	Weight         uint8           `json:"weight"`
	ProposeAnswers bool            `json:"proposeAnswers"`
}

func (v *Voter) Marshal() ([]byte, error) {
	return encodeRecord(KindVoter, v)
}

func UnmarshalVoter(dat []byte) (v *Voter, err error) {
	v = new(Voter)
	if err = decodeRecord(KindVoter, dat, v); err != nil {
		return nil, err
	}
	return
}

// Account tracks the transaction nonce of a signer.
type Account struct {
	PubKey address.Address `json:"pubKey"`
	Nonce  uint64          `json:"nonce"`
}

func (a *Account) Marshal() ([]byte, error) {
	return encodeRecord(KindAccount, a)
}

func UnmarshalAccount(dat []byte) (a *Account, err error) {
	a = new(Account)
	if err = decodeRecord(KindAccount, dat, a); err != nil {
		return nil, err
	}
	return
}

// RecordInfo is a record handed to an operation by the caller, in the
// order the caller chose.
type RecordInfo struct {
	Address address.Address
	Data    []byte
}
