package tx

import (
	"encoding/json"
	"fmt"

	"github.com/calehh/ballot-app/address"
	"github.com/cometbft/cometbft/crypto/ed25519"
)

// Tx is the signed envelope every call travels in. Signer is the ed25519
// public key of the caller and doubles as its identity.
type Tx struct {
	Version uint8           `json:"version"`
	Type    TxType          `json:"type"`
	Nonce   uint64          `json:"nonce"`
	Signer  address.Address `json:"signer"`
	Tx      any             `json:"tx"`
	Sig     [][]byte        `json:"sig"`
}

type InitialiseVotingTx struct {
	Seed     string `json:"seed"`
	Deadline int64  `json:"deadline"`
}

type AddProposalTx struct {
	Session address.Address `json:"session"`
	Text    string          `json:"text"`
}

type VoteTx struct {
	Session  address.Address `json:"session"`
	Proposal address.Address `json:"proposal"`
}

// TallyTx lists the proposal records of a session in index order.
type TallyTx struct {
	Session   address.Address   `json:"session"`
	Proposals []address.Address `json:"proposals"`
}

type AddMemberTx struct {
	Session        address.Address `json:"session"`
	Member         address.Address `json:"member"`
	Weight         uint8           `json:"weight"`
	ProposeAnswers bool            `json:"proposeAnswers"`
}

type txTmpl[T any] struct {
	Version uint8           `json:"version"`
	Type    TxType          `json:"type"`
	Nonce   uint64          `json:"nonce"`
	Signer  address.Address `json:"signer"`
	Tx      T               `json:"tx"`
	Sig     [][]byte        `json:"sig"`
}

// SigData is the message that gets signed: the tx with its signatures
// replaced by the chain id.
func (tx *Tx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func (tx *Tx) Sign(chainId string, priv ed25519.PrivKey) (err error) {
	dat, err := tx.SigData([]byte(chainId))
	if err != nil {
		return
	}
	sig, err := priv.Sign(dat)
	if err != nil {
		return
	}
	tx.Sig = [][]byte{sig}
	return
}

// VerifySig checks that Signer signed the tx for chainId.
func (tx *Tx) VerifySig(chainId string) bool {
	if len(tx.Sig) != 1 {
		return false
	}
	dat, err := tx.SigData([]byte(chainId))
	if err != nil {
		return false
	}
	pk := ed25519.PubKey(tx.Signer.Bytes())
	return pk.VerifySignature(dat, tx.Sig[0])
}

func parseTxType(dat []byte) TxType {
	var tx struct {
		Type TxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return TxTypeUnknown
	}
	return tx.Type
}

func unmarshalTx[T any](dat []byte) (btx *Tx, err error) {
	var txt txTmpl[T]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	if txt.Version != TxVersion1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTxVersion, txt.Version)
	}
	btx = new(Tx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Signer = txt.Signer
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalTx(dat []byte) (btx *Tx, err error) {
	tp := parseTxType(dat)
	switch tp {
	case TxTypeInitialiseVoting:
		return unmarshalTx[InitialiseVotingTx](dat)
	case TxTypeAddProposal:
		return unmarshalTx[AddProposalTx](dat)
	case TxTypeVote:
		return unmarshalTx[VoteTx](dat)
	case TxTypeTally:
		return unmarshalTx[TallyTx](dat)
	case TxTypeAddMember:
		return unmarshalTx[AddMemberTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalTx(btx *Tx) (dat []byte, err error) {
	return json.Marshal(btx)
}

// NewTx builds an unsigned version 1 tx, picking Type from the body.
func NewTx(signer address.Address, nonce uint64, body any) (btx *Tx, err error) {
	var tp TxType
	switch body.(type) {
	case *InitialiseVotingTx:
		tp = TxTypeInitialiseVoting
	case *AddProposalTx:
		tp = TxTypeAddProposal
	case *VoteTx:
		tp = TxTypeVote
	case *TallyTx:
		tp = TxTypeTally
	case *AddMemberTx:
		tp = TxTypeAddMember
	default:
		return nil, ErrUnsupportedTxType
	}
	btx = &Tx{
		Version: TxVersion1,
		Type:    tp,
		Nonce:   nonce,
		Signer:  signer,
		Tx:      body,
	}
	return
}
