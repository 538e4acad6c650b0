package handler

import (
	"context"
	"testing"
	"time"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	"github.com/calehh/ballot-app/voting"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blockTime = time.Unix(1_700_000_000, 0)

func newBlockState(t *testing.T) *state.State {
	db, err := state.NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := db.NewState()
	st.SetBlockTime(blockTime)
	return st
}

func newTestTx(t *testing.T, signer address.Address, body any) *tx.Tx {
	btx, err := tx.NewTx(signer, 0, body)
	require.NoError(t, err)
	return btx
}

func exec(t *testing.T, hdlrs map[tx.TxType]TxHandler, st *state.State, btx *tx.Tx) *abcitypes.ExecTxResult {
	res, err := hdlrs[btx.Type].Process(context.Background(), st, btx)
	require.NoError(t, err)
	return res
}

func TestHandlersRunASession(t *testing.T) {
	ctx := context.Background()
	hdlrs := NewTxHandlers(cmtlog.NewNopLogger())
	st := newBlockState(t)
	chair := address.BytesToAddress(ed25519.GenPrivKey().PubKey().Bytes())
	voter := address.BytesToAddress(ed25519.GenPrivKey().PubKey().Bytes())

	initTx := newTestTx(t, chair, &tx.InitialiseVotingTx{Seed: "board", Deadline: blockTime.Unix() + 60})
	chk, err := hdlrs[tx.TxTypeInitialiseVoting].Check(ctx, st, initTx)
	require.NoError(t, err)
	assert.Equal(t, voting.CodeOK, chk.Code)
	assert.Empty(t, st.Modified())

	res := exec(t, hdlrs, st, initTx)
	session := address.BytesToAddress(res.Data)
	assert.Len(t, res.Events, 1)

	chk, err = hdlrs[tx.TxTypeInitialiseVoting].Check(ctx, st, initTx)
	require.NoError(t, err)
	assert.Equal(t, voting.CodeDuplicateCreation, chk.Code)
	assert.Equal(t, voting.Codespace, chk.Codespace)

	var props []address.Address
	for _, text := range []string{"A", "B"} {
		res = exec(t, hdlrs, st, newTestTx(t, voter, &tx.AddProposalTx{Session: session, Text: text}))
		props = append(props, address.BytesToAddress(res.Data))
	}

	exec(t, hdlrs, st, newTestTx(t, voter, &tx.VoteTx{Session: session, Proposal: props[1]}))
	_, err = hdlrs[tx.TxTypeVote].Process(ctx, st, newTestTx(t, voter, &tx.VoteTx{Session: session, Proposal: props[1]}))
	assert.ErrorIs(t, err, voting.ErrDuplicateCreation)

	_, err = hdlrs[tx.TxTypeTally].Process(ctx, st, newTestTx(t, voter, &tx.TallyTx{Session: session, Proposals: props}))
	assert.ErrorIs(t, err, voting.ErrUnauthorized)

	_, err = hdlrs[tx.TxTypeTally].Process(ctx, st, newTestTx(t, chair, &tx.TallyTx{
		Session:   session,
		Proposals: []address.Address{props[0], address.BytesToAddress([]byte("missing"))},
	}))
	assert.ErrorIs(t, err, voting.ErrNotFound)

	res = exec(t, hdlrs, st, newTestTx(t, chair, &tx.TallyTx{Session: session, Proposals: props}))
	assert.Equal(t, []byte{1}, res.Data)

	dat, err := st.Read(session)
	require.NoError(t, err)
	v, err := types.UnmarshalVoting(dat)
	require.NoError(t, err)
	assert.True(t, v.WinnerSelected)
	assert.Equal(t, uint8(1), v.WinnerIdx)
}

func TestTallyGateBeforeRecords(t *testing.T) {
	ctx := context.Background()
	hdlrs := NewTxHandlers(cmtlog.NewNopLogger())
	st := newBlockState(t)
	chair := address.BytesToAddress(ed25519.GenPrivKey().PubKey().Bytes())
	stranger := address.BytesToAddress(ed25519.GenPrivKey().PubKey().Bytes())

	res := exec(t, hdlrs, st, newTestTx(t, chair, &tx.InitialiseVotingTx{Seed: "gate", Deadline: blockTime.Unix() + 60}))
	session := address.BytesToAddress(res.Data)

	unknown := newTestTx(t, stranger, &tx.TallyTx{Session: session, Proposals: []address.Address{address.BytesToAddress([]byte("nope"))}})
	_, err := hdlrs[tx.TxTypeTally].Process(ctx, st, unknown)
	assert.ErrorIs(t, err, voting.ErrUnauthorized)
	assert.NotErrorIs(t, err, voting.ErrNotFound)

	tooMany := make([]address.Address, types.MaxProposals+1)
	_, err = hdlrs[tx.TxTypeTally].Process(ctx, st, newTestTx(t, stranger, &tx.TallyTx{Session: session, Proposals: tooMany}))
	assert.ErrorIs(t, err, voting.ErrUnauthorized)

	chk, err := hdlrs[tx.TxTypeTally].Check(ctx, st, unknown)
	require.NoError(t, err)
	assert.Equal(t, voting.CodeUnauthorized, chk.Code)

	_, err = hdlrs[tx.TxTypeTally].Process(ctx, st, newTestTx(t, chair, &tx.TallyTx{Session: session, Proposals: []address.Address{address.BytesToAddress([]byte("nope"))}}))
	assert.ErrorIs(t, err, voting.ErrNotFound)
}

func TestVoteUsesBlockTime(t *testing.T) {
	ctx := context.Background()
	hdlrs := NewTxHandlers(cmtlog.NewNopLogger())
	st := newBlockState(t)
	chair := address.BytesToAddress(ed25519.GenPrivKey().PubKey().Bytes())

	res := exec(t, hdlrs, st, newTestTx(t, chair, &tx.InitialiseVotingTx{Seed: "s", Deadline: blockTime.Unix()}))
	session := address.BytesToAddress(res.Data)
	res = exec(t, hdlrs, st, newTestTx(t, chair, &tx.AddProposalTx{Session: session, Text: "A"}))
	proposal := address.BytesToAddress(res.Data)

	chk, err := hdlrs[tx.TxTypeVote].Check(ctx, st, newTestTx(t, chair, &tx.VoteTx{Session: session, Proposal: proposal}))
	require.NoError(t, err)
	assert.Equal(t, voting.CodeDeadlinePassed, chk.Code)
}

func TestRegistryFromState(t *testing.T) {
	hdlrs := NewTxHandlers(cmtlog.NewNopLogger())
	st := newBlockState(t)
	st.SetGenesis(&types.AppGenesis{ProgramID: address.DefaultProgramID, RequireRegistration: true})
	chair := address.BytesToAddress(ed25519.GenPrivKey().PubKey().Bytes())
	member := address.BytesToAddress(ed25519.GenPrivKey().PubKey().Bytes())

	res := exec(t, hdlrs, st, newTestTx(t, chair, &tx.InitialiseVotingTx{Seed: "s", Deadline: blockTime.Unix() + 10}))
	session := address.BytesToAddress(res.Data)
	res = exec(t, hdlrs, st, newTestTx(t, chair, &tx.AddProposalTx{Session: session, Text: "A"}))
	proposal := address.BytesToAddress(res.Data)

	_, err := hdlrs[tx.TxTypeVote].Process(context.Background(), st, newTestTx(t, member, &tx.VoteTx{Session: session, Proposal: proposal}))
	assert.ErrorIs(t, err, voting.ErrUnauthorized)

	exec(t, hdlrs, st, newTestTx(t, chair, &tx.AddMemberTx{Session: session, Member: member, Weight: 1}))
	exec(t, hdlrs, st, newTestTx(t, member, &tx.VoteTx{Session: session, Proposal: proposal}))
}

func TestUnmatchedBody(t *testing.T) {
	hdlrs := NewTxHandlers(cmtlog.NewNopLogger())
	st := newBlockState(t)
	btx := newTestTx(t, address.Address{}, &tx.VoteTx{})
	btx.Type = tx.TxTypeTally
	_, err := hdlrs[tx.TxTypeTally].Process(context.Background(), st, btx)
	assert.ErrorIs(t, err, tx.ErrUnmatchedTxType)
}
