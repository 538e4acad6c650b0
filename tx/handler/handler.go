package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/voting"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// TxHandler applies one tx type to a state. Check must leave st untouched.
// Prepare and Process mutate st and return an error when the tx fails.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error)
	Prepare(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error)
}

type handleFunc func(ctx context.Context, st *state.State, btx *tx.Tx) (*abcitypes.ExecTxResult, error)

// newEngine binds the voting engine to st. The clock is the block time of st.
func newEngine(st *state.State, logger cmtlog.Logger) *voting.Engine {
	return voting.NewEngine(
		st.ProgramID(),
		st,
		voting.FixedClock(st.BlockTime()),
		voting.WithVoterRegistry(st.RequireRegistration()),
		voting.WithLogger(logger),
	)
}

// check dry-runs handle on a clone of st.
func check(ctx context.Context, logger cmtlog.Logger, st *state.State, btx *tx.Tx, handle handleFunc) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: abcitypes.CodeTypeOK}
	_, err1 := handle(ctx, st.Clone(), btx)
	if err1 != nil {
		logger.Info("CheckTx fail", "type", btx.Type, "err", err1)
		res.Code = voting.Code(err1)
		res.Codespace = voting.Codespace
		res.Log = err1.Error()
	}
	return
}

func body[T any](btx *tx.Tx) (*T, error) {
	b, ok := btx.Tx.(*T)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	return b, nil
}

func NewTxHandlers(logger cmtlog.Logger) map[tx.TxType]TxHandler {
	return map[tx.TxType]TxHandler{
		tx.TxTypeInitialiseVoting: NewInitialiseVotingTxHandler(logger),
		tx.TxTypeAddProposal:      NewAddProposalTxHandler(logger),
		tx.TxTypeVote:             NewVoteTxHandler(logger),
		tx.TxTypeTally:            NewTallyTxHandler(logger),
		tx.TxTypeAddMember:        NewAddMemberTxHandler(logger),
	}
}
