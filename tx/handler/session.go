package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type InitialiseVotingTxHandler struct {
	logger cmtlog.Logger
}

func NewInitialiseVotingTxHandler(logger cmtlog.Logger) (h *InitialiseVotingTxHandler) {
	logger = logger.With("module", "initialiseVotingTx")
	h = &InitialiseVotingTxHandler{
		logger: logger,
	}
	return
}

func (h *InitialiseVotingTxHandler) Check(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h.logger, st, btx, h.handle)
}

func (h *InitialiseVotingTxHandler) handle(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	wtx, err := body[tx.InitialiseVotingTx](btx)
	if err != nil {
		return nil, err
	}
	session, err := newEngine(st, h.logger).InitialiseVoting(wtx.Seed, btx.Signer, wtx.Deadline)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Data: session.Bytes(),
		Events: []abcitypes.Event{types.EncodeEventVotingInitialised(&types.EventVotingInitialised{
			Session:     session,
			Chairperson: btx.Signer,
			Seed:        wtx.Seed,
			Deadline:    wtx.Deadline,
		})},
	}
	return
}

func (h *InitialiseVotingTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *InitialiseVotingTxHandler) Process(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type AddMemberTxHandler struct {
	logger cmtlog.Logger
}

func NewAddMemberTxHandler(logger cmtlog.Logger) (h *AddMemberTxHandler) {
	logger = logger.With("module", "addMemberTx")
	h = &AddMemberTxHandler{
		logger: logger,
	}
	return
}

func (h *AddMemberTxHandler) Check(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h.logger, st, btx, h.handle)
}

func (h *AddMemberTxHandler) handle(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	wtx, err := body[tx.AddMemberTx](btx)
	if err != nil {
		return nil, err
	}
	rec, err := newEngine(st, h.logger).AddMember(wtx.Session, btx.Signer, wtx.Member, wtx.Weight, wtx.ProposeAnswers)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Data: rec.Bytes(),
		Events: []abcitypes.Event{types.EncodeEventMemberAdded(&types.EventMemberAdded{
			Session:        wtx.Session,
			Member:         wtx.Member,
			Record:         rec,
			Weight:         wtx.Weight,
			ProposeAnswers: wtx.ProposeAnswers,
		})},
	}
	return
}

func (h *AddMemberTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *AddMemberTxHandler) Process(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
