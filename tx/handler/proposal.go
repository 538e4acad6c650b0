package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type AddProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewAddProposalTxHandler(logger cmtlog.Logger) (h *AddProposalTxHandler) {
	logger = logger.With("module", "addProposalTx")
	h = &AddProposalTxHandler{
		logger: logger,
	}
	return
}

func (h *AddProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h.logger, st, btx, h.handle)
}

func (h *AddProposalTxHandler) handle(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	wtx, err := body[tx.AddProposalTx](btx)
	if err != nil {
		return nil, err
	}
	idx, proposal, err := newEngine(st, h.logger).AddProposal(wtx.Session, wtx.Text)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Data: proposal.Bytes(),
		Events: []abcitypes.Event{types.EncodeEventProposalAdded(&types.EventProposalAdded{
			Session:  wtx.Session,
			Proposal: proposal,
			Index:    idx,
			Text:     wtx.Text,
		})},
	}
	return
}

func (h *AddProposalTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *AddProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
