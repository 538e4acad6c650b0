package handler

import (
	"context"
	"errors"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	"github.com/calehh/ballot-app/voting"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type VoteTxHandler struct {
	logger cmtlog.Logger
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	logger = logger.With("module", "voteTx")
	h = &VoteTxHandler{
		logger: logger,
	}
	return
}

func (h *VoteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h.logger, st, btx, h.handle)
}

func (h *VoteTxHandler) handle(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	wtx, err := body[tx.VoteTx](btx)
	if err != nil {
		return nil, err
	}
	marker, votes, err := newEngine(st, h.logger).Vote(wtx.Session, wtx.Proposal, btx.Signer)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Data: marker.Bytes(),
		Events: []abcitypes.Event{types.EncodeEventVoteCast(&types.EventVoteCast{
			Session:  wtx.Session,
			Proposal: wtx.Proposal,
			Voter:    btx.Signer,
			Marker:   marker,
			Votes:    votes,
		})},
	}
	return
}

func (h *VoteTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *VoteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type TallyTxHandler struct {
	logger cmtlog.Logger
}

func NewTallyTxHandler(logger cmtlog.Logger) (h *TallyTxHandler) {
	logger = logger.With("module", "tallyTx")
	h = &TallyTxHandler{
		logger: logger,
	}
	return
}

func (h *TallyTxHandler) Check(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h.logger, st, btx, h.handle)
}

// loadRecords fetches the listed records from the store, the way the ledger
// hands accounts to a program. The engine still verifies every address.
func loadRecords(st *state.State, addrs []address.Address) ([]types.RecordInfo, error) {
	if len(addrs) > types.MaxProposals {
		return nil, &voting.Error{Kind: voting.ErrCountMismatch, Msg: "too many records"}
	}
	recs := make([]types.RecordInfo, len(addrs))
	for i, addr := range addrs {
		dat, err := st.Read(addr)
		if err != nil {
			if errors.Is(err, types.ErrRecordNotFound) {
				return nil, &voting.Error{Kind: voting.ErrNotFound, Msg: "record " + addr.String()}
			}
			return nil, err
		}
		recs[i] = types.RecordInfo{Address: addr, Data: dat}
	}
	return recs, nil
}

func (h *TallyTxHandler) handle(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	wtx, err := body[tx.TallyTx](btx)
	if err != nil {
		return nil, err
	}
	e := newEngine(st, h.logger)
	if err = e.CheckTallyAuthority(wtx.Session, btx.Signer); err != nil {
		return nil, err
	}
	recs, err := loadRecords(st, wtx.Proposals)
	if err != nil {
		return nil, err
	}
	result, err := e.Tally(wtx.Session, btx.Signer, recs)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Data: []byte{result.WinnerIdx},
		Events: []abcitypes.Event{types.EncodeEventVotingTallied(&types.EventVotingTallied{
			Session:     wtx.Session,
			Caller:      btx.Signer,
			WinnerIdx:   result.WinnerIdx,
			WinnerVotes: result.WinnerVotes,
			Proposals:   result.Proposals,
		})},
	}
	return
}

func (h *TallyTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *TallyTxHandler) Process(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
