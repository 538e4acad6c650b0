package app

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/voting"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
	ErrNoBlockState        = errors.New("no finalized block state")
)

func (app *BallotApp) blockState(blkTime time.Time) (st *state.State) {
	st = app.db.NewState()
	st.SetBlockTime(blkTime)
	return
}

func (app *BallotApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.Tx, err error) {
	btx, err = tx.UnmarshalTx(txDat)
	if err != nil {
		return
	}
	_, err = st.Verify(btx, allowNonceGap)
	return
}

func errResult(err error) *abcitypes.ExecTxResult {
	return &abcitypes.ExecTxResult{
		Code:      voting.Code(err),
		Codespace: voting.Codespace,
		Log:       err.Error(),
	}
}

// execTx runs stx on a clone of st and returns the clone on success. On
// failure st is returned unchanged, except that the nonce of a verified
// signer is still consumed when bumpOnFail is set.
func (app *BallotApp) execTx(ctx context.Context, st *state.State, stx []byte, prepare bool, bumpOnFail bool) (next *state.State, res *abcitypes.ExecTxResult, err error) {
	btx, err := app.parseTx(st, stx, false)
	if err != nil {
		return st, nil, err
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		return st, nil, tx.ErrUnsupportedTxType
	}
	stTmp := st.Clone()
	if prepare {
		res, err = h.Prepare(ctx, stTmp, btx)
	} else {
		res, err = h.Process(ctx, stTmp, btx)
	}
	if err == nil && res == nil {
		err = ErrUnexpectedTxProcess
	}
	if err != nil {
		if bumpOnFail {
			stFail := st.Clone()
			if err1 := stFail.IncNonce(btx.Signer); err1 == nil {
				st = stFail
			}
		}
		return st, nil, err
	}
	if err = stTmp.IncNonce(btx.Signer); err != nil {
		return st, nil, err
	}
	return stTmp, res, nil
}

func (app *BallotApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: abcitypes.CodeTypeOK}
	st := app.db.State()
	btx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Error("parse tx fail", "err", err)
		res.Code = voting.CodeInternal
		res.Codespace = voting.Codespace
		res.Log = err.Error()
		err = nil
		return
	}
	app.logger.Debug("check tx", "type", btx.Type, "signer", btx.Signer, "nonce", btx.Nonce)
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res.Code = voting.CodeInternal
		res.Log = "unsupported tx"
		return
	}
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: voting.CodeInternal, Codespace: voting.Codespace, Log: err.Error()}
		err = nil
	}
	return
}

func (app *BallotApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.blockState(proposal.Time)
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		next, _, err := app.execTx(ctx, st, stx, true, false)
		if err != nil {
			app.logger.Info("prepare tx dropped", "err", err)
			continue
		}
		st = next
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *BallotApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	st := app.blockState(proposal.Time)
	for i, stx := range proposal.Txs {
		st, _, err = app.execTx(ctx, st, stx, false, false)
		if err != nil {
			app.logger.Error("process fail", "height", proposal.Height, "tx", i, "err", err)
			return res, nil
		}
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *BallotApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.blockState(req.Time)
	if st.Header().Height != uint64(req.Height) {
		app.logger.Error("state height unmatched", "state", st.Header().Height, "block", req.Height)
	}
	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, stx := range req.Txs {
		next, result, err := app.execTx(ctx, st, stx, false, true)
		st = next
		if err != nil {
			app.logger.Error("finalize tx fail", "height", req.Height, "tx", i, "err", err)
			results[i] = errResult(err)
			continue
		}
		results[i] = result
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.st = st
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: results,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *BallotApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrNoBlockState
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit", "height", app.lastBlk.Height, "hash", app.lastBlk.Hash)
	return &abcitypes.ResponseCommit{}, nil
}
