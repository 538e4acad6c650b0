package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/types"
	"github.com/calehh/ballot-app/voting"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const (
	QuerySession  = "/session/"
	QueryProposal = "/proposal/"
	QueryVoted    = "/voted/"
	QueryVoter    = "/voter/"
	QueryAccount  = "/account/"
	QueryRecord   = "/record/"
	QueryParams   = "/params/"
)

const CodeUnknownPath = 404

func (app *BallotApp) registerQuerier() {
	app.queriers[QuerySession] = NewRecordQuerier(app.db, app.logger, sessionView)
	app.queriers[QueryProposal] = NewRecordQuerier(app.db, app.logger, proposalView)
	app.queriers[QueryVoted] = NewRecordQuerier(app.db, app.logger, votedView)
	app.queriers[QueryVoter] = NewRecordQuerier(app.db, app.logger, voterView)
	app.queriers[QueryRecord] = NewRecordQuerier(app.db, app.logger, nil)
	app.queriers[QueryAccount] = NewAccountQuerier(app.db, app.logger)
	app.queriers[QueryParams] = NewParamsQuerier(app.db, app.logger)
}

func (app *BallotApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = CodeUnknownPath
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

func queryFail(res *abcitypes.ResponseQuery, err error) {
	res.Code = voting.CodeInternal
	if errors.Is(err, types.ErrRecordNotFound) {
		res.Code = voting.CodeNotFound
	}
	res.Codespace = voting.Codespace
	res.Log = err.Error()
}

type SessionView struct {
	Address address.Address `json:"address"`
	*types.Voting
}

type ProposalView struct {
	Address address.Address `json:"address"`
	*types.Proposal
}

type VotedView struct {
	Address address.Address `json:"address"`
	Voted   bool            `json:"voted"`
}

type VoterView struct {
	Address address.Address `json:"address"`
	*types.Voter
}

type AccountView struct {
	Address address.Address `json:"address"`
	*types.Account
}

type ParamsView struct {
	ChainId             string          `json:"chainId"`
	Height              uint64          `json:"height"`
	BlockTime           int64           `json:"blockTime"`
	ProgramID           address.Address `json:"programId"`
	RequireRegistration bool            `json:"requireRegistration"`
}

func sessionView(addr address.Address, dat []byte) (any, error) {
	v, err := types.UnmarshalVoting(dat)
	if err != nil {
		return nil, err
	}
	return &SessionView{Address: addr, Voting: v}, nil
}

func proposalView(addr address.Address, dat []byte) (any, error) {
	p, err := types.UnmarshalProposal(dat)
	if err != nil {
		return nil, err
	}
	return &ProposalView{Address: addr, Proposal: p}, nil
}

func votedView(addr address.Address, dat []byte) (any, error) {
	if _, err := types.UnmarshalVoted(dat); err != nil {
		return nil, err
	}
	return &VotedView{Address: addr, Voted: true}, nil
}

func voterView(addr address.Address, dat []byte) (any, error) {
	v, err := types.UnmarshalVoter(dat)
	if err != nil {
		return nil, err
	}
	return &VoterView{Address: addr, Voter: v}, nil
}

// RecordQuerier answers with the record stored at the address in req.Data.
// Without a view the raw payload is returned and Info names its kind.
type RecordQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
	view   func(addr address.Address, dat []byte) (any, error)
}

func NewRecordQuerier(db *state.StateDB, logger cmtlog.Logger, view func(address.Address, []byte) (any, error)) (q *RecordQuerier) {
	q = &RecordQuerier{
		db:     db,
		logger: logger,
		view:   view,
	}
	return
}

func (q *RecordQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{Key: req.Data}
	if len(req.Data) != address.AddressLength {
		queryFail(res, address.ErrInvalidAddress)
		return
	}
	addr := address.BytesToAddress(req.Data)
	dat, height, err := q.db.GetRecord(addr)
	res.Height = int64(height)
	if err != nil {
		queryFail(res, err)
		return res, nil
	}
	if q.view == nil {
		res.Value = dat
		if kind := types.KindOf(dat); kind != nil {
			res.Info = kind.Name
		}
		return
	}
	v, err := q.view(addr, dat)
	if err != nil {
		q.logger.Error("decode record fail", "address", addr, "err", err)
		queryFail(res, err)
		return res, nil
	}
	res.Value, err = json.Marshal(v)
	return
}

// AccountQuerier takes the signer public key and answers with its account.
type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{Key: req.Data}
	if len(req.Data) != address.AddressLength {
		queryFail(res, address.ErrInvalidAddress)
		return
	}
	signer := address.BytesToAddress(req.Data)
	st := q.db.State()
	addr, _, err := address.AccountAddress(st.ProgramID(), signer)
	if err != nil {
		queryFail(res, err)
		return res, nil
	}
	a, err := st.GetAccount(signer)
	if err != nil {
		queryFail(res, err)
		return res, nil
	}
	res.Height = int64(st.Header().Height)
	res.Value, err = json.Marshal(&AccountView{Address: addr, Account: a})
	return
}

type ParamsQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewParamsQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ParamsQuerier) {
	q = &ParamsQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ParamsQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	header := q.db.Header()
	res.Height = int64(header.Height)
	res.Value, err = json.Marshal(&ParamsView{
		ChainId:             header.ChainId,
		Height:              header.Height,
		BlockTime:           int64(header.BlockTime),
		ProgramID:           header.ProgramID,
		RequireRegistration: header.RequireRegistration,
	})
	return
}
