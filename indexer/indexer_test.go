package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	blocks map[int64][]*abci.ExecTxResult
	latest int64
}

func (f *fakeChain) Status(ctx context.Context) (*coretypes.ResultStatus, error) {
	return &coretypes.ResultStatus{SyncInfo: coretypes.SyncInfo{LatestBlockHeight: f.latest}}, nil
}

func (f *fakeChain) BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error) {
	if *height > f.latest {
		return nil, fmt.Errorf("height %d not available", *height)
	}
	return &coretypes.ResultBlockResults{Height: *height, TxsResults: f.blocks[*height]}, nil
}

func (f *fakeChain) add(height int64, code uint32, events ...abci.Event) {
	f.blocks[height] = append(f.blocks[height], &abci.ExecTxResult{Code: code, Events: events})
	if height > f.latest {
		f.latest = height
	}
}

func addr(s string) address.Address {
	return address.BytesToAddress([]byte(s))
}

func newTestIndexer(t *testing.T) (*ChainIndexer, *fakeChain) {
	chain := &fakeChain{blocks: make(map[int64][]*abci.ExecTxResult)}
	c, err := newChainIndexer(cmtlog.NewNopLogger(), MemoryDB, chain)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, chain
}

func fillChain(chain *fakeChain) {
	session, chair, voter := addr("session"), addr("chair"), addr("voter")
	chain.add(1, abci.CodeTypeOK, types.EncodeEventVotingInitialised(&types.EventVotingInitialised{
		Session: session, Chairperson: chair, Seed: "board", Deadline: 1_700_000_100,
	}))
	chain.add(2, abci.CodeTypeOK, types.EncodeEventProposalAdded(&types.EventProposalAdded{
		Session: session, Proposal: addr("p0"), Index: 0, Text: "A",
	}))
	chain.add(2, abci.CodeTypeOK, types.EncodeEventProposalAdded(&types.EventProposalAdded{
		Session: session, Proposal: addr("p1"), Index: 1, Text: "B",
	}))
	chain.add(3, abci.CodeTypeOK, types.EncodeEventMemberAdded(&types.EventMemberAdded{
		Session: session, Member: voter, Record: addr("rec"), Weight: 1,
	}))
	chain.add(3, abci.CodeTypeOK, types.EncodeEventVoteCast(&types.EventVoteCast{
		Session: session, Proposal: addr("p1"), Voter: voter, Marker: addr("m1"), Votes: 1,
	}))
	// failed tx, must not be indexed
	chain.add(3, 4, types.EncodeEventVoteCast(&types.EventVoteCast{
		Session: session, Proposal: addr("p0"), Voter: voter, Marker: addr("m0"), Votes: 1,
	}))
	chain.add(4, abci.CodeTypeOK, types.EncodeEventVotingTallied(&types.EventVotingTallied{
		Session: session, Caller: chair, WinnerIdx: 1, WinnerVotes: 1, Proposals: 2,
	}))
}

func TestSync(t *testing.T) {
	c, chain := newTestIndexer(t)
	fillChain(chain)

	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, int64(5), c.Height)

	session, err := c.getSession(addr("session").String())
	require.NoError(t, err)
	assert.Equal(t, addr("chair").String(), session.Chairperson)
	assert.Equal(t, uint32(2), session.ProposalCount)
	assert.True(t, session.WinnerSelected)
	assert.Equal(t, uint8(1), session.WinnerIdx)
	assert.Equal(t, uint64(4), session.TallyHeight)

	proposals, err := c.getProposalsBySession(session.Address)
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	assert.Equal(t, "A", proposals[0].Text)
	assert.Equal(t, uint32(0), proposals[0].Votes)
	assert.Equal(t, uint32(1), proposals[1].Votes)

	votes, total, err := c.getVotesBySession(session.Address, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, votes, 1)
	assert.Equal(t, addr("m1").String(), votes[0].Marker)

	members, err := c.getMembersBySession(session.Address)
	require.NoError(t, err)
	require.Len(t, members, 1)

	var h Height
	require.NoError(t, c.db.First(&h, 1).Error)
	assert.Equal(t, uint64(4), h.Height)
}

func TestSyncIsIncremental(t *testing.T) {
	c, chain := newTestIndexer(t)
	fillChain(chain)
	require.NoError(t, c.Sync(context.Background()))
	require.NoError(t, c.Sync(context.Background()))

	chain.add(5, abci.CodeTypeOK, types.EncodeEventVoteCast(&types.EventVoteCast{
		Session: addr("session"), Proposal: addr("p0"), Voter: addr("chair"), Marker: addr("m2"), Votes: 1,
	}))
	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, int64(6), c.Height)

	_, total, err := c.getVotesBySession(addr("session").String(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
}

func TestService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, chain := newTestIndexer(t)
	fillChain(chain)
	require.NoError(t, c.Sync(context.Background()))
	h := NewService("", c).Handler()

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		h.ServeHTTP(w, req)
		return w
	}

	session := addr("session").String()
	w := get("/sessions/" + session)
	require.Equal(t, http.StatusOK, w.Code)
	var info SessionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, session, info.Session.Address)
	assert.Len(t, info.Proposals, 2)

	w = get("/sessions/" + session + "/votes?pageSize=1")
	require.Equal(t, http.StatusOK, w.Code)
	var votes GetVotesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &votes))
	assert.Equal(t, uint64(1), votes.Total)

	w = get("/sessions/" + session + "/members")
	require.Equal(t, http.StatusOK, w.Code)

	w = get("/sessions?page=0")
	require.Equal(t, http.StatusOK, w.Code)
	var list GetSessionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, uint64(1), list.Total)

	assert.Equal(t, http.StatusNotFound, get("/sessions/"+addr("nobody").String()).Code)
	assert.Equal(t, http.StatusBadRequest, get("/sessions/xyz").Code)
	assert.Equal(t, http.StatusBadRequest, get("/sessions?pageSize=0").Code)
}
