package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/ballot-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

const MemoryDB = ":memory:"

// ChainClient is the part of the CometBFT RPC client the indexer follows
// the chain with.
type ChainClient interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
}

type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           ChainClient
	eventHandlers map[string]eventHandler
	interval      time.Duration
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, dbPath, cli)
	if err != nil {
		return nil, err
	}
	c.Url = chainUrl
	return c, nil
}

func openDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if dbPath == MemoryDB {
		// every connection to :memory: is a separate database
		db.DB().SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Height{}, &Session{}, &Proposal{}, &Vote{}, &Member{}).Error; err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newChainIndexer(logger cmtlog.Logger, dbPath string, cli ChainClient) (*ChainIndexer, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h.Height + 1),
		db:       db,
		cli:      cli,
		interval: time.Second,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventVotingInitialisedType: c.handleEventVotingInitialised,
		types.EventProposalAddedType:     c.handleEventProposalAdded,
		types.EventVoteCastType:          c.handleEventVoteCast,
		types.EventVotingTalliedType:     c.handleEventVotingTallied,
		types.EventMemberAddedType:       c.handleEventMemberAdded,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(ctx context.Context, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(ctx context.Context, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(ctx, event, height)
	}
	return nil
}

var ErrDecodeEvent = errors.New("decode event fail")

func (c *ChainIndexer) handleEventVotingInitialised(ctx context.Context, event abci.Event, height int64) error {
	ev := types.DecodeEventVotingInitialised(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return ErrDecodeEvent
	}
	session := Session{
		Address:      ev.Session.String(),
		Chairperson:  ev.Chairperson.String(),
		Seed:         ev.Seed,
		Deadline:     ev.Deadline,
		CreateHeight: uint64(height),
	}
	return c.db.Save(&session).Error
}

func (c *ChainIndexer) handleEventProposalAdded(ctx context.Context, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalAdded(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return ErrDecodeEvent
	}
	proposal := Proposal{
		Address: ev.Proposal.String(),
		Session: ev.Session.String(),
		Idx:     ev.Index,
		Text:    ev.Text,
		Height:  uint64(height),
	}
	if err := c.db.Save(&proposal).Error; err != nil {
		return err
	}
	return c.db.Model(&Session{}).Where("address = ?", proposal.Session).
		Update("proposal_count", uint32(ev.Index)+1).Error
}

func (c *ChainIndexer) handleEventVoteCast(ctx context.Context, event abci.Event, height int64) error {
	ev := types.DecodeEventVoteCast(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return ErrDecodeEvent
	}
	vote := Vote{
		Session:  ev.Session.String(),
		Proposal: ev.Proposal.String(),
		Voter:    ev.Voter.String(),
		Marker:   ev.Marker.String(),
		Height:   uint64(height),
	}
	var exist Vote
	err := c.db.Where("marker = ?", vote.Marker).First(&exist).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err := c.db.Create(&vote).Error; err != nil {
		return err
	}
	return c.db.Model(&Proposal{}).Where("address = ?", vote.Proposal).
		Update("votes", ev.Votes).Error
}

func (c *ChainIndexer) handleEventVotingTallied(ctx context.Context, event abci.Event, height int64) error {
	ev := types.DecodeEventVotingTallied(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return ErrDecodeEvent
	}
	return c.db.Model(&Session{}).Where("address = ?", ev.Session.String()).Updates(map[string]interface{}{
		"winner_idx":      ev.WinnerIdx,
		"winner_votes":    ev.WinnerVotes,
		"winner_selected": true,
		"tallied_by":      ev.Caller.String(),
		"tally_height":    uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventMemberAdded(ctx context.Context, event abci.Event, height int64) error {
	ev := types.DecodeEventMemberAdded(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return ErrDecodeEvent
	}
	member := Member{
		Record:         ev.Record.String(),
		Session:        ev.Session.String(),
		Member:         ev.Member.String(),
		Weight:         ev.Weight,
		ProposeAnswers: ev.ProposeAnswers,
		Height:         uint64(height),
	}
	return c.db.Save(&member).Error
}

// syncBlock indexes the events of one block and records it as the last
// indexed height. Failed txs carry no state change and are skipped.
func (c *ChainIndexer) syncBlock(ctx context.Context, height int64) error {
	res, err := c.cli.BlockResults(ctx, &height)
	if err != nil {
		return err
	}
	for _, txRes := range res.TxsResults {
		if txRes.Code != abci.CodeTypeOK {
			continue
		}
		for _, event := range txRes.Events {
			if err := c.handleEvent(ctx, event, height); err != nil {
				c.logger.Error("handle event fail", "height", height, "type", event.Type, "err", err)
			}
		}
	}
	return c.db.Save(&Height{Id: 1, Height: uint64(height)}).Error
}

// Sync indexes every block up to the latest one the node reports.
func (c *ChainIndexer) Sync(ctx context.Context) error {
	status, err := c.cli.Status(ctx)
	if err != nil {
		return err
	}
	for c.Height <= status.SyncInfo.LatestBlockHeight {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.logger.Debug("indexer syncing", "height", c.Height)
		if err := c.syncBlock(ctx, c.Height); err != nil {
			return err
		}
		c.Height++
	}
	return nil
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sync(ctx); err != nil {
				c.logger.Error("sync fail", "height", c.Height, "err", err)
			}
		}
	}
}

func (c *ChainIndexer) getSession(address string) (Session, error) {
	var session Session
	err := c.db.Where("address = ?", address).First(&session).Error
	return session, err
}

func (c *ChainIndexer) getSessions(page int, pageSize int) ([]Session, uint64, error) {
	var sessions []Session
	var total uint64
	if err := c.db.Model(&Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := c.db.Order("create_height desc").Offset(page * pageSize).Limit(pageSize).Find(&sessions).Error
	return sessions, total, err
}

func (c *ChainIndexer) getProposalsBySession(session string) ([]Proposal, error) {
	var proposals []Proposal
	err := c.db.Where("session = ?", session).Order("idx asc").Find(&proposals).Error
	return proposals, err
}

func (c *ChainIndexer) getVotesBySession(session string, page int, pageSize int) ([]Vote, uint64, error) {
	var votes []Vote
	var total uint64
	if err := c.db.Model(&Vote{}).Where("session = ?", session).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := c.db.Where("session = ?", session).Order("id asc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	return votes, total, err
}

func (c *ChainIndexer) getMembersBySession(session string) ([]Member, error) {
	var members []Member
	err := c.db.Where("session = ?", session).Order("height asc").Find(&members).Error
	return members, err
}
