package indexer

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/calehh/ballot-app/address"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.GET("/sessions", s.handleGetSessions)
	s.engine.GET("/sessions/:address", s.handleGetSession)
	s.engine.GET("/sessions/:address/proposals", s.handleGetProposals)
	s.engine.GET("/sessions/:address/votes", s.handleGetVotes)
	s.engine.GET("/sessions/:address/members", s.handleGetMembers)
	return s
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

type SessionInfo struct {
	Session   Session    `json:"session"`
	Proposals []Proposal `json:"proposals"`
}

type GetSessionsResponse struct {
	Sessions []Session `json:"sessions"`
	Total    uint64    `json:"total"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func pagination(c *gin.Context) (page int, pageSize int, err error) {
	page, err = strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		return 0, 0, errors.New("invalid page")
	}
	pageSize, err = strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize <= 0 || pageSize > maxPageSize {
		return 0, 0, errors.New("invalid pageSize")
	}
	return
}

// sessionParam normalises the :address path parameter to the stored form.
func sessionParam(c *gin.Context) (string, bool) {
	addr, err := address.ParseAddress(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return addr.String(), true
}

func (s *Service) handleGetSessions(c *gin.Context) {
	page, pageSize, err := pagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessions, total, err := s.indexer.getSessions(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sessions == nil {
		sessions = make([]Session, 0)
	}
	c.JSON(http.StatusOK, GetSessionsResponse{Sessions: sessions, Total: total})
}

func (s *Service) handleGetSession(c *gin.Context) {
	addr, ok := sessionParam(c)
	if !ok {
		return
	}
	session, err := s.indexer.getSession(addr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	proposals, err := s.indexer.getProposalsBySession(addr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if proposals == nil {
		proposals = make([]Proposal, 0)
	}
	c.JSON(http.StatusOK, SessionInfo{Session: session, Proposals: proposals})
}

func (s *Service) handleGetProposals(c *gin.Context) {
	addr, ok := sessionParam(c)
	if !ok {
		return
	}
	proposals, err := s.indexer.getProposalsBySession(addr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if proposals == nil {
		proposals = make([]Proposal, 0)
	}
	c.JSON(http.StatusOK, proposals)
}

func (s *Service) handleGetVotes(c *gin.Context) {
	addr, ok := sessionParam(c)
	if !ok {
		return
	}
	page, pageSize, err := pagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	votes, total, err := s.indexer.getVotesBySession(addr, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if votes == nil {
		votes = make([]Vote, 0)
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: votes, Total: total})
}

func (s *Service) handleGetMembers(c *gin.Context) {
	addr, ok := sessionParam(c)
	if !ok {
		return
	}
	members, err := s.indexer.getMembersBySession(addr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if members == nil {
		members = make([]Member, 0)
	}
	c.JSON(http.StatusOK, members)
}
