package voting

import (
	"errors"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// RecordStore is the record storage the engine runs on. Create must fail
// with types.ErrRecordExists when addr is taken, and Read and Mutate with
// types.ErrRecordNotFound when it is empty.
type RecordStore interface {
	Create(addr address.Address, payload []byte) error
	Read(addr address.Address) ([]byte, error)
	Mutate(addr address.Address, fn func(old []byte) ([]byte, error)) error
}

// Clock returns the current time in unix seconds.
type Clock interface {
	Now() int64
}

type FixedClock int64

func (c FixedClock) Now() int64 {
	return int64(c)
}

type Option func(*Engine)

// WithVoterRegistry makes Vote require a registered voter record.
func WithVoterRegistry(required bool) Option {
	return func(e *Engine) {
		e.requireRegistration = required
	}
}

func WithLogger(logger cmtlog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine runs the voting operations against a record store. It keeps no
// state of its own.
//
// Vote and AddProposal create one record and then update another, so a
// failed operation can leave the created record behind. The store must be
// discarded on error; the node runs every tx on a state clone for that.
type Engine struct {
	programID           address.Address
	store               RecordStore
	clock               Clock
	requireRegistration bool
	logger              cmtlog.Logger
}

func NewEngine(programID address.Address, store RecordStore, clock Clock, opts ...Option) *Engine {
	e := &Engine{
		programID: programID,
		store:     store,
		clock:     clock,
		logger:    cmtlog.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("module", "voting")
	return e
}

func (e *Engine) ProgramID() address.Address {
	return e.programID
}

func (e *Engine) SessionAddress(seed string, chair address.Address) (address.Address, error) {
	addr, _, err := address.SessionAddress(e.programID, seed, chair)
	if err != nil {
		return addr, newError(ErrCapacityExceeded, err, "session seed %q", seed)
	}
	return addr, nil
}

func (e *Engine) ProposalAddress(session address.Address, idx uint8) (address.Address, error) {
	addr, _, err := address.ProposalAddress(e.programID, session, idx)
	if err != nil {
		return addr, newError(ErrCapacityExceeded, err, "proposal %d of session %s", idx, session)
	}
	return addr, nil
}

func (e *Engine) VoteMarkerAddress(voter address.Address, proposal address.Address) (address.Address, error) {
	addr, _, err := address.VoteMarkerAddress(e.programID, voter, proposal)
	if err != nil {
		return addr, newError(ErrCapacityExceeded, err, "vote marker of %s on %s", voter, proposal)
	}
	return addr, nil
}

func (e *Engine) VoterAddress(session address.Address, member address.Address) (address.Address, error) {
	addr, _, err := address.VoterAddress(e.programID, session, member)
	if err != nil {
		return addr, newError(ErrCapacityExceeded, err, "voter %s of session %s", member, session)
	}
	return addr, nil
}

// create writes a new record, translating a taken address into
// DuplicateCreation.
func (e *Engine) create(addr address.Address, what string, payload []byte) error {
	err := e.store.Create(addr, payload)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, types.ErrRecordExists):
		return newError(ErrDuplicateCreation, nil, "%s %s already exists", what, addr)
	default:
		return err
	}
}

func (e *Engine) read(addr address.Address, what string) ([]byte, error) {
	dat, err := e.store.Read(addr)
	if err != nil {
		if errors.Is(err, types.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, nil, "%s %s", what, addr)
		}
		return nil, err
	}
	return dat, nil
}

func (e *Engine) loadVoting(session address.Address) (*types.Voting, error) {
	dat, err := e.read(session, "session")
	if err != nil {
		return nil, err
	}
	v, err := types.UnmarshalVoting(dat)
	if err != nil {
		return nil, newError(ErrInvalidRecord, err, "session %s", session)
	}
	return v, nil
}

func (e *Engine) loadProposal(addr address.Address) (*types.Proposal, error) {
	dat, err := e.read(addr, "proposal")
	if err != nil {
		return nil, err
	}
	p, err := types.UnmarshalProposal(dat)
	if err != nil {
		return nil, newError(ErrInvalidRecord, err, "proposal %s", addr)
	}
	return p, nil
}

// updateVoting rewrites the session record through fn.
func (e *Engine) updateVoting(session address.Address, fn func(v *types.Voting) error) error {
	return e.store.Mutate(session, func(old []byte) ([]byte, error) {
		v, err := types.UnmarshalVoting(old)
		if err != nil {
			return nil, newError(ErrInvalidRecord, err, "session %s", session)
		}
		if err = fn(v); err != nil {
			return nil, err
		}
		return v.Marshal()
	})
}

func (e *Engine) updateProposal(addr address.Address, fn func(p *types.Proposal) error) error {
	return e.store.Mutate(addr, func(old []byte) ([]byte, error) {
		p, err := types.UnmarshalProposal(old)
		if err != nil {
			return nil, newError(ErrInvalidRecord, err, "proposal %s", addr)
		}
		if err = fn(p); err != nil {
			return nil, err
		}
		return p.Marshal()
	})
}
