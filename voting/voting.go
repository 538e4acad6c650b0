package voting

import (
	"errors"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/types"
)

// InitialiseVoting opens a session owned by chair. The session lives at the
// address derived from (seed, chair), so a chair can open one session per
// seed.
func (e *Engine) InitialiseVoting(seed string, chair address.Address, deadline int64) (session address.Address, err error) {
	session, err = e.SessionAddress(seed, chair)
	if err != nil {
		return
	}
	v := &types.Voting{
		Chairperson: chair,
		Deadline:    deadline,
	}
	dat, err := v.Marshal()
	if err != nil {
		return session, newError(ErrCapacityExceeded, err, "session %s", session)
	}
	if err = e.create(session, "session", dat); err != nil {
		return
	}
	e.logger.Debug("voting initialised", "session", session, "chair", chair, "deadline", deadline)
	return
}

// AddProposal appends a proposal to the session. Anyone may add proposals
// and there is no deadline on doing so.
func (e *Engine) AddProposal(session address.Address, text string) (idx uint8, proposal address.Address, err error) {
	if len(text) > types.MaxProposalTextLen {
		return 0, proposal, newError(ErrCapacityExceeded, nil, "proposal text is %d bytes, limit %d", len(text), types.MaxProposalTextLen)
	}
	v, err := e.loadVoting(session)
	if err != nil {
		return
	}
	if v.ProposalCount >= types.MaxProposals {
		return 0, proposal, newError(ErrCapacityExceeded, nil, "session %s already holds %d proposals", session, v.ProposalCount)
	}
	idx = uint8(v.ProposalCount)
	proposal, err = e.ProposalAddress(session, idx)
	if err != nil {
		return
	}
	p := &types.Proposal{Index: idx, Text: text}
	dat, err := p.Marshal()
	if err != nil {
		return 0, proposal, newError(ErrCapacityExceeded, err, "proposal %d of session %s", idx, session)
	}
	if err = e.create(proposal, "proposal", dat); err != nil {
		return
	}
	err = e.updateVoting(session, func(v *types.Voting) error {
		v.ProposalCount += 1
		return nil
	})
	if err != nil {
		return
	}
	e.logger.Debug("proposal added", "session", session, "index", idx, "proposal", proposal)
	return
}

// requireOpen gates vote admission.
func requireOpen(session address.Address, v *types.Voting, now int64) error {
	if now >= v.Deadline {
		return newError(ErrDeadlinePassed, nil, "session %s closed at %d, now %d", session, v.Deadline, now)
	}
	if v.WinnerSelected {
		return newError(ErrUnauthorized, nil, "session %s is already decided", session)
	}
	return nil
}

// requireTallyAuthority gates tally: the chair may tally at any time,
// everyone else only after the deadline, and only while undecided.
func requireTallyAuthority(session address.Address, v *types.Voting, caller address.Address, now int64) error {
	if v.WinnerSelected {
		return newError(ErrUnauthorized, nil, "session %s is already decided", session)
	}
	if caller != v.Chairperson && now <= v.Deadline {
		return newError(ErrUnauthorized, ErrDeadlineNotYetPassed, "%s is not the chair of %s and the deadline %d is not passed", caller, session, v.Deadline)
	}
	return nil
}

func (e *Engine) requireRegistered(session address.Address, voter address.Address) error {
	rec, err := e.VoterAddress(session, voter)
	if err != nil {
		return err
	}
	dat, err := e.store.Read(rec)
	if err != nil {
		if errors.Is(err, types.ErrRecordNotFound) {
			return newError(ErrUnauthorized, nil, "%s is not a registered voter of %s", voter, session)
		}
		return err
	}
	member, err := types.UnmarshalVoter(dat)
	if err != nil {
		return newError(ErrInvalidRecord, err, "voter record %s", rec)
	}
	if member.Key != voter {
		return newError(ErrUnauthorized, nil, "voter record %s belongs to %s", rec, member.Key)
	}
	return nil
}

// Vote records one vote of voter for proposal. A second vote of the same
// voter for the same proposal fails with DuplicateCreation.
func (e *Engine) Vote(session address.Address, proposal address.Address, voter address.Address) (marker address.Address, votes uint32, err error) {
	v, err := e.loadVoting(session)
	if err != nil {
		return
	}
	if err = requireOpen(session, v, e.clock.Now()); err != nil {
		return
	}
	if e.requireRegistration {
		if err = e.requireRegistered(session, voter); err != nil {
			return
		}
	}
	p, err := e.loadProposal(proposal)
	if err != nil {
		return
	}
	expected, err := e.ProposalAddress(session, p.Index)
	if err != nil {
		return
	}
	if expected != proposal || uint32(p.Index) >= v.ProposalCount {
		return marker, 0, newError(ErrAddressMismatch, nil, "proposal %s is not proposal %d of session %s", proposal, p.Index, session)
	}
	if p.VoteCounter == ^uint32(0) {
		return marker, 0, newError(ErrCapacityExceeded, nil, "proposal %s vote counter is full", proposal)
	}
	marker, err = e.VoteMarkerAddress(voter, proposal)
	if err != nil {
		return
	}
	voted, err := types.Voted{}.Marshal()
	if err != nil {
		return
	}
	if err = e.create(marker, "vote marker", voted); err != nil {
		return
	}
	err = e.updateProposal(proposal, func(p *types.Proposal) error {
		if p.VoteCounter == ^uint32(0) {
			return newError(ErrCapacityExceeded, nil, "proposal %s vote counter is full", proposal)
		}
		p.VoteCounter += 1
		votes = p.VoteCounter
		return nil
	})
	if err != nil {
		return
	}
	e.logger.Debug("vote cast", "session", session, "proposal", proposal, "voter", voter, "votes", votes)
	return
}

type TallyResult struct {
	WinnerIdx   uint8
	WinnerVotes uint32
	Proposals   uint32
}

// SelectWinner returns the index with the greatest count. Ties go to the
// lowest index. An empty slice yields index 0.
func SelectWinner(counters []uint32) (idx uint8, votes uint32) {
	for i, c := range counters {
		if i == 0 || c > votes {
			idx, votes = uint8(i), c
		}
	}
	return
}

// CheckTallyAuthority runs the tally gate alone, before any proposal record is read.
func (e *Engine) CheckTallyAuthority(session address.Address, caller address.Address) error {
	v, err := e.loadVoting(session)
	if err != nil {
		return err
	}
	return requireTallyAuthority(session, v, caller, e.clock.Now())
}

// Tally decides the session. records must hold every proposal of the
// session in index order. Nothing is written unless every record checks
// out.

func (e *Engine) Tally(session address.Address, caller address.Address, records []types.RecordInfo) (res *TallyResult, err error) {
	v, err := e.loadVoting(session)
	if err != nil {
		return
	}
	if err = requireTallyAuthority(session, v, caller, e.clock.Now()); err != nil {
		return
	}
	if uint32(len(records)) != v.ProposalCount || len(records) > types.MaxProposals {
		return nil, newError(ErrCountMismatch, nil, "session %s has %d proposals, got %d records", session, v.ProposalCount, len(records))
	}
	counters := make([]uint32, len(records))
	for i, rec := range records {
		expected, err := e.ProposalAddress(session, uint8(i))
		if err != nil {
			return nil, err
		}
		if rec.Address != expected {
			return nil, newError(ErrAddressMismatch, nil, "record %d is %s, expected %s", i, rec.Address, expected)
		}
		p, err := types.UnmarshalProposal(rec.Data)
		if err != nil {
			return nil, newError(ErrInvalidRecord, err, "record %d at %s", i, rec.Address)
		}
		if int(p.Index) != i {
			return nil, newError(ErrInvalidRecord, nil, "record %d at %s claims index %d", i, rec.Address, p.Index)
		}
		counters[i] = p.VoteCounter
	}
	res = &TallyResult{Proposals: v.ProposalCount}
	res.WinnerIdx, res.WinnerVotes = SelectWinner(counters)
	err = e.updateVoting(session, func(v *types.Voting) error {
		v.WinnerIdx = res.WinnerIdx
		v.WinnerSelected = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("voting tallied", "session", session, "winner", res.WinnerIdx, "votes", res.WinnerVotes)
	return
}

// AddMember registers member as a voter of the session. Only the chair may
// register voters.
func (e *Engine) AddMember(session address.Address, caller address.Address, member address.Address, weight uint8, proposeAnswers bool) (rec address.Address, err error) {
	v, err := e.loadVoting(session)
	if err != nil {
		return
	}
	if caller != v.Chairperson {
		return rec, newError(ErrUnauthorized, nil, "%s is not the chair of %s", caller, session)
	}
	rec, err = e.VoterAddress(session, member)
	if err != nil {
		return
	}
	voter := &types.Voter{Key: member, Weight: weight, ProposeAnswers: proposeAnswers}
	dat, err := voter.Marshal()
	if err != nil {
		return rec, newError(ErrCapacityExceeded, err, "voter %s", rec)
	}
	if err = e.create(rec, "voter", dat); err != nil {
		return
	}
	e.logger.Debug("member added", "session", session, "member", member, "record", rec)
	return
}
