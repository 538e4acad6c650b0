package state

import (
	"errors"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
)

// GetAccount returns the account record of signer. A signer that never
// sent a tx gets a fresh account with nonce 0.
func (s *State) GetAccount(signer address.Address) (acnt *types.Account, err error) {
	addr, _, err := address.AccountAddress(s.ProgramID(), signer)
	if err != nil {
		return nil, err
	}
	dat, err := s.Read(addr)
	if err != nil {
		if errors.Is(err, types.ErrRecordNotFound) {
			return &types.Account{PubKey: signer}, nil
		}
		return nil, err
	}
	return types.UnmarshalAccount(dat)
}

// IncNonce bumps the nonce of signer, creating its account on first use.
func (s *State) IncNonce(signer address.Address) (err error) {
	addr, _, err := address.AccountAddress(s.ProgramID(), signer)
	if err != nil {
		return err
	}
	acnt, err := s.GetAccount(signer)
	if err != nil {
		return err
	}
	acnt.Nonce += 1
	dat, err := acnt.Marshal()
	if err != nil {
		return err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.write(addr, dat, ModifiedFlagMod)
}

// Verify checks the signature and the nonce of btx against this state.
func (s *State) Verify(btx *tx.Tx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(btx.Signer)
	if err != nil {
		return succ, err
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	succ = btx.VerifySig(s.header.ChainId)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}
