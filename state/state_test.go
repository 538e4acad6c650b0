package state

import (
	"bytes"
	"testing"
	"time"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *StateDB {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func commit(t *testing.T, db *StateDB, st *State) {
	_, err := st.Update()
	require.NoError(t, err)
	_, err = db.SetState(st)
	require.NoError(t, err)
}

func TestCreateIsCreateIfAbsent(t *testing.T) {
	db := newTestDB(t)
	st := db.NewState()
	addr := address.BytesToAddress([]byte("a"))

	require.NoError(t, st.Create(addr, []byte("first")))
	err := st.Create(addr, []byte("second"))
	assert.ErrorIs(t, err, types.ErrRecordExists)

	got, err := st.Read(addr)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	commit(t, db, st)
	next := db.NewState()
	err = next.Create(addr, []byte("third"))
	assert.ErrorIs(t, err, types.ErrRecordExists)
}

func TestReadMissing(t *testing.T) {
	db := newTestDB(t)
	_, err := db.NewState().Read(address.BytesToAddress([]byte("nope")))
	assert.ErrorIs(t, err, types.ErrRecordNotFound)

	_, _, err = db.GetRecord(address.BytesToAddress([]byte("nope")))
	assert.ErrorIs(t, err, types.ErrRecordNotFound)
}

func TestMutate(t *testing.T) {
	db := newTestDB(t)
	st := db.NewState()
	addr := address.BytesToAddress([]byte("m"))

	err := st.Mutate(addr, func(old []byte) ([]byte, error) { return old, nil })
	assert.ErrorIs(t, err, types.ErrRecordNotFound)

	require.NoError(t, st.Create(addr, []byte{1}))
	require.NoError(t, st.Mutate(addr, func(old []byte) ([]byte, error) {
		return append(old, 2), nil
	}))
	got, err := st.Read(addr)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, got)

	failure := assert.AnError
	err = st.Mutate(addr, func(old []byte) ([]byte, error) { return nil, failure })
	assert.ErrorIs(t, err, failure)
	got, err = st.Read(addr)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, got)

	assert.ErrorIs(t, st.Create(address.BytesToAddress([]byte("e")), nil), ErrEmptyRecord)
}

func TestCloneIsolation(t *testing.T) {
	db := newTestDB(t)
	st := db.NewState()
	a := address.BytesToAddress([]byte("a"))
	b := address.BytesToAddress([]byte("b"))
	require.NoError(t, st.Create(a, []byte("a")))

	c := st.Clone()
	require.NoError(t, c.Create(b, []byte("b")))
	require.NoError(t, c.Mutate(a, func([]byte) ([]byte, error) { return []byte("A"), nil }))

	_, err := st.Read(b)
	assert.ErrorIs(t, err, types.ErrRecordNotFound)
	got, err := st.Read(a)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)
	assert.Len(t, st.Modified(), 1)
	assert.Len(t, c.Modified(), 2)
}

func TestCommitAndReload(t *testing.T) {
	db := newTestDB(t)
	st := db.NewState()
	st.SetChainId("ballot-test")
	commit(t, db, st)
	assert.Equal(t, uint64(0), db.Header().Height)

	st = db.NewState()
	assert.Equal(t, uint64(1), st.Header().Height)
	st.SetBlockTime(time.Unix(1700000000, 0))
	addr := address.BytesToAddress([]byte("r"))
	require.NoError(t, st.Create(addr, []byte("record")))
	h1, err := st.Update()
	require.NoError(t, err)
	h2, err := db.SetState(st)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, h2, db.State().Hash())

	got, height, err := db.GetRecord(addr)
	require.NoError(t, err)
	assert.Equal(t, []byte("record"), got)
	assert.Equal(t, uint64(1), height)

	header := db.Header()
	assert.Equal(t, "ballot-test", header.ChainId)
	assert.Equal(t, uint64(1700000000), header.BlockTime)

	fresh := newState(db.db, cmtlog.NewNopLogger())
	require.NoError(t, fresh.load())
	assert.Equal(t, "ballot-test", fresh.Header().ChainId)
	assert.Equal(t, h2, fresh.Hash())
}

func TestSameWritesSameHash(t *testing.T) {
	run := func(order []string) []byte {
		db := newTestDB(t)
		st := db.NewState()
		for _, k := range order {
			require.NoError(t, st.Create(address.BytesToAddress([]byte(k)), []byte(k)))
		}
		h, err := st.Update()
		require.NoError(t, err)
		return h.Bytes()
	}
	assert.Equal(t, run([]string{"x", "y", "z"}), run([]string{"z", "x", "y"}))
}

func TestAccountNonceAndVerify(t *testing.T) {
	db := newTestDB(t)
	st := db.NewState()
	st.SetChainId("c")

	priv := ed25519.GenPrivKey()
	signer := address.BytesToAddress(priv.PubKey().Bytes())

	acnt, err := st.GetAccount(signer)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acnt.Nonce)

	btx, err := tx.NewTx(signer, 0, &tx.VoteTx{})
	require.NoError(t, err)
	require.NoError(t, btx.Sign("c", priv))
	ok, err := st.Verify(btx, false)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, st.IncNonce(signer))
	_, err = st.Verify(btx, false)
	assert.ErrorIs(t, err, ErrTxNonceInvalid)

	future, err := tx.NewTx(signer, 5, &tx.VoteTx{})
	require.NoError(t, err)
	require.NoError(t, future.Sign("c", priv))
	_, err = st.Verify(future, false)
	assert.ErrorIs(t, err, ErrTxNonceInvalid)
	ok, err = st.Verify(future, true)
	require.NoError(t, err)
	assert.True(t, ok)

	bad, err := tx.NewTx(signer, 1, &tx.VoteTx{})
	require.NoError(t, err)
	require.NoError(t, bad.Sign("other", priv))
	_, err = st.Verify(bad, false)
	assert.ErrorIs(t, err, ErrTxSigInvalid)
}

func TestTreeLoggerTagsModule(t *testing.T) {
	var buf bytes.Buffer
	lg := newTreeLogger(cmtlog.NewTMLogger(&buf))
	lg.Info("saved version", "version", 3)
	lg.With("height", 3).Error("pruning lagging")
	out := buf.String()
	assert.Contains(t, out, "module=iavl")
	assert.Contains(t, out, "pruning lagging")
	assert.Contains(t, out, "height=3")
	assert.Contains(t, out, "saved version")
}
