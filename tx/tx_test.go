package tx

import (
	"testing"

	"github.com/calehh/ballot-app/address"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSigner() (ed25519.PrivKey, address.Address) {
	priv := ed25519.GenPrivKey()
	return priv, address.BytesToAddress(priv.PubKey().Bytes())
}

func TestSignedTxSurvivesTheWire(t *testing.T) {
	priv, signer := newSigner()
	session := address.BytesToAddress([]byte("session"))
	btx, err := NewTx(signer, 3, &TallyTx{
		Session:   session,
		Proposals: []address.Address{address.BytesToAddress([]byte{1}), address.BytesToAddress([]byte{2})},
	})
	require.NoError(t, err)
	require.NoError(t, btx.Sign("ballot-test", priv))

	dat, err := MarshalTx(btx)
	require.NoError(t, err)

	got, err := UnmarshalTx(dat)
	require.NoError(t, err)
	assert.Equal(t, TxTypeTally, got.Type)
	assert.Equal(t, uint64(3), got.Nonce)
	assert.Equal(t, signer, got.Signer)
	body, ok := got.Tx.(*TallyTx)
	require.True(t, ok)
	assert.Equal(t, session, body.Session)
	assert.Len(t, body.Proposals, 2)

	assert.True(t, got.VerifySig("ballot-test"))
	assert.False(t, got.VerifySig("other-chain"))

	got.Nonce = 4
	assert.False(t, got.VerifySig("ballot-test"))
}

func TestVerifySigRejectsOtherSigner(t *testing.T) {
	priv, _ := newSigner()
	_, other := newSigner()
	btx, err := NewTx(other, 0, &VoteTx{})
	require.NoError(t, err)
	require.NoError(t, btx.Sign("c", priv))
	assert.False(t, btx.VerifySig("c"))

	btx.Sig = nil
	assert.False(t, btx.VerifySig("c"))
}

func TestUnmarshalTxErrors(t *testing.T) {
	_, err := UnmarshalTx([]byte(`{"type":99}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalTx([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalTx([]byte(`{"version":0,"type":3,"tx":{}}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxVersion)

	_, err = UnmarshalTx([]byte(`{"version":1,"type":3,"tx":{"session":"xyz"}}`))
	assert.ErrorIs(t, err, ErrInvalidTx)

	_, err = NewTx(address.Address{}, 0, struct{}{})
	assert.ErrorIs(t, err, ErrUnsupportedTxType)
}

func TestTxTypeString(t *testing.T) {
	assert.Equal(t, "vote", TxTypeVote.String())
	assert.Equal(t, "unknown", TxType(42).String())
}
