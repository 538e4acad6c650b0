package address

import (
	"bytes"
	"testing"

	"filippo.io/edwards25519"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAddressDeterministic(t *testing.T) {
	chair := BytesToAddress([]byte{1, 2, 3})
	a1, b1, err := SessionAddress(DefaultProgramID, "board-2024", chair)
	require.NoError(t, err)
	a2, b2, err := SessionAddress(DefaultProgramID, "board-2024", chair)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assert.False(t, IsOnCurve(a1[:]))

	again, err := CreateAddress(DefaultProgramID, []byte("board-2024"), chair[:], []byte{b1})
	require.NoError(t, err)
	assert.Equal(t, a1, again)
}

func TestFindAddressDistinctInputs(t *testing.T) {
	chair := BytesToAddress([]byte{1})
	other := BytesToAddress([]byte{2})
	seen := map[Address]string{}
	add := func(name string, a Address, _ uint8, err error) {
		require.NoError(t, err)
		prev, dup := seen[a]
		require.False(t, dup, "%s collides with %s", name, prev)
		seen[a] = name
	}
	s1, b, err := SessionAddress(DefaultProgramID, "s", chair)
	add("session chair", s1, b, err)
	s2, b, err := SessionAddress(DefaultProgramID, "s", other)
	add("session other", s2, b, err)
	s3, b, err := SessionAddress(DefaultProgramID, "t", chair)
	add("session t", s3, b, err)
	for i := 0; i < 4; i++ {
		p, b, err := ProposalAddress(DefaultProgramID, s1, uint8(i))
		add("proposal", p, b, err)
	}
	p0, _, err := ProposalAddress(DefaultProgramID, s1, 0)
	require.NoError(t, err)
	m, b, err := VoteMarkerAddress(DefaultProgramID, chair, p0)
	add("marker", m, b, err)
	v, b, err := VoterAddress(DefaultProgramID, s1, chair)
	add("voter", v, b, err)
	acc, b, err := AccountAddress(DefaultProgramID, chair)
	add("account", acc, b, err)

	otherProgram := BytesToAddress([]byte("another program"))
	s4, b, err := SessionAddress(otherProgram, "s", chair)
	add("session other program", s4, b, err)
}

func TestFindAddressLimits(t *testing.T) {
	_, _, err := FindAddress(DefaultProgramID, bytes.Repeat([]byte{'a'}, MaxSeedLen+1))
	assert.ErrorIs(t, err, ErrMaxSeedLength)

	seeds := make([][]byte, MaxSeeds)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}
	_, _, err = FindAddress(DefaultProgramID, seeds...)
	assert.ErrorIs(t, err, ErrTooManySeeds)

	_, err = CreateAddress(DefaultProgramID, append(seeds, []byte{0})...)
	assert.ErrorIs(t, err, ErrTooManySeeds)

	_, _, err = FindAddress(DefaultProgramID, seeds[:MaxSeeds-1]...)
	assert.NoError(t, err)
}

func TestIsOnCurve(t *testing.T) {
	assert.True(t, IsOnCurve(edwards25519.NewGeneratorPoint().Bytes()))
	pk := ed25519.GenPrivKey().PubKey().Bytes()
	assert.True(t, IsOnCurve(pk))
	assert.False(t, IsOnCurve([]byte{1, 2, 3}))
}

func TestParseAddress(t *testing.T) {
	a := BytesToAddress([]byte{0xde, 0xad, 0xbe, 0xef})
	parsed, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	parsed, err = ParseAddress("0x" + a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = ParseAddress("abcd")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAddress("zz")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	txt, err := a.MarshalText()
	require.NoError(t, err)
	var b Address
	require.NoError(t, b.UnmarshalText(txt))
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
	assert.True(t, Address{}.IsZero())
}
