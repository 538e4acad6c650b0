package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	AddressLength = 32

	MaxSeeds   = 16
	MaxSeedLen = 32
)

var derivedAddressMarker = []byte("BallotDerivedAddress")

// DefaultProgramID is the derivation namespace used when the node config
// does not set one.
var DefaultProgramID = BytesToAddress(crypto.Keccak256([]byte("ballot-app/voting")))

var (
	ErrMaxSeedLength  = errors.New("max seed length exceeded")
	ErrTooManySeeds   = errors.New("too many seeds")
	ErrInvalidSeeds   = errors.New("provided seeds do not result in a valid address")
	ErrNoViableBump   = errors.New("unable to find a viable bump seed")
	ErrInvalidAddress = errors.New("invalid address")
)

// Address identifies a record in the store. Ed25519 public keys share the
// type so that identities and record addresses compare directly.
type Address [AddressLength]byte

func BytesToAddress(b []byte) (a Address) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return
}

func ParseAddress(s string) (a Address, err error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(b) != AddressLength {
		return a, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(b))
	}
	copy(a[:], b)
	return
}

func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) (err error) {
	*a, err = ParseAddress(string(text))
	return
}

// IsOnCurve reports whether b decodes as a compressed ed25519 point.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateAddress hashes seeds with the program id. The caller supplies the
// bump as the last seed. Results that land on the ed25519 curve are rejected
// since a private key could exist for them.
func CreateAddress(programID Address, seeds ...[]byte) (addr Address, err error) {
	if len(seeds) > MaxSeeds {
		return addr, ErrTooManySeeds
	}
	buf := make([]byte, 0, 64)
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return addr, ErrMaxSeedLength
		}
		buf = append(buf, seed...)
	}
	buf = append(buf, programID[:]...)
	buf = append(buf, derivedAddressMarker...)
	h := crypto.Keccak256(buf)
	if IsOnCurve(h) {
		return addr, ErrInvalidSeeds
	}
	copy(addr[:], h)
	return
}

// FindAddress searches bump values from 255 down and returns the first
// off-curve address together with the bump that produced it.
func FindAddress(programID Address, seeds ...[]byte) (addr Address, bump uint8, err error) {
	if len(seeds) > MaxSeeds-1 {
		return addr, 0, ErrTooManySeeds
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bumpSeed := []byte{0}
	withBump[len(seeds)] = bumpSeed
	for b := 255; b >= 0; b-- {
		bumpSeed[0] = uint8(b)
		addr, err = CreateAddress(programID, withBump...)
		switch {
		case err == nil:
			return addr, uint8(b), nil
		case errors.Is(err, ErrInvalidSeeds):
			continue
		default:
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}
