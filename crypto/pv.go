package crypto

import (
	"errors"
	"fmt"
	"os"

	"github.com/calehh/ballot-app/address"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
)

var ErrNotEd25519 = errors.New("key is not ed25519")

// PV is a signing key read from a CometBFT priv_validator_key.json. The
// public key is the signer identity of the txs it signs.
type PV struct {
	privateKey ed25519.PrivKey
	publicKey  crypto.PubKey
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("error reading PrivValidator key from %v: %w", keyFilePath, err)
	}
	priv, ok := pvKey.PrivKey.(ed25519.PrivKey)
	if !ok {
		return nil, ErrNotEd25519
	}
	return &PV{
		privateKey: priv,
		publicKey:  pvKey.PubKey,
	}, nil
}

func NewPV(priv ed25519.PrivKey) *PV {
	return &PV{privateKey: priv, publicKey: priv.PubKey()}
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

// Signer is the address form of the public key.
func (k *PV) Signer() address.Address {
	return address.BytesToAddress(k.publicKey.Bytes())
}

// Address is the CometBFT validator address of the key.
func (k *PV) Address() string {
	return k.publicKey.Address().String()
}

func (k *PV) PrivKey() ed25519.PrivKey {
	return k.privateKey
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}
