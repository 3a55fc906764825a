package executor

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// Signer signs transaction messages for one wallet.
type Signer interface {
	// PublicKey returns the wallet public key in base58.
	PublicKey() string

	// Sign returns the 64-byte signature over the message.
	Sign(message []byte) ([]byte, error)
}

// KeypairSigner signs with an in-memory ed25519 keypair.
type KeypairSigner struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// NewKeypairSigner parses a base58-encoded 64-byte Solana secret key.
func NewKeypairSigner(secretBase58 string) (*KeypairSigner, error) {
	raw, err := base58.Decode(secretBase58)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	priv := ed25519.PrivateKey(raw)
	return &KeypairSigner{
		priv:   priv,
		pubkey: base58.Encode(priv.Public().(ed25519.PublicKey)),
	}, nil
}

func (s *KeypairSigner) PublicKey() string { return s.pubkey }

func (s *KeypairSigner) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

// NopSigner produces zero signatures for dry runs.
type NopSigner struct {
	Pubkey string
}

func (s NopSigner) PublicKey() string { return s.Pubkey }

func (s NopSigner) Sign([]byte) ([]byte, error) {
	return make([]byte, ed25519.SignatureSize), nil
}

var (
	_ Signer = (*KeypairSigner)(nil)
	_ Signer = NopSigner{}
)
