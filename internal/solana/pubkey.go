package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program addresses.
const (
	PumpProgramID            = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	MetadataProgramID        = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	SystemProgramID          = "11111111111111111111111111111111"
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	RentSysvarID             = "SysvarRent111111111111111111111111111111111"

	// pump.fun fixed accounts
	PumpGlobalAccount  = "4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf"
	PumpFeeRecipient   = "CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM"
	PumpEventAuthority = "Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1"
)

// pdaMarker terminates the seed list when deriving program addresses.
var pdaMarker = []byte("ProgramDerivedAddress")

// DecodePubkey decodes a base58 public key and validates its length.
func DecodePubkey(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey %q: %w", s, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("pubkey %q: expected 32 bytes, got %d", s, len(b))
	}
	return b, nil
}

// isOnCurve reports whether b is a valid ed25519 curve point.
func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// FindProgramAddress derives the program address for the given seeds,
// searching bump seeds from 255 downwards until an off-curve point is found.
func FindProgramAddress(seeds [][]byte, programID string) (string, uint8, error) {
	program, err := DecodePubkey(programID)
	if err != nil {
		return "", 0, err
	}

	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			if len(seed) > 32 {
				return "", 0, fmt.Errorf("seed too long: %d bytes", len(seed))
			}
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(program)
		h.Write(pdaMarker)

		addr := h.Sum(nil)
		if !isOnCurve(addr) {
			return base58.Encode(addr), uint8(bump), nil
		}
	}

	return "", 0, fmt.Errorf("no viable bump seed found")
}

// BondingCurveAddress derives the pump.fun bonding curve PDA for a mint.
func BondingCurveAddress(mint string) (string, error) {
	mintBytes, err := DecodePubkey(mint)
	if err != nil {
		return "", err
	}
	addr, _, err := FindProgramAddress([][]byte{[]byte("bonding-curve"), mintBytes}, PumpProgramID)
	return addr, err
}

// CreatorVaultAddress derives the pump.fun creator fee vault PDA.
func CreatorVaultAddress(creator string) (string, error) {
	creatorBytes, err := DecodePubkey(creator)
	if err != nil {
		return "", err
	}
	addr, _, err := FindProgramAddress([][]byte{[]byte("creator-vault"), creatorBytes}, PumpProgramID)
	return addr, err
}

// MetadataAddress derives the Metaplex metadata PDA for a mint.
func MetadataAddress(mint string) (string, error) {
	mintBytes, err := DecodePubkey(mint)
	if err != nil {
		return "", err
	}
	programBytes, err := DecodePubkey(MetadataProgramID)
	if err != nil {
		return "", err
	}
	addr, _, err := FindProgramAddress(
		[][]byte{[]byte("metadata"), programBytes, mintBytes},
		MetadataProgramID,
	)
	return addr, err
}

// AssociatedTokenAddress derives the associated token account for an
// owner and mint. The owner may be a PDA such as a bonding curve.
func AssociatedTokenAddress(owner, mint string) (string, error) {
	ownerBytes, err := DecodePubkey(owner)
	if err != nil {
		return "", err
	}
	tokenProgram, err := DecodePubkey(TokenProgramID)
	if err != nil {
		return "", err
	}
	mintBytes, err := DecodePubkey(mint)
	if err != nil {
		return "", err
	}
	addr, _, err := FindProgramAddress(
		[][]byte{ownerBytes, tokenProgram, mintBytes},
		AssociatedTokenProgramID,
	)
	return addr, err
}
