package enrich

import (
	"encoding/binary"
	"fmt"
	"strings"

	"solana-sniper/internal/domain"
)

// Metaplex metadata account prefix: key (1), update authority (32),
// mint (32). Strings follow as borsh-encoded, null-padded fields.
const metadataHeaderLen = 1 + 32 + 32

// parseMetadataAccount decodes the on-chain portion of a Metaplex
// token metadata account.
func parseMetadataAccount(data []byte) (*domain.TokenMetadata, error) {
	if len(data) < metadataHeaderLen {
		return nil, fmt.Errorf("metadata account too short: %d bytes", len(data))
	}
	offset := metadataHeaderLen

	name, offset, err := readBorshString(data, offset)
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	symbol, offset, err := readBorshString(data, offset)
	if err != nil {
		return nil, fmt.Errorf("symbol: %w", err)
	}
	uri, offset, err := readBorshString(data, offset)
	if err != nil {
		return nil, fmt.Errorf("uri: %w", err)
	}
	if offset+2 > len(data) {
		return nil, fmt.Errorf("truncated before seller fee at offset %d", offset)
	}
	fee := binary.LittleEndian.Uint16(data[offset : offset+2])

	return &domain.TokenMetadata{
		Name:                 name,
		Symbol:               symbol,
		URI:                  uri,
		SellerFeeBasisPoints: fee,
	}, nil
}

// readBorshString reads a u32-length-prefixed string. On-chain fields
// are fixed-width, so the payload carries trailing null padding.
func readBorshString(data []byte, offset int) (string, int, error) {
	if offset+4 > len(data) {
		return "", 0, fmt.Errorf("truncated length prefix at offset %d", offset)
	}
	length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	if length < 0 || offset+length > len(data) {
		return "", 0, fmt.Errorf("string of %d bytes overruns account at offset %d", length, offset)
	}
	value := strings.TrimRight(string(data[offset:offset+length]), "\x00")
	return value, offset + length, nil
}
