package solana

import (
	"fmt"
)

// AccountMeta describes how an instruction uses an account.
type AccountMeta struct {
	Pubkey     string
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation before compilation.
type Instruction struct {
	ProgramID string
	Accounts  []AccountMeta
	Data      []byte
}

// Account meta constructors.
func Writable(pubkey string) AccountMeta { return AccountMeta{Pubkey: pubkey, IsWritable: true} }
func Readonly(pubkey string) AccountMeta { return AccountMeta{Pubkey: pubkey} }
func WritableSigner(pubkey string) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: true, IsWritable: true}
}

// appendShortvec appends a compact-u16 length prefix.
func appendShortvec(buf []byte, n int) []byte {
	for {
		if n < 0x80 {
			return append(buf, byte(n))
		}
		buf = append(buf, byte(n&0x7f)|0x80)
		n >>= 7
	}
}

// BuildMessage compiles instructions into a legacy transaction message.
// The payer becomes the first account; account keys are ordered signers
// first, then writable non-signers, then readonly non-signers.
func BuildMessage(payer, recentBlockhash string, instructions []Instruction) ([]byte, error) {
	if payer == "" {
		return nil, fmt.Errorf("payer required")
	}
	if len(instructions) == 0 {
		return nil, fmt.Errorf("at least one instruction required")
	}

	// Merge account metas, OR-ing signer/writable flags across uses.
	merged := make(map[string]*AccountMeta)
	var order []string

	add := func(m AccountMeta) {
		if existing, ok := merged[m.Pubkey]; ok {
			existing.IsSigner = existing.IsSigner || m.IsSigner
			existing.IsWritable = existing.IsWritable || m.IsWritable
			return
		}
		copy := m
		merged[m.Pubkey] = &copy
		order = append(order, m.Pubkey)
	}

	add(WritableSigner(payer))
	for _, instr := range instructions {
		for _, m := range instr.Accounts {
			add(m)
		}
		add(Readonly(instr.ProgramID))
	}

	// Sort into: payer, signer writable, signer readonly,
	// non-signer writable, non-signer readonly. Preserve insertion
	// order within each class.
	class := func(m *AccountMeta) int {
		switch {
		case m.Pubkey == payer:
			return 0
		case m.IsSigner && m.IsWritable:
			return 1
		case m.IsSigner:
			return 2
		case m.IsWritable:
			return 3
		default:
			return 4
		}
	}

	var keys []string
	for c := 0; c <= 4; c++ {
		for _, k := range order {
			if class(merged[k]) == c {
				keys = append(keys, k)
			}
		}
	}

	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}

	var numSigners, numReadonlySigned, numReadonlyUnsigned int
	for _, k := range keys {
		m := merged[k]
		if m.IsSigner {
			numSigners++
			if !m.IsWritable {
				numReadonlySigned++
			}
		} else if !m.IsWritable {
			numReadonlyUnsigned++
		}
	}

	blockhash, err := DecodePubkey(recentBlockhash)
	if err != nil {
		return nil, fmt.Errorf("decode blockhash: %w", err)
	}

	buf := []byte{byte(numSigners), byte(numReadonlySigned), byte(numReadonlyUnsigned)}

	buf = appendShortvec(buf, len(keys))
	for _, k := range keys {
		kb, err := DecodePubkey(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
	}

	buf = append(buf, blockhash...)

	buf = appendShortvec(buf, len(instructions))
	for _, instr := range instructions {
		buf = append(buf, byte(index[instr.ProgramID]))
		buf = appendShortvec(buf, len(instr.Accounts))
		for _, m := range instr.Accounts {
			buf = append(buf, byte(index[m.Pubkey]))
		}
		buf = appendShortvec(buf, len(instr.Data))
		buf = append(buf, instr.Data...)
	}

	return buf, nil
}

// AssembleTransaction prepends signatures to a compiled message,
// producing the wire-format transaction.
func AssembleTransaction(signatures [][]byte, message []byte) ([]byte, error) {
	for i, sig := range signatures {
		if len(sig) != 64 {
			return nil, fmt.Errorf("signature %d: expected 64 bytes, got %d", i, len(sig))
		}
	}

	buf := appendShortvec(nil, len(signatures))
	for _, sig := range signatures {
		buf = append(buf, sig...)
	}
	return append(buf, message...), nil
}
