package executor

import (
	"encoding/binary"
	"fmt"

	"solana-sniper/internal/solana"
)

// createIdempotentData is the lone-byte payload of the associated token
// program's CreateIdempotent instruction.
var createIdempotentData = []byte{1}

// pumpAccounts bundles the derived addresses a buy or sell references.
type pumpAccounts struct {
	mint         string
	bondingCurve string
	curveATA     string
	userATA      string
	user         string
	creatorVault string
}

func derivePumpAccounts(user, mint, bondingCurve, creator string) (*pumpAccounts, error) {
	if bondingCurve == "" {
		derived, err := solana.BondingCurveAddress(mint)
		if err != nil {
			return nil, fmt.Errorf("derive bonding curve: %w", err)
		}
		bondingCurve = derived
	}
	curveATA, err := solana.AssociatedTokenAddress(bondingCurve, mint)
	if err != nil {
		return nil, fmt.Errorf("derive curve token account: %w", err)
	}
	userATA, err := solana.AssociatedTokenAddress(user, mint)
	if err != nil {
		return nil, fmt.Errorf("derive user token account: %w", err)
	}
	creatorVault, err := solana.CreatorVaultAddress(creator)
	if err != nil {
		return nil, fmt.Errorf("derive creator vault: %w", err)
	}
	return &pumpAccounts{
		mint:         mint,
		bondingCurve: bondingCurve,
		curveATA:     curveATA,
		userATA:      userATA,
		user:         user,
		creatorVault: creatorVault,
	}, nil
}

// createATAInstruction creates the user's associated token account if
// it does not exist yet.
func createATAInstruction(a *pumpAccounts) solana.Instruction {
	return solana.Instruction{
		ProgramID: solana.AssociatedTokenProgramID,
		Accounts: []solana.AccountMeta{
			solana.WritableSigner(a.user),
			solana.Writable(a.userATA),
			solana.Readonly(a.user),
			solana.Readonly(a.mint),
			solana.Readonly(solana.SystemProgramID),
			solana.Readonly(solana.TokenProgramID),
		},
		Data: createIdempotentData,
	}
}

// buyInstruction builds the pump.fun buy with the token amount and the
// slippage-adjusted SOL ceiling.
func buyInstruction(a *pumpAccounts, tokenAmount, maxSolCost uint64) solana.Instruction {
	data := make([]byte, 24)
	copy(data, solana.PumpBuyDiscriminator)
	binary.LittleEndian.PutUint64(data[8:16], tokenAmount)
	binary.LittleEndian.PutUint64(data[16:24], maxSolCost)

	return solana.Instruction{
		ProgramID: solana.PumpProgramID,
		Accounts: []solana.AccountMeta{
			solana.Readonly(solana.PumpGlobalAccount),
			solana.Writable(solana.PumpFeeRecipient),
			solana.Readonly(a.mint),
			solana.Writable(a.bondingCurve),
			solana.Writable(a.curveATA),
			solana.Writable(a.userATA),
			solana.WritableSigner(a.user),
			solana.Readonly(solana.SystemProgramID),
			solana.Readonly(solana.TokenProgramID),
			solana.Writable(a.creatorVault),
			solana.Readonly(solana.PumpEventAuthority),
			solana.Readonly(solana.PumpProgramID),
		},
		Data: data,
	}
}

// sellInstruction builds the pump.fun sell with the token amount and
// the slippage-adjusted SOL floor.
func sellInstruction(a *pumpAccounts, tokenAmount, minSolOutput uint64) solana.Instruction {
	data := make([]byte, 24)
	copy(data, solana.PumpSellDiscriminator)
	binary.LittleEndian.PutUint64(data[8:16], tokenAmount)
	binary.LittleEndian.PutUint64(data[16:24], minSolOutput)

	return solana.Instruction{
		ProgramID: solana.PumpProgramID,
		Accounts: []solana.AccountMeta{
			solana.Readonly(solana.PumpGlobalAccount),
			solana.Writable(solana.PumpFeeRecipient),
			solana.Readonly(a.mint),
			solana.Writable(a.bondingCurve),
			solana.Writable(a.curveATA),
			solana.Writable(a.userATA),
			solana.WritableSigner(a.user),
			solana.Readonly(solana.SystemProgramID),
			solana.Writable(a.creatorVault),
			solana.Readonly(solana.TokenProgramID),
			solana.Readonly(solana.PumpEventAuthority),
			solana.Readonly(solana.PumpProgramID),
		},
		Data: data,
	}
}
