package solana

// Anchor instruction discriminators for the pump.fun program.
var (
	PumpCreateDiscriminator = []byte{24, 30, 200, 40, 5, 28, 7, 119}
	PumpBuyDiscriminator    = []byte{102, 6, 61, 18, 1, 218, 235, 234}
	PumpSellDiscriminator   = []byte{51, 230, 133, 164, 1, 127, 131, 173}
)

// Create instruction account positions.
const (
	PumpCreateMintIndex    = 0
	PumpCreateCurveIndex   = 2
	PumpCreateCreatorIndex = 7
)
