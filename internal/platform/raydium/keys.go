// Package raydium is the on-chain venue client for a Raydium constant-
// product pool on Solana: registry lookup of pool accounts, reserve reads
// via transaction simulation, and swap submission.
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// Program and fee constants for Raydium AMM v4 pools.
var (
	AmmProgramID   = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	SerumProgramID = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
)

// Raydium v4 charges a fixed 25/10000 swap fee on the input side.
const (
	FeeNumerator   uint64 = 25
	FeeDenominator uint64 = 10000
)

// PoolKeys is the full account set of one AMM pool and its Serum market,
// resolved once at startup from the registry.
type PoolKeys struct {
	AmmID            solana.PublicKey
	Authority        solana.PublicKey
	BaseMint         solana.PublicKey
	QuoteMint        solana.PublicKey
	LpMint           solana.PublicKey
	OpenOrders       solana.PublicKey
	TargetOrders     solana.PublicKey
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	MarketID         solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketAuthority  solana.PublicKey
	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
	BaseDecimals     int
	QuoteDecimals    int
}
