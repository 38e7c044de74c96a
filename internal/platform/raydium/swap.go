package raydium

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/arbalab/cexdexarb/internal/domain"
)

// AMM program instruction tags.
const (
	instructionSwap         byte = 9
	instructionSimulateInfo byte = 12
)

// swapInstruction builds the AMM v4 swap-base-in instruction: fixed input
// amount, zero minimum output (slippage is handled upstream by the
// evaluator's gates).
func (c *Client) swapInstruction(amountIn uint64, tokenAccountIn, tokenAccountOut solana.PublicKey) solana.Instruction {
	keys := c.keys
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(TokenProgramID, false, false),
		solana.NewAccountMeta(keys.AmmID, true, false),
		solana.NewAccountMeta(keys.Authority, false, false),
		solana.NewAccountMeta(keys.OpenOrders, true, false),
		solana.NewAccountMeta(keys.TargetOrders, true, false),
		solana.NewAccountMeta(keys.BaseVault, true, false),
		solana.NewAccountMeta(keys.QuoteVault, true, false),
		solana.NewAccountMeta(SerumProgramID, false, false),
		solana.NewAccountMeta(keys.MarketID, true, false),
		solana.NewAccountMeta(keys.MarketBids, true, false),
		solana.NewAccountMeta(keys.MarketAsks, true, false),
		solana.NewAccountMeta(keys.MarketEventQueue, true, false),
		solana.NewAccountMeta(keys.MarketBaseVault, true, false),
		solana.NewAccountMeta(keys.MarketQuoteVault, true, false),
		solana.NewAccountMeta(keys.MarketAuthority, false, false),
		solana.NewAccountMeta(tokenAccountIn, true, false),
		solana.NewAccountMeta(tokenAccountOut, true, false),
		solana.NewAccountMeta(c.owner.PublicKey(), false, true),
	}

	data := make([]byte, 17)
	data[0] = instructionSwap
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], 0) // min_amount_out

	return solana.NewInstruction(AmmProgramID, metas, data)
}

// poolInfoInstruction builds the simulate-info instruction, which makes the
// AMM program log its pool state without any transfer.
func (c *Client) poolInfoInstruction() solana.Instruction {
	keys := c.keys
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(keys.AmmID, false, false),
		solana.NewAccountMeta(keys.Authority, false, false),
		solana.NewAccountMeta(keys.OpenOrders, false, false),
		solana.NewAccountMeta(keys.BaseVault, false, false),
		solana.NewAccountMeta(keys.QuoteVault, false, false),
		solana.NewAccountMeta(keys.LpMint, false, false),
		solana.NewAccountMeta(keys.MarketID, false, false),
	}

	data := []byte{instructionSimulateInfo, 0} // simulate_type 0 = pool info

	return solana.NewInstruction(AmmProgramID, metas, data)
}

// poolInfo is the JSON blob the AMM program logs for simulate-info.
type poolInfo struct {
	Status         uint64 `json:"status"`
	CoinDecimals   int    `json:"coin_decimals"`
	PcDecimals     int    `json:"pc_decimals"`
	PoolCoinAmount uint64 `json:"pool_coin_amount"`
	PoolPcAmount   uint64 `json:"pool_pc_amount"`
}

// simulatePoolInfo signs and simulates a transaction carrying the
// simulate-info instruction and parses the pool state out of the program
// logs.
func (c *Client) simulatePoolInfo(ctx context.Context) (poolInfo, error) {
	blockhash, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return poolInfo{}, fmt.Errorf("raydium: latest blockhash: %v: %w", err, domain.ErrVenueUnavailable)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{c.poolInfoInstruction()},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(c.owner.PublicKey()),
	)
	if err != nil {
		return poolInfo{}, fmt.Errorf("raydium: build pool info tx: %w", err)
	}
	if _, err := tx.Sign(c.signer()); err != nil {
		return poolInfo{}, fmt.Errorf("raydium: sign pool info tx: %w", err)
	}

	res, err := c.rpc.SimulateTransaction(ctx, tx)
	if err != nil {
		return poolInfo{}, fmt.Errorf("raydium: simulate pool info: %v: %w", err, domain.ErrVenueUnavailable)
	}
	if res.Value == nil {
		return poolInfo{}, fmt.Errorf("raydium: simulate pool info: empty result: %w", domain.ErrVenueUnavailable)
	}
	if res.Value.Err != nil {
		return poolInfo{}, fmt.Errorf("raydium: simulate pool info: program error: %v", res.Value.Err)
	}

	return parsePoolInfoLogs(res.Value.Logs)
}

// parsePoolInfoLogs extracts the pool data JSON from the simulation's
// program logs.
func parsePoolInfoLogs(logs []string) (poolInfo, error) {
	for _, line := range logs {
		start := strings.Index(line, "{")
		if start < 0 {
			continue
		}
		end := strings.LastIndex(line, "}")
		if end < start {
			continue
		}
		var info poolInfo
		if err := json.Unmarshal([]byte(line[start:end+1]), &info); err != nil {
			continue
		}
		if info.PoolCoinAmount == 0 && info.PoolPcAmount == 0 {
			continue
		}
		return info, nil
	}
	return poolInfo{}, fmt.Errorf("raydium: no pool data in %d simulation logs", len(logs))
}
