package raydium

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys() PoolKeys {
	k := PoolKeys{BaseDecimals: 9, QuoteDecimals: 6}
	for _, dst := range []*solana.PublicKey{
		&k.AmmID, &k.Authority, &k.BaseMint, &k.QuoteMint, &k.LpMint,
		&k.OpenOrders, &k.TargetOrders, &k.BaseVault, &k.QuoteVault,
		&k.MarketID, &k.MarketAuthority, &k.MarketBaseVault, &k.MarketQuoteVault,
		&k.MarketBids, &k.MarketAsks, &k.MarketEventQueue,
	} {
		*dst = solana.NewWallet().PublicKey()
	}
	return k
}

func newObserveClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		Endpoint: "http://localhost:8899",
		Keys:     testKeys(),
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	return c
}

func TestSwapInstruction_Layout(t *testing.T) {
	c := newObserveClient(t)
	in := solana.NewWallet().PublicKey()
	out := solana.NewWallet().PublicKey()

	inst := c.swapInstruction(1_500_000, in, out)

	assert.Equal(t, AmmProgramID, inst.ProgramID())

	data, err := inst.Data()
	require.NoError(t, err)
	require.Len(t, data, 17)
	assert.Equal(t, instructionSwap, data[0])
	assert.Equal(t, uint64(1_500_000), binary.LittleEndian.Uint64(data[1:9]))
	// min_amount_out is always zero; the evaluator gates slippage upstream.
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(data[9:17]))

	accounts := inst.Accounts()
	require.Len(t, accounts, 18)
	assert.Equal(t, TokenProgramID, accounts[0].PublicKey)
	assert.Equal(t, c.keys.AmmID, accounts[1].PublicKey)
	assert.Equal(t, in, accounts[15].PublicKey)
	assert.Equal(t, out, accounts[16].PublicKey)

	owner := accounts[17]
	assert.Equal(t, c.owner.PublicKey(), owner.PublicKey)
	assert.True(t, owner.IsSigner)
}

func TestPoolInfoInstruction(t *testing.T) {
	c := newObserveClient(t)

	inst := c.poolInfoInstruction()
	assert.Equal(t, AmmProgramID, inst.ProgramID())

	data, err := inst.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{instructionSimulateInfo, 0}, data)

	accounts := inst.Accounts()
	require.Len(t, accounts, 7)
	for _, acct := range accounts {
		assert.False(t, acct.IsWritable)
		assert.False(t, acct.IsSigner)
	}
}

func TestParsePoolInfoLogs(t *testing.T) {
	logs := []string{
		"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 invoke [1]",
		"Program log: calc_exact len:0",
		`Program log: GetPoolData: {"status":1,"coin_decimals":9,"pc_decimals":6,"lp_decimals":9,"pool_pc_amount":1500000000000,"pool_coin_amount":10000000000000,"pnl_pc_amount":0,"pnl_coin_amount":0,"pool_lp_supply":1000,"pool_open_time":0,"amm_id":"x"}`,
		"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 success",
	}

	info, err := parsePoolInfoLogs(logs)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000_000_000), info.PoolCoinAmount)
	assert.Equal(t, uint64(1_500_000_000_000), info.PoolPcAmount)
	assert.Equal(t, 9, info.CoinDecimals)
	assert.Equal(t, 6, info.PcDecimals)
}

func TestParsePoolInfoLogs_SkipsNonPoolJSON(t *testing.T) {
	logs := []string{
		`Program log: {"error":"something"}`,
		`Program log: GetPoolData: {"status":1,"coin_decimals":9,"pc_decimals":6,"pool_pc_amount":42,"pool_coin_amount":7}`,
	}

	info, err := parsePoolInfoLogs(logs)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), info.PoolCoinAmount)
	assert.Equal(t, uint64(42), info.PoolPcAmount)
}

func TestParsePoolInfoLogs_NoPoolData(t *testing.T) {
	_, err := parsePoolInfoLogs([]string{
		"Program invoke [1]",
		"Program log: plain text",
	})
	assert.Error(t, err)
}

func TestParsePoolInfoLogs_Empty(t *testing.T) {
	_, err := parsePoolInfoLogs(nil)
	assert.Error(t, err)
}
