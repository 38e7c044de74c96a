package raydium

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/arbalab/cexdexarb/internal/amm"
	"github.com/arbalab/cexdexarb/internal/domain"
)

// ClientConfig holds connection and wallet parameters.
type ClientConfig struct {
	// Endpoint is the Solana JSON-RPC endpoint.
	Endpoint string
	// Keys is the resolved pool account set.
	Keys PoolKeys
	// WalletSecretKey is the base58-encoded secret key. When empty the
	// client runs observe-only: prices work, balances read as zero, and
	// swap submission fails.
	WalletSecretKey string
	Logger          *slog.Logger
}

// Client is the AMM venue client. Open establishes the RPC connection and
// Close tears it down; the monitor reopens the client every cycle.
type Client struct {
	endpoint string
	keys     PoolKeys
	owner    solana.PrivateKey
	canTrade bool
	logger   *slog.Logger

	rpc *rpc.Client

	baseAccount      solana.PublicKey
	quoteAccount     solana.PublicKey
	accountsResolved bool
}

// NewClient creates a client. With an empty wallet secret an ephemeral
// keypair is generated so price simulations still have a fee payer to sign
// with.
func NewClient(cfg ClientConfig) (*Client, error) {
	c := &Client{
		endpoint: cfg.Endpoint,
		keys:     cfg.Keys,
		logger:   cfg.Logger.With(slog.String("component", "raydium")),
	}
	if cfg.WalletSecretKey == "" {
		c.owner = solana.NewWallet().PrivateKey
		return c, nil
	}

	owner, err := solana.PrivateKeyFromBase58(cfg.WalletSecretKey)
	if err != nil {
		return nil, fmt.Errorf("raydium: decode wallet secret key: %w", err)
	}
	c.owner = owner
	c.canTrade = true
	return c, nil
}

// Open establishes the RPC connection.
func (c *Client) Open(ctx context.Context) error {
	c.rpc = rpc.New(c.endpoint)
	return nil
}

// Close tears down the RPC connection. The client can be reopened.
func (c *Client) Close() error {
	if c.rpc == nil {
		return nil
	}
	err := c.rpc.Close()
	c.rpc = nil
	return err
}

// GetUnitPrices returns the (buy, sell) price of one whole base unit,
// rounded to four decimals, from a fresh pool-state simulation.
func (c *Client) GetUnitPrices(ctx context.Context) (buy, sell float64, err error) {
	pool, err := c.PoolState(ctx)
	if err != nil {
		return 0, 0, err
	}
	buy, sell, err = amm.UnitPrices(pool)
	if err != nil {
		return 0, 0, err
	}
	return round4(buy), round4(sell), nil
}

// PoolState reads the pool reserves through the AMM program's simulate-info
// instruction, which logs the pool data without moving funds.
func (c *Client) PoolState(ctx context.Context) (domain.PoolState, error) {
	if c.rpc == nil {
		return domain.PoolState{}, fmt.Errorf("raydium: client not open: %w", domain.ErrVenueUnavailable)
	}

	info, err := c.simulatePoolInfo(ctx)
	if err != nil {
		return domain.PoolState{}, err
	}
	return domain.PoolState{
		ReserveBase:    info.PoolCoinAmount,
		ReserveQuote:   info.PoolPcAmount,
		BaseDecimals:   info.CoinDecimals,
		QuoteDecimals:  info.PcDecimals,
		FeeNumerator:   FeeNumerator,
		FeeDenominator: FeeDenominator,
	}, nil
}

// GetBalance reads the wallet's base and quote token balances. Observe-only
// clients report zero.
func (c *Client) GetBalance(ctx context.Context) (domain.Balance, error) {
	if c.rpc == nil {
		return domain.Balance{}, fmt.Errorf("raydium: client not open: %w", domain.ErrVenueUnavailable)
	}
	if !c.canTrade {
		return domain.Balance{}, nil
	}
	if err := c.ensureTokenAccounts(ctx); err != nil {
		return domain.Balance{}, err
	}

	base, err := c.tokenBalance(ctx, c.baseAccount)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("raydium: base balance: %w", err)
	}
	quote, err := c.tokenBalance(ctx, c.quoteAccount)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("raydium: quote balance: %w", err)
	}
	return domain.Balance{Base: base, Quote: quote}, nil
}

// Buy swaps notionalQuote quote units into the base asset and returns the
// transaction signature.
func (c *Client) Buy(ctx context.Context, notionalQuote float64) (string, error) {
	amountIn := uint64(notionalQuote * math.Pow(10, float64(c.keys.QuoteDecimals)))
	return c.swap(ctx, amountIn, false)
}

// Sell swaps amountBase base units into the quote asset and returns the
// transaction signature.
func (c *Client) Sell(ctx context.Context, amountBase float64) (string, error) {
	amountIn := uint64(amountBase * math.Pow(10, float64(c.keys.BaseDecimals)))
	return c.swap(ctx, amountIn, true)
}

// swap builds, signs, and sends a swap transaction. baseToQuote selects the
// direction.
func (c *Client) swap(ctx context.Context, amountIn uint64, baseToQuote bool) (string, error) {
	if c.rpc == nil {
		return "", fmt.Errorf("raydium: client not open: %w", domain.ErrVenueUnavailable)
	}
	if !c.canTrade {
		return "", fmt.Errorf("raydium: wallet not configured, cannot trade")
	}
	if err := c.ensureTokenAccounts(ctx); err != nil {
		return "", err
	}

	in, out := c.quoteAccount, c.baseAccount
	if baseToQuote {
		in, out = c.baseAccount, c.quoteAccount
	}

	blockhash, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return "", fmt.Errorf("raydium: latest blockhash: %v: %w", err, domain.ErrVenueUnavailable)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{c.swapInstruction(amountIn, in, out)},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(c.owner.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("raydium: build swap tx: %w", err)
	}
	if _, err := tx.Sign(c.signer()); err != nil {
		return "", fmt.Errorf("raydium: sign swap tx: %w", err)
	}

	sig, err := c.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("raydium: send swap tx: %v: %w", err, domain.ErrVenueUnavailable)
	}
	c.logger.Info("swap submitted",
		slog.Uint64("amount_in", amountIn),
		slog.Bool("base_to_quote", baseToQuote),
		slog.String("signature", sig.String()),
	)
	return sig.String(), nil
}

// ensureTokenAccounts resolves the wallet's token accounts for both mints
// once and caches them.
func (c *Client) ensureTokenAccounts(ctx context.Context) error {
	if c.accountsResolved {
		return nil
	}

	base, err := c.tokenAccountFor(ctx, c.keys.BaseMint)
	if err != nil {
		return fmt.Errorf("raydium: resolve base token account: %w", err)
	}
	quote, err := c.tokenAccountFor(ctx, c.keys.QuoteMint)
	if err != nil {
		return fmt.Errorf("raydium: resolve quote token account: %w", err)
	}

	c.baseAccount, c.quoteAccount = base, quote
	c.accountsResolved = true
	return nil
}

func (c *Client) tokenAccountFor(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	res, err := c.rpc.GetTokenAccountsByOwner(ctx,
		c.owner.PublicKey(),
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{Commitment: rpc.CommitmentConfirmed},
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%v: %w", err, domain.ErrVenueUnavailable)
	}
	if len(res.Value) == 0 {
		return solana.PublicKey{}, fmt.Errorf("no token account for mint %s", mint)
	}
	return res.Value[0].Pubkey, nil
}

func (c *Client) tokenBalance(ctx context.Context, account solana.PublicKey) (float64, error) {
	res, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", err, domain.ErrVenueUnavailable)
	}
	if res.Value == nil || res.Value.UiAmount == nil {
		return 0, nil
	}
	return *res.Value.UiAmount, nil
}

// signer returns the key getter used by transaction signing.
func (c *Client) signer() func(key solana.PublicKey) *solana.PrivateKey {
	return func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.owner.PublicKey()) {
			return &c.owner
		}
		return nil
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
