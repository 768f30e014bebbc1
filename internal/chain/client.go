package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/stableflow/internal/config"
	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/pkg/clients"
	"github.com/GlebRadaev/stableflow/pkg/validate"
)

const (
	MainnetURL = "https://api.mainnet-beta.solana.com"
	DevnetURL  = "https://api.devnet.solana.com"

	USDCMintMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDCMintDevnet  = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"

	lamportsExp = -9
)

type Client struct {
	url    string
	mint   string
	devnet bool
	client clients.HTTPClientI
	nextID atomic.Uint64
}

// New picks the endpoint and USDC mint by network mode. cfg.SolanaRPCURL, when set,
// replaces the endpoint but not the mint.
func New(cfg *config.Config, client clients.HTTPClientI) *Client {
	c := &Client{
		url:    MainnetURL,
		mint:   USDCMintMainnet,
		devnet: cfg.SolanaDevnet,
		client: client,
	}
	if cfg.SolanaDevnet {
		c.url = DevnetURL
		c.mint = USDCMintDevnet
	}
	if cfg.SolanaRPCURL != "" {
		c.url = cfg.SolanaRPCURL
	}
	return c
}

func (c *Client) USDCMint() string {
	return c.mint
}

func (c *Client) Devnet() bool {
	return c.devnet
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call performs one JSON-RPC exchange and decodes result into out.
// A nil out skips decoding; callers that care about a null result pass *json.RawMessage.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	headers := http.Header{"Content-Type": []string{"application/json"}}
	status, respBody, _, err := c.client.Post(ctx, c.url, headers, body)
	if err != nil {
		zap.L().Warn("rpc call failed", zap.String("method", method), zap.Error(err))
		return &domain.NetworkError{Op: method, Err: err}
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		zap.L().Warn("rpc call returned unexpected status", zap.String("method", method), zap.Int("status", status))
		return &domain.NetworkError{Op: method, Err: fmt.Errorf("unexpected status code %d", status)}
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return &domain.NetworkError{Op: method, Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.Error != nil {
		zap.L().Debug("rpc node returned error", zap.String("method", method), zap.Int("code", resp.Error.Code), zap.String("message", resp.Error.Message))
		return &domain.RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if out == nil {
		return nil
	}
	if len(resp.Result) == 0 {
		return &domain.NetworkError{Op: method, Err: errors.New("response has neither result nor error")}
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return &domain.NetworkError{Op: method, Err: fmt.Errorf("decode result: %w", err)}
	}
	return nil
}

func checkAddress(address string) error {
	if !validate.IsSolanaAddress(address) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
	}
	return nil
}

// GetNativeBalance returns the SOL balance of address.
func (c *Client) GetNativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if err := checkAddress(address); err != nil {
		return decimal.Zero, err
	}

	var result struct {
		Value *int64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []any{address}, &result); err != nil {
		return decimal.Zero, err
	}
	if result.Value == nil {
		return decimal.Zero, &domain.NetworkError{Op: "getBalance", Err: errors.New("missing balance value")}
	}
	return decimal.NewFromInt(*result.Value).Shift(lamportsExp), nil
}

type tokenAmount struct {
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
}

type tokenAccount struct {
	Account struct {
		Data struct {
			Parsed struct {
				Info struct {
					TokenAmount tokenAmount `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"account"`
}

func (a tokenAmount) value() (decimal.Decimal, error) {
	if a.UIAmountString != "" {
		return decimal.NewFromString(a.UIAmountString)
	}
	if a.UIAmount != nil {
		return decimal.NewFromFloat(*a.UIAmount), nil
	}
	return decimal.Zero, nil
}

// GetTokenBalance sums the balance of mint over every token account owned by address.
func (c *Client) GetTokenBalance(ctx context.Context, address, mint string) (decimal.Decimal, error) {
	if err := checkAddress(address); err != nil {
		return decimal.Zero, err
	}
	if err := checkAddress(mint); err != nil {
		return decimal.Zero, err
	}

	params := []any{
		address,
		map[string]string{"mint": mint},
		map[string]string{"encoding": "jsonParsed"},
	}
	var result struct {
		Value []tokenAccount `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, acc := range result.Value {
		amount, err := acc.Account.Data.Parsed.Info.TokenAmount.value()
		if err != nil {
			return decimal.Zero, &domain.NetworkError{Op: "getTokenAccountsByOwner", Err: fmt.Errorf("parse token amount: %w", err)}
		}
		total = total.Add(amount)
	}
	return total, nil
}

// GetUSDCBalance is GetTokenBalance for the configured USDC mint.
func (c *Client) GetUSDCBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return c.GetTokenBalance(ctx, address, c.mint)
}

// GetCombinedBalance fetches both legs concurrently. A failed leg does not
// discard the other; the error is non-nil only when both legs fail.
func (c *Client) GetCombinedBalance(ctx context.Context, address string) (domain.CombinedBalance, error) {
	var res domain.CombinedBalance
	if err := checkAddress(address); err != nil {
		return res, err
	}

	var g errgroup.Group
	g.Go(func() error {
		res.Native, res.NativeErr = c.GetNativeBalance(ctx, address)
		return nil
	})
	g.Go(func() error {
		res.Token, res.TokenErr = c.GetUSDCBalance(ctx, address)
		return nil
	})
	_ = g.Wait()

	if res.NativeErr != nil && res.TokenErr != nil {
		return res, errors.Join(res.NativeErr, res.TokenErr)
	}
	return res, nil
}

type signatureStatus struct {
	ConfirmationStatus string          `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}

// IsTransactionConfirmed maps getSignatureStatuses onto NotFound, Pending or Confirmed.
func (c *Client) IsTransactionConfirmed(ctx context.Context, signature string) (domain.TxStatus, error) {
	if signature == "" {
		return domain.TxStatus{}, domain.NewValidationError("signature", "Transaction signature is required")
	}

	var result struct {
		Value []*signatureStatus `json:"value"`
	}
	if err := c.call(ctx, "getSignatureStatuses", []any{[]string{signature}}, &result); err != nil {
		return domain.TxStatus{}, err
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return domain.TxStatus{State: domain.TxNotFound}, nil
	}

	raw := result.Value[0].ConfirmationStatus
	switch raw {
	case "confirmed", "finalized":
		return domain.TxStatus{State: domain.TxConfirmed, Raw: raw}, nil
	default:
		return domain.TxStatus{State: domain.TxPending, Raw: raw}, nil
	}
}

type Transaction struct {
	Signature string          `json:"signature"`
	Slot      uint64          `json:"slot"`
	BlockTime *int64          `json:"blockTime"`
	Failed    bool            `json:"failed"`
	Raw       json.RawMessage `json:"-"`
}

// GetTransaction returns domain.ErrNotFound when the node has no record of signature.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	if signature == "" {
		return nil, domain.NewValidationError("signature", "Transaction signature is required")
	}

	params := []any{
		signature,
		map[string]any{"encoding": "jsonParsed", "maxSupportedTransactionVersion": 0},
	}
	var raw json.RawMessage
	if err := c.call(ctx, "getTransaction", params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("transaction %s: %w", signature, domain.ErrNotFound)
	}

	var body struct {
		Slot      uint64 `json:"slot"`
		BlockTime *int64 `json:"blockTime"`
		Meta      *struct {
			Err json.RawMessage `json:"err"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &domain.NetworkError{Op: "getTransaction", Err: fmt.Errorf("decode transaction: %w", err)}
	}

	tx := &Transaction{Signature: signature, Slot: body.Slot, BlockTime: body.BlockTime, Raw: raw}
	if body.Meta != nil && len(body.Meta.Err) > 0 && string(body.Meta.Err) != "null" {
		tx.Failed = true
	}
	return tx, nil
}

func (c *Client) clusterSuffix() string {
	if c.devnet {
		return "?cluster=devnet"
	}
	return ""
}

func (c *Client) ExplorerURL(signature string) string {
	return "https://explorer.solana.com/tx/" + signature + c.clusterSuffix()
}

func (c *Client) SolscanURL(signature string) string {
	return "https://solscan.io/tx/" + signature + c.clusterSuffix()
}
