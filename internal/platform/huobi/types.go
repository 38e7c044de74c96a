package huobi

// depthResponse is the /market/depth payload. Levels arrive as [price, size]
// pairs.
type depthResponse struct {
	Status string `json:"status"`
	ErrMsg string `json:"err-msg"`
	Ts     int64  `json:"ts"`
	Tick   struct {
		Bids [][2]float64 `json:"bids"`
		Asks [][2]float64 `json:"asks"`
	} `json:"tick"`
}

// accountsResponse is the /v1/account/accounts payload.
type accountsResponse struct {
	Status string `json:"status"`
	ErrMsg string `json:"err-msg"`
	Data   []struct {
		ID    int64  `json:"id"`
		Type  string `json:"type"`
		State string `json:"state"`
	} `json:"data"`
}

// balanceResponse is the /v1/account/accounts/{id}/balance payload. Each
// currency appears once per balance type ("trade" = free, "frozen").
type balanceResponse struct {
	Status string `json:"status"`
	ErrMsg string `json:"err-msg"`
	Data   struct {
		List []struct {
			Currency string `json:"currency"`
			Type     string `json:"type"`
			Balance  string `json:"balance"`
		} `json:"list"`
	} `json:"data"`
}

// orderRequest is the /v1/order/orders/place body. Amount and price are
// decimal strings.
type orderRequest struct {
	AccountID string `json:"account-id"`
	Symbol    string `json:"symbol"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Price     string `json:"price"`
	Source    string `json:"source"`
}

// orderResponse carries the created order ID in Data.
type orderResponse struct {
	Status string `json:"status"`
	ErrMsg string `json:"err-msg"`
	Data   string `json:"data"`
}
