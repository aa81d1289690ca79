package ingest

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// HeliusTransaction is the provider-specific enhanced transaction shape
// pushed to the webhook endpoint. Only the fields the normalizer reads
// are declared; everything else in the payload is ignored.
type HeliusTransaction struct {
	Signature       string                 `json:"signature"`
	Type            string                 `json:"type"`
	Description     string                 `json:"description"`
	TokenTransfers  []HeliusTokenTransfer  `json:"tokenTransfers"`
	NativeTransfers []HeliusNativeTransfer `json:"nativeTransfers"`
	AccountData     []HeliusAccountData    `json:"accountData"`
	Events          HeliusEvents           `json:"events"`
}

type HeliusTokenTransfer struct {
	FromUserAccount string      `json:"fromUserAccount"`
	ToUserAccount   string      `json:"toUserAccount"`
	Mint            string      `json:"mint"`
	TokenAmount     TokenAmount `json:"tokenAmount"`
}

type HeliusNativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

type HeliusAccountData struct {
	Account             string `json:"account"`
	NativeBalanceChange int64  `json:"nativeBalanceChange"`
}

type HeliusEvents struct {
	SetAuthority []HeliusSetAuthority `json:"setAuthority"`
}

type HeliusSetAuthority struct {
	Account string `json:"account"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// TokenAmount absorbs the three encodings Helius has shipped for token
// amounts: a bare number, a decimal string, and the raw-webhook object
// {"amount": "...", "decimals": n}. The value is kept in base units.
type TokenAmount uint64

func (a *TokenAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Amount json.Number `json:"amount"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*a = parseAmount(string(obj.Amount))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*a = parseAmount(string(num))
	return nil
}

func parseAmount(s string) TokenAmount {
	if s == "" {
		return 0
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return TokenAmount(u)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return TokenAmount(f)
	}
	return 0
}
