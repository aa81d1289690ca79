package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.rugcheck.xyz/v1"

// Up to this many top holder accounts join the webhook address set; the
// provider caps addresses per webhook.
const maxTopHolders = 8

// Report is the best-effort enrichment for a mint: the accounts whose
// activity matters for rug detection.
type Report struct {
	PoolAddress    string
	CreatorAddress string
	TopHolders     []string
}

// Addresses flattens the report into the webhook account list.
func (r Report) Addresses() []string {
	var addrs []string
	if r.PoolAddress != "" {
		addrs = append(addrs, r.PoolAddress)
	}
	if r.CreatorAddress != "" {
		addrs = append(addrs, r.CreatorAddress)
	}
	holders := r.TopHolders
	if len(holders) > maxTopHolders {
		holders = holders[:maxTopHolders]
	}
	addrs = append(addrs, holders...)
	return addrs
}

type tokenReport struct {
	PairAddress    string   `json:"pairAddress"`
	CreatorAddress string   `json:"creatorAddress"`
	Top10Holders   []string `json:"top10Holders"`
}

// Service queries the public token report API. Newly created tokens
// routinely have no report yet; that is not an error, just an empty
// result and narrower monitoring coverage.
type Service struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.Named("rugcheck"),
	}
}

// NewServiceWithBaseURL exists for tests against a local server.
func NewServiceWithBaseURL(baseURL string, logger *zap.Logger) *Service {
	s := NewService(logger)
	s.baseURL = baseURL
	return s
}

// LookupToken fetches the pool, creator and top holder accounts for a
// mint. A missing report returns an empty Report and no error.
func (s *Service) LookupToken(ctx context.Context, mint string) (Report, error) {
	url := fmt.Sprintf("%s/tokens/%s/report", s.baseURL, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Report{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		s.logger.Debug("No token report yet", zap.String("mint", mint))
		return Report{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("report request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Report{}, fmt.Errorf("failed to read report body: %w", err)
	}

	var raw tokenReport
	if err := json.Unmarshal(body, &raw); err != nil {
		return Report{}, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return Report{
		PoolAddress:    raw.PairAddress,
		CreatorAddress: raw.CreatorAddress,
		TopHolders:     raw.Top10Holders,
	}, nil
}
