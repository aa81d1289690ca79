package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLookupToken_ParsesReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/mint-a/report", r.URL.Path)
		fmt.Fprint(w, `{
			"pairAddress": "pool-1",
			"creatorAddress": "creator-1",
			"top10Holders": ["h1", "h2", "h3"]
		}`)
	}))
	defer srv.Close()

	s := NewServiceWithBaseURL(srv.URL, zaptest.NewLogger(t))
	report, err := s.LookupToken(context.Background(), "mint-a")
	require.NoError(t, err)

	assert.Equal(t, "pool-1", report.PoolAddress)
	assert.Equal(t, "creator-1", report.CreatorAddress)
	assert.Equal(t, []string{"h1", "h2", "h3"}, report.TopHolders)
}

func TestLookupToken_NotFoundIsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewServiceWithBaseURL(srv.URL, zaptest.NewLogger(t))
	report, err := s.LookupToken(context.Background(), "brand-new-mint")
	require.NoError(t, err, "a token with no report yet is not an error")
	assert.Empty(t, report.Addresses())
}

func TestLookupToken_ServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewServiceWithBaseURL(srv.URL, zaptest.NewLogger(t))
	_, err := s.LookupToken(context.Background(), "mint-a")
	assert.Error(t, err)
}

func TestReport_AddressesCapsTopHolders(t *testing.T) {
	holders := make([]string, 12)
	for i := range holders {
		holders[i] = fmt.Sprintf("holder-%d", i)
	}
	r := Report{
		PoolAddress:    "pool",
		CreatorAddress: "creator",
		TopHolders:     holders,
	}

	addrs := r.Addresses()
	assert.Len(t, addrs, 2+maxTopHolders)
	assert.Equal(t, "pool", addrs[0])
	assert.Equal(t, "creator", addrs[1])
}

func TestReport_AddressesSkipsEmptyFields(t *testing.T) {
	r := Report{TopHolders: []string{"h1"}}
	assert.Equal(t, []string{"h1"}, r.Addresses())
}
