package classify

import (
	"strings"

	"github.com/rugchef/rugwatch/internal/domain"
)

// Thresholds are the tunable policy constants behind the heuristics.
// The defaults decay as on-chain behavior adapts, so they always come
// from configuration.
type Thresholds struct {
	MassiveDumpAmount      uint64
	DeveloperDumpTotal     uint64
	LiquidityDrainLamports int64
	LiquidityBurnAmount    uint64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MassiveDumpAmount:      40_000_000,
		DeveloperDumpTotal:     90_000_000,
		LiquidityDrainLamports: 1_500_000_000,
		LiquidityBurnAmount:    500_000_000,
	}
}

// Known DEX and bonding-curve program accounts. Transfers originating
// here are market-maker flow, not a developer dumping supply.
var poolPrograms = map[string]struct{}{
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": {}, // Raydium AMM v4
	"5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1": {}, // Raydium authority
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  {}, // Pump.fun bonding curve
	"pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA":  {}, // Pump.fun AMM
}

// Addresses that terminate token redeemability.
const (
	BurnAddress   = "1nc1nerator11111111111111111111111111111111"
	NullAuthority = "11111111111111111111111111111111"
)

var suspiciousKeywords = []string{"revoke", "freeze", "burn", "authority", "disable"}

// Classifier evaluates the ordered rug heuristics against a canonical
// transaction. Heuristics are not mutually exclusive in real data; only
// the first match per mint is reported so the alert stays singular.
type Classifier struct {
	thresholds Thresholds
}

func New(thresholds Thresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// Classify returns one verdict per watched mint the transaction touches.
// Each mint is classified independently: an authority change for mint X
// never produces a verdict for mint Y appearing in the same transaction.
func (c *Classifier) Classify(tx *domain.Transaction, watched map[string]struct{}) []domain.RugVerdict {
	var verdicts []domain.RugVerdict
	for _, mint := range tx.Mints() {
		if _, ok := watched[mint]; !ok {
			continue
		}
		if reason, hit := c.classifyMint(tx, mint); hit {
			verdicts = append(verdicts, domain.RugVerdict{
				Mint:              mint,
				Reason:            reason,
				EvidenceSignature: tx.Signature,
			})
		}
	}
	return verdicts
}

// classifyMint runs the heuristics in precedence order. Order governs
// message wording only: AuthorityRevoked is the highest-precision signal
// even though it is checked third.
func (c *Classifier) classifyMint(tx *domain.Transaction, mint string) (domain.ReasonCode, bool) {
	checks := []struct {
		reason domain.ReasonCode
		match  func(*domain.Transaction, string) bool
	}{
		{domain.ReasonMassiveDump, c.matchMassiveDump},
		{domain.ReasonDeveloperDump, c.matchDeveloperDump},
		{domain.ReasonAuthorityRevoked, c.matchAuthorityRevoked},
		{domain.ReasonLiquidityDrain, c.matchLiquidityDrain},
		{domain.ReasonLiquidityBurned, c.matchLiquidityBurned},
		{domain.ReasonSuspiciousKeyword, c.matchSuspiciousKeyword},
	}
	for _, check := range checks {
		if check.match(tx, mint) {
			return check.reason, true
		}
	}
	return "", false
}

// matchMassiveDump: any single movement of the mint above the absolute
// dump threshold. Movements into the incinerator are not dumps; they
// belong to the burn heuristic below.
func (c *Classifier) matchMassiveDump(tx *domain.Transaction, mint string) bool {
	for _, mv := range tx.TokenMovements {
		if mv.Mint == mint && mv.To != BurnAddress && mv.Amount > c.thresholds.MassiveDumpAmount {
			return true
		}
	}
	return false
}

// matchDeveloperDump: the summed outflow of the mint from non-pool
// addresses exceeds the higher dump threshold. Summing defeats splitting
// one large transfer into several small ones.
func (c *Classifier) matchDeveloperDump(tx *domain.Transaction, mint string) bool {
	var total uint64
	for _, mv := range tx.TokenMovements {
		if mv.Mint != mint || mv.To == BurnAddress {
			continue
		}
		if _, pool := poolPrograms[mv.From]; pool {
			continue
		}
		total += mv.Amount
	}
	return total > c.thresholds.DeveloperDumpTotal
}

// matchAuthorityRevoked: a mint or freeze authority of this mint set to
// nothing or to the null key. Unambiguous and irreversible.
func (c *Classifier) matchAuthorityRevoked(tx *domain.Transaction, mint string) bool {
	for _, ac := range tx.AuthorityChanges {
		if ac.Mint != mint {
			continue
		}
		if ac.NewAuthority == "" || ac.NewAuthority == NullAuthority || ac.NewAuthority == BurnAddress {
			return true
		}
	}
	return false
}

// matchLiquidityDrain: a native outflow beyond the drain threshold,
// a proxy for a large SOL withdrawal from the pool.
func (c *Classifier) matchLiquidityDrain(tx *domain.Transaction, _ string) bool {
	for _, mv := range tx.NativeMovements {
		if mv.AmountDelta < 0 && -mv.AmountDelta > c.thresholds.LiquidityDrainLamports {
			return true
		}
	}
	return false
}

// matchLiquidityBurned: pool tokens of this mint sent to the incinerator
// above the burn threshold. Catches burns that drain redeemability with
// no native-currency signature.
func (c *Classifier) matchLiquidityBurned(tx *domain.Transaction, mint string) bool {
	for _, mv := range tx.TokenMovements {
		if mv.Mint == mint && mv.To == BurnAddress && mv.Amount > c.thresholds.LiquidityBurnAmount {
			return true
		}
	}
	return false
}

// matchSuspiciousKeyword: last-resort fallback over the provider's
// free-text summary, for older payload formats with no structured fields.
func (c *Classifier) matchSuspiciousKeyword(tx *domain.Transaction, _ string) bool {
	if tx.Description == "" {
		return false
	}
	desc := strings.ToLower(tx.Description)
	for _, kw := range suspiciousKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
