package domain

// ReasonCode names the heuristic that flagged a mint.
type ReasonCode string

const (
	ReasonMassiveDump       ReasonCode = "massive_dump"
	ReasonDeveloperDump     ReasonCode = "developer_dump"
	ReasonLiquidityDrain    ReasonCode = "liquidity_drain"
	ReasonAuthorityRevoked  ReasonCode = "authority_revoked"
	ReasonLiquidityBurned   ReasonCode = "liquidity_burned"
	ReasonSuspiciousKeyword ReasonCode = "suspicious_keyword"
	ReasonSlowDrain         ReasonCode = "slow_drain"
)

// SlowDrainEvidence marks verdicts synthesized by the balance poller,
// which have no on-chain transaction signature behind them.
const SlowDrainEvidence = "slow-drain-poll"

// RugVerdict is the output of classification: one watched mint flagged
// by one heuristic, with the transaction signature as evidence.
type RugVerdict struct {
	Mint              string
	Reason            ReasonCode
	EvidenceSignature string
}

// Headline returns a short human label for the reason, used in alert text.
func (r ReasonCode) Headline() string {
	switch r {
	case ReasonMassiveDump:
		return "Massive token dump"
	case ReasonDeveloperDump:
		return "Developer wallets dumping"
	case ReasonLiquidityDrain:
		return "Liquidity drained"
	case ReasonAuthorityRevoked:
		return "Token authority revoked"
	case ReasonLiquidityBurned:
		return "Pool tokens burned"
	case ReasonSuspiciousKeyword:
		return "Suspicious transaction"
	case ReasonSlowDrain:
		return "Liquidity slowly drained"
	default:
		return string(r)
	}
}
