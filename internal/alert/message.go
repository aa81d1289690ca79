package alert

import (
	"fmt"

	"github.com/rugchef/rugwatch/internal/domain"
)

const (
	explorerTxURL = "https://solscan.io/tx/%s"
	chartURL      = "https://dexscreener.com/solana/%s"
)

// FormatAlert renders the single alert message sent to every subscriber:
// what happened, to which mint, and where to verify it.
func FormatAlert(v domain.RugVerdict) string {
	msg := fmt.Sprintf("🚨 RUG DETECTED — %s\n\nToken: %s\nSignal: %s\n",
		v.Reason.Headline(), v.Mint, v.Reason)
	if v.EvidenceSignature != "" && v.EvidenceSignature != domain.SlowDrainEvidence {
		msg += fmt.Sprintf("Evidence: "+explorerTxURL+"\n", v.EvidenceSignature)
	} else {
		msg += "Evidence: liquidity balance collapsed below the floor\n"
	}
	msg += fmt.Sprintf("Chart: "+chartURL, v.Mint)
	return msg
}
