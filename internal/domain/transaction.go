package domain

// AuthorityKind identifies which token authority a transaction mutates.
type AuthorityKind string

const (
	AuthorityMint   AuthorityKind = "mint"
	AuthorityFreeze AuthorityKind = "freeze"
)

// TokenMovement is a single token-balance change inside a transaction.
type TokenMovement struct {
	Mint   string
	From   string
	To     string
	Amount uint64
}

// NativeMovement is a native-currency (lamport) balance change.
// AmountDelta is negative for outflows.
type NativeMovement struct {
	Address     string
	AmountDelta int64
}

// AuthorityChange is a decoded setAuthority instruction for a mint.
// NewAuthority is empty when the authority was revoked.
type AuthorityChange struct {
	Mint         string
	Kind         AuthorityKind
	NewAuthority string
}

// Transaction is the canonical post-normalization shape every downstream
// component operates on. It lives for a single ingestion cycle and is
// never persisted.
type Transaction struct {
	Signature        string
	TokenMovements   []TokenMovement
	NativeMovements  []NativeMovement
	AuthorityChanges []AuthorityChange
	Description      string
}

// Mints returns the distinct mints touched by token movements or
// authority changes, in first-seen order.
func (tx *Transaction) Mints() []string {
	seen := make(map[string]struct{})
	var mints []string
	add := func(mint string) {
		if mint == "" {
			return
		}
		if _, ok := seen[mint]; ok {
			return
		}
		seen[mint] = struct{}{}
		mints = append(mints, mint)
	}
	for _, mv := range tx.TokenMovements {
		add(mv.Mint)
	}
	for _, ac := range tx.AuthorityChanges {
		add(ac.Mint)
	}
	return mints
}
