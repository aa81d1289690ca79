package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rugchef/rugwatch/internal/domain"
)

var (
	ErrMissingSignature = errors.New("payload has no signature")
	ErrEmptyTransaction = errors.New("payload has no decodable changes")
)

// Normalizer performs the one explicit, total parse at the provider
// boundary. Everything downstream operates on domain.Transaction; no
// other component touches the raw payload.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize converts a raw provider payload into the canonical shape.
// A failure here is a tagged error for the caller to log and skip; it
// must never abort the rest of the batch.
func (n *Normalizer) Normalize(raw *HeliusTransaction) (*domain.Transaction, error) {
	if raw == nil {
		return nil, ErrEmptyTransaction
	}
	if raw.Signature == "" {
		return nil, ErrMissingSignature
	}

	tx := &domain.Transaction{
		Signature:   raw.Signature,
		Description: raw.Description,
	}

	for _, tt := range raw.TokenTransfers {
		if tt.Mint == "" || tt.TokenAmount == 0 {
			continue
		}
		tx.TokenMovements = append(tx.TokenMovements, domain.TokenMovement{
			Mint:   tt.Mint,
			From:   tt.FromUserAccount,
			To:     tt.ToUserAccount,
			Amount: uint64(tt.TokenAmount),
		})
	}

	tx.NativeMovements = nativeMovements(raw)
	tx.AuthorityChanges = authorityChanges(raw)

	if len(tx.TokenMovements) == 0 && len(tx.NativeMovements) == 0 &&
		len(tx.AuthorityChanges) == 0 && tx.Description == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTransaction, raw.Signature)
	}
	return tx, nil
}

// nativeMovements prefers per-account balance deltas when the provider
// includes them; otherwise it derives deltas from the transfer list.
func nativeMovements(raw *HeliusTransaction) []domain.NativeMovement {
	var moves []domain.NativeMovement
	if len(raw.AccountData) > 0 {
		for _, ad := range raw.AccountData {
			if ad.Account == "" || ad.NativeBalanceChange == 0 {
				continue
			}
			moves = append(moves, domain.NativeMovement{
				Address:     ad.Account,
				AmountDelta: ad.NativeBalanceChange,
			})
		}
		return moves
	}
	for _, nt := range raw.NativeTransfers {
		if nt.Amount == 0 {
			continue
		}
		if nt.FromUserAccount != "" {
			moves = append(moves, domain.NativeMovement{
				Address:     nt.FromUserAccount,
				AmountDelta: -nt.Amount,
			})
		}
		if nt.ToUserAccount != "" {
			moves = append(moves, domain.NativeMovement{
				Address:     nt.ToUserAccount,
				AmountDelta: nt.Amount,
			})
		}
	}
	return moves
}

// authorityChanges decodes structured setAuthority events. The account
// in a mint or freeze authority change is the mint itself. The provider
// does not tag which authority kind was touched, so the transaction
// type string decides between freeze and mint.
func authorityChanges(raw *HeliusTransaction) []domain.AuthorityChange {
	kind := domain.AuthorityMint
	if strings.Contains(strings.ToUpper(raw.Type), "FREEZE") {
		kind = domain.AuthorityFreeze
	}
	var changes []domain.AuthorityChange
	for _, sa := range raw.Events.SetAuthority {
		if sa.Account == "" {
			continue
		}
		changes = append(changes, domain.AuthorityChange{
			Mint:         sa.Account,
			Kind:         kind,
			NewAuthority: sa.To,
		})
	}
	return changes
}
