package domain

import "context"

// TransactionManager runs a function inside a database transaction.
// Repositories participating in the transaction pick it up from the context.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuthorityRepository loads operator-managed domain authority scores.
type AuthorityRepository interface {
	ListDomainScores(ctx context.Context) (map[string]float64, error)
	UpsertDomainScore(ctx context.Context, domain string, score float64) error
}
