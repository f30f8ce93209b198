package marketplace

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// repQuerier is satisfied by both *pgxpool.Pool and pgx.Tx so reputation
// grants can ride inside a transition's transaction.
type repQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AddReputation applies a single atomic add-delta to a profile's reputation
// and returns the new score. The UPDATE is the whole read-modify-write, so
// concurrent grants to the same profile cannot lose updates.
func AddReputation(ctx context.Context, q repQuerier, profileID string, delta int) (int, error) {
	var newScore int
	err := q.QueryRow(ctx,
		`UPDATE profiles SET reputation = reputation + $1 WHERE id = $2 RETURNING reputation`,
		delta, profileID,
	).Scan(&newScore)
	return newScore, err
}
