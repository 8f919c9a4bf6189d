package slot

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"RocketShoes/internal/pgdb"
)

const queryTimeout = 3 * time.Second

type PostgresSlot struct {
	db pgdb.Querier
}

func NewPostgresSlot(db pgdb.Querier) *PostgresSlot {
	return &PostgresSlot{db: db}
}

func (s *PostgresSlot) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var v string
	err := s.db.QueryRow(ctx, `
		SELECT value
		FROM cart_slots
		WHERE key = $1
	`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *PostgresSlot) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.Exec(ctx, `
		INSERT INTO cart_slots (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, value)
	return err
}

func (s *PostgresSlot) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
