package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	pool               *pgxpool.Pool
	tableSubscriptions string
	tableTokens        string
}

func OpenPostgres(ctx context.Context, url string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	prefix := os.Getenv("DB_TABLE_PREFIX")
	s := &PgStore{
		pool:               pool,
		tableSubscriptions: prefix + "subscriptions",
		tableTokens:        prefix + "tokens",
	}
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgStore) init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`create table if not exists %s (
            user_id text primary key,
            performer text not null,
            created_at timestamptz not null default now(),
            updated_at timestamptz not null default now()
        )`, s.tableSubscriptions),
		fmt.Sprintf(`create index if not exists %s_performer_idx on %s (performer)`,
			s.tableSubscriptions, s.tableSubscriptions),
		fmt.Sprintf(`create table if not exists %s (
            token_type text primary key,
            access_token text not null,
            expires_at bigint not null
        )`, s.tableTokens),
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *PgStore) Close() error { s.pool.Close(); return nil }

func (s *PgStore) PutSubscription(sub Subscription) error {
	if sub.UserID == "" {
		return fmt.Errorf("user id required")
	}
	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.LastUpdatedAt = now
	_, err := s.pool.Exec(context.Background(),
		fmt.Sprintf(`insert into %s (user_id, performer, created_at, updated_at)
         values ($1,$2,$3,$4)
         on conflict (user_id) do update set performer=excluded.performer, updated_at=excluded.updated_at`, s.tableSubscriptions),
		sub.UserID, sub.Performer, sub.CreatedAt, sub.LastUpdatedAt,
	)
	return err
}

func (s *PgStore) GetSubscription(userID string) (Subscription, error) {
	var sub Subscription
	err := s.pool.QueryRow(context.Background(),
		fmt.Sprintf(`select user_id, performer, created_at, updated_at from %s where user_id=$1`, s.tableSubscriptions), userID,
	).Scan(&sub.UserID, &sub.Performer, &sub.CreatedAt, &sub.LastUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func (s *PgStore) DeleteSubscription(userID string) error {
	_, err := s.pool.Exec(context.Background(),
		fmt.Sprintf(`delete from %s where user_id=$1`, s.tableSubscriptions), userID)
	return err
}

func (s *PgStore) ListByPerformer(performerKey string) ([]Subscription, error) {
	rows, err := s.pool.Query(context.Background(),
		fmt.Sprintf(`select user_id, performer, created_at, updated_at from %s where performer=$1`, s.tableSubscriptions), performerKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.UserID, &sub.Performer, &sub.CreatedAt, &sub.LastUpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PgStore) GetToken() (CachedToken, error) {
	var tok CachedToken
	err := s.pool.QueryRow(context.Background(),
		fmt.Sprintf(`select access_token, expires_at from %s where token_type='channel_access_token'`, s.tableTokens),
	).Scan(&tok.AccessToken, &tok.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CachedToken{}, ErrNotFound
	}
	if err != nil {
		return CachedToken{}, err
	}
	return tok, nil
}

func (s *PgStore) PutToken(tok CachedToken) error {
	_, err := s.pool.Exec(context.Background(),
		fmt.Sprintf(`insert into %s (token_type, access_token, expires_at)
         values ('channel_access_token',$1,$2)
         on conflict (token_type) do update set access_token=excluded.access_token, expires_at=excluded.expires_at`, s.tableTokens),
		tok.AccessToken, tok.ExpiresAt,
	)
	return err
}
