package store

import (
	"context"
	"errors"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileStore struct {
	db *pgxpool.Pool
}

func NewProfileStore(db *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Create(ctx context.Context, p *domain.Profile) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO profiles (name, api_key_hash)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		p.Name, p.APIKeyHash,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.APIKeyHash, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProfileStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at FROM profiles WHERE api_key_hash = $1`,
		apiKeyHash,
	).Scan(&p.ID, &p.Name, &p.APIKeyHash, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}
