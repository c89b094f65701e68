package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

const claimColumns = `id, owner_id, kind, parent_id, content, importance, confidence, is_protected, lane, status, canonical_key, support_count, source, source_id, temporal_context, event_ref, event_date, retrieval_count, quality_score, metadata, note, created_at, updated_at`

type ClaimStore struct {
	db *pgxpool.Pool
}

func NewClaimStore(db *pgxpool.Pool) *ClaimStore {
	return &ClaimStore{db: db}
}

func scanClaim(row pgx.Row, c *domain.Claim) error {
	return row.Scan(
		&c.ID, &c.OwnerID, &c.Kind, &c.ParentID, &c.Content,
		&c.Importance, &c.Confidence, &c.IsProtected, &c.Lane, &c.Status,
		&c.CanonicalKey, &c.SupportCount, &c.Source, &c.SourceID,
		&c.TemporalContext, &c.EventRef, &c.EventDate,
		&c.RetrievalCount, &c.QualityScore, &c.Metadata, &c.Note,
		&c.CreatedAt, &c.UpdatedAt,
	)
}

func (s *ClaimStore) Create(ctx context.Context, c *domain.Claim) error {
	var embedding *pgvector.Vector
	if len(c.Embedding) > 0 {
		v := pgvector.NewVector(c.Embedding)
		embedding = &v
	}

	if c.SupportCount == 0 {
		c.SupportCount = 1
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO memory_entries (owner_id, kind, parent_id, content, importance, confidence, is_protected, lane, status, canonical_key, support_count, source, source_id, temporal_context, event_ref, event_date, embedding, metadata, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 RETURNING id, created_at, updated_at`,
		c.OwnerID, c.Kind, c.ParentID, c.Content, c.Importance, c.Confidence,
		c.IsProtected, c.Lane, c.Status, c.CanonicalKey, c.SupportCount,
		c.Source, c.SourceID, c.TemporalContext, c.EventRef, c.EventDate,
		embedding, c.Metadata, c.Note,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *ClaimStore) GetByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*domain.Claim, error) {
	c := &domain.Claim{}
	err := scanClaim(s.db.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM memory_entries WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *ClaimStore) GetActiveByKey(ctx context.Context, ownerID uuid.UUID, key string) (*domain.Claim, error) {
	c := &domain.Claim{}
	err := scanClaim(s.db.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM memory_entries
		 WHERE owner_id = $1 AND canonical_key = $2 AND status = 'ACTIVE'`,
		ownerID, key,
	), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *ClaimStore) ListActivePage(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.Claim, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+claimColumns+` FROM memory_entries
		 WHERE owner_id = $1 AND status = 'ACTIVE'
		 ORDER BY created_at ASC, id ASC
		 OFFSET $2 LIMIT $3`,
		ownerID, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list active page: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

func (s *ClaimStore) ListByEventRef(ctx context.Context, ownerID uuid.UUID, eventRef string) ([]domain.Claim, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+claimColumns+` FROM memory_entries
		 WHERE owner_id = $1 AND event_ref = $2 AND status = 'ACTIVE'
		 ORDER BY created_at ASC`,
		ownerID, eventRef,
	)
	if err != nil {
		return nil, fmt.Errorf("list by event ref: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

func collectClaims(rows pgx.Rows) ([]domain.Claim, error) {
	var claims []domain.Claim
	for rows.Next() {
		var c domain.Claim
		if err := scanClaim(rows, &c); err != nil {
			return nil, fmt.Errorf("scan claim row: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (s *ClaimStore) ListOwnerIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT owner_id FROM memory_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ownerIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ownerIDs = append(ownerIDs, id)
	}
	return ownerIDs, rows.Err()
}

func (s *ClaimStore) UpdateConfidence(ctx context.Context, id uuid.UUID, confidence int) error {
	return s.exec(ctx,
		`UPDATE memory_entries SET confidence = $1, updated_at = NOW() WHERE id = $2`,
		confidence, id,
	)
}

func (s *ClaimStore) UpdateImportance(ctx context.Context, id uuid.UUID, importance int) error {
	return s.exec(ctx,
		`UPDATE memory_entries SET importance = $1, updated_at = NOW() WHERE id = $2`,
		importance, id,
	)
}

func (s *ClaimStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ClaimStatus, note string) error {
	return s.exec(ctx,
		`UPDATE memory_entries SET status = $1, note = $2, updated_at = NOW() WHERE id = $3`,
		status, note, id,
	)
}

func (s *ClaimStore) UpdateContent(ctx context.Context, id uuid.UUID, content, canonicalKey string) error {
	err := s.exec(ctx,
		`UPDATE memory_entries SET content = $1, canonical_key = $2, updated_at = NOW() WHERE id = $3`,
		content, canonicalKey, id,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

func (s *ClaimStore) IncrementSupport(ctx context.Context, id uuid.UUID, confidence int) error {
	return s.exec(ctx,
		`UPDATE memory_entries
		 SET support_count = support_count + 1, confidence = $1, updated_at = NOW()
		 WHERE id = $2`,
		confidence, id,
	)
}

func (s *ClaimStore) IncrementRetrieval(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	// Telemetry only. updated_at is left alone so reads do not feed the
	// recency term of the ranking score.
	_, err := s.db.Exec(ctx,
		`UPDATE memory_entries
		 SET retrieval_count = retrieval_count + 1
		 WHERE id = ANY($1)`,
		ids,
	)
	return err
}

func (s *ClaimStore) Promote(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx,
		`UPDATE memory_entries
		 SET is_protected = TRUE, confidence = 100, updated_at = NOW()
		 WHERE id = $1`,
		id,
	)
}

func (s *ClaimStore) UpdateQualityScore(ctx context.Context, id uuid.UUID, score float32) error {
	return s.exec(ctx,
		`UPDATE memory_entries SET quality_score = $1, updated_at = NOW() WHERE id = $2`,
		score, id,
	)
}

func (s *ClaimStore) Purge(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM memory_entries WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ClaimStore) FindSimilar(ctx context.Context, ownerID uuid.UUID, embedding []float32, threshold float32, limit int) ([]domain.ClaimWithScore, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT `+claimColumns+`, 1 - (embedding <=> $1) AS score
		 FROM memory_entries
		 WHERE owner_id = $2 AND status = 'ACTIVE' AND embedding IS NOT NULL
		   AND 1 - (embedding <=> $1) >= $3
		 ORDER BY score DESC
		 LIMIT $4`,
		vec, ownerID, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find similar query: %w", err)
	}
	defer rows.Close()

	var results []domain.ClaimWithScore
	for rows.Next() {
		var cs domain.ClaimWithScore
		err := rows.Scan(
			&cs.ID, &cs.OwnerID, &cs.Kind, &cs.ParentID, &cs.Content,
			&cs.Importance, &cs.Confidence, &cs.IsProtected, &cs.Lane, &cs.Status,
			&cs.CanonicalKey, &cs.SupportCount, &cs.Source, &cs.SourceID,
			&cs.TemporalContext, &cs.EventRef, &cs.EventDate,
			&cs.RetrievalCount, &cs.QualityScore, &cs.Metadata, &cs.Note,
			&cs.CreatedAt, &cs.UpdatedAt,
			&cs.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan find similar row: %w", err)
		}
		results = append(results, cs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find similar rows: %w", err)
	}
	return results, nil
}

func (s *ClaimStore) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
