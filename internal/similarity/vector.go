package similarity

import (
	"context"
	"fmt"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/google/uuid"
)

// vectorFloor keeps the cosine query selective; anything below it is not a
// plausible near-duplicate and is cheaper to exclude in SQL.
const vectorFloor = 0.5

// VectorClient finds near-duplicates by embedding cosine similarity via the
// store's vector index.
type VectorClient struct {
	store    domain.ClaimStore
	embedder domain.EmbeddingClient
}

func NewVectorClient(store domain.ClaimStore, embedder domain.EmbeddingClient) *VectorClient {
	return &VectorClient{store: store, embedder: embedder}
}

func (c *VectorClient) NearestActive(ctx context.Context, ownerID uuid.UUID, content string) (*domain.ClaimWithScore, error) {
	embedding, err := c.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed for near-duplicate lookup: %w", err)
	}

	matches, err := c.store.FindSimilar(ctx, ownerID, embedding, vectorFloor, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}
