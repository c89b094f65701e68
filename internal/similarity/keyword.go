package similarity

import (
	"context"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/service"
	"github.com/google/uuid"
)

const keywordScanCap = 1000
const keywordPageSize = 200

// KeywordClient finds near-duplicates by keyword-Jaccard overlap against
// the owner's ACTIVE claims. No embeddings required; adequate for small
// per-owner stores and for running without an embedding collaborator.
type KeywordClient struct {
	store domain.ClaimStore
}

func NewKeywordClient(store domain.ClaimStore) *KeywordClient {
	return &KeywordClient{store: store}
}

func (c *KeywordClient) NearestActive(ctx context.Context, ownerID uuid.UUID, content string) (*domain.ClaimWithScore, error) {
	var best *domain.ClaimWithScore

	for offset := 0; offset < keywordScanCap; offset += keywordPageSize {
		page, err := c.store.ListActivePage(ctx, ownerID, offset, keywordPageSize)
		if err != nil {
			return nil, err
		}

		for _, claim := range page {
			score := float32(service.KeywordJaccard(content, claim.Content))
			if best == nil || score > best.Score {
				best = &domain.ClaimWithScore{Claim: claim, Score: score}
			}
		}

		if len(page) < keywordPageSize {
			break
		}
	}

	return best, nil
}
