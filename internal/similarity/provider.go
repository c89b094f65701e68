package similarity

import (
	"fmt"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
)

// Provider constants
const (
	ProviderKeyword = "keyword"
	ProviderVector  = "vector"
)

// NewClient creates a similarity client based on the provider name. The
// vector provider requires an embedding client.
func NewClient(provider string, store domain.ClaimStore, embedder domain.EmbeddingClient) (domain.SimilarityClient, error) {
	switch provider {
	case ProviderKeyword:
		return NewKeywordClient(store), nil

	case ProviderVector:
		if embedder == nil {
			return nil, fmt.Errorf("vector similarity provider requires an embedding client")
		}
		return NewVectorClient(store, embedder), nil

	default:
		return nil, fmt.Errorf("unknown similarity provider: %s (valid options: keyword, vector)", provider)
	}
}
