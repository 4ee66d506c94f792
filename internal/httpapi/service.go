package httpapi

import (
	"context"
	"sync/atomic"

	"recommendd/internal/catalog"
	"recommendd/internal/hwprobe"
	"recommendd/internal/recommend"
	"recommendd/pkg/types"
)

// LiveService implements Service against a real catalog and live hardware
// probing, the production wiring used by cmd/recommendd. It holds no mutable
// state beyond the probed flag.
type LiveService struct {
	Catalog *catalog.Catalog
	probed  atomic.Bool
}

// NewLiveService wraps an already-loaded catalog for the HTTP layer.
func NewLiveService(cat *catalog.Catalog) *LiveService {
	return &LiveService{Catalog: cat}
}

func (s *LiveService) Hardware(ctx context.Context) (types.HardwareProfile, error) {
	profile, err := hwprobe.Detect(ctx)
	if err != nil {
		return types.HardwareProfile{}, err
	}
	s.probed.Store(true)
	return *profile, nil
}

func (s *LiveService) CatalogEntries(modality string) []types.ModelEntry {
	if modality == "" {
		return s.Catalog.All()
	}
	return s.Catalog.CandidatesFor(types.Modality(modality))
}

func (s *LiveService) Recommend(ctx context.Context, req types.RecommendRequest) (*types.RecommendationResult, error) {
	hw := req.HardwareProfile
	if hw == nil {
		probed, err := s.Hardware(ctx)
		if err != nil {
			return nil, err
		}
		hw = &probed
	}
	priorities := priorityMapFromStrings(req.UseCasePriorities)
	return recommend.Recommend(ctx, req.UserProfile, *hw, s.Catalog, priorities)
}

func (s *LiveService) Ready() bool {
	return s.Catalog != nil && len(s.Catalog.All()) > 0
}

func priorityMapFromStrings(in map[string]int) map[types.Modality]int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[types.Modality]int, len(in))
	for k, v := range in {
		out[types.Modality(k)] = v
	}
	return out
}
