package recommend

import (
	"math"
	"testing"

	"recommendd/pkg/types"
)

func TestCosineSimilarityZeroMagnitude(t *testing.T) {
	dims := []string{"a", "b"}
	sim := CosineSimilarity(types.CapabilityScores{}, types.CapabilityScores{"a": 1}, dims)
	if sim != 0 {
		t.Fatalf("expected 0 for zero-magnitude vector, got %v", sim)
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	dims := []string{"a", "b"}
	v := types.CapabilityScores{"a": 0.8, "b": 0.2}
	sim := CosineSimilarity(v, v, dims)
	if math.Abs(sim-1.0) > 1e-9 {
		t.Fatalf("expected similarity 1.0 for identical vectors, got %v", sim)
	}
}

func TestScoreCandidateMatchingAndMissing(t *testing.T) {
	entry := types.ModelEntry{
		ID:         "img-model",
		Modalities: []types.Modality{types.ModalityImage},
		Capabilities: types.Capabilities{
			Scores: types.CapabilityScores{
				"photorealism":     0.9,
				"artistic_quality": 0.1,
			},
		},
	}
	user := types.UserProfile{
		RequiredModalities: []types.Modality{types.ModalityImage},
		SharedQuality:      types.SharedQuality{Photorealism: 5, ArtisticStylization: 5},
		ImagePrefs:         &types.ImagePrefs{StyleTags: []string{"photorealism"}},
	}
	p := types.PassingCandidate{ModelID: entry.ID}
	scored := ScoreCandidate(entry, p, user)
	if len(scored) != 1 {
		t.Fatalf("expected one scored modality, got %d", len(scored))
	}
	s := scored[0]
	if !contains(s.MatchingFeatures, "photorealism") {
		t.Fatalf("expected photorealism to match, got %+v", s)
	}
	if !contains(s.MissingFeatures, "artistic_quality") {
		t.Fatalf("expected artistic_quality to be missing, got %+v", s)
	}
}

func contains(xs []string, target string) bool {
	for _, x := range xs {
		if x == target {
			return true
		}
	}
	return false
}

func TestContentScoreMeanAcrossModalities(t *testing.T) {
	scored := []types.ScoredCandidate{
		{Similarity: 0.4},
		{Similarity: 0.8},
	}
	got := ContentScore(scored)
	if math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("expected mean 0.6, got %v", got)
	}
}

func TestContentScoreEmpty(t *testing.T) {
	if got := ContentScore(nil); got != 0 {
		t.Fatalf("expected 0 for no scored modalities, got %v", got)
	}
}
