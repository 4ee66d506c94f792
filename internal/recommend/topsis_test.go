package recommend

import (
	"testing"

	"recommendd/pkg/types"
)

func TestSelectWeightsSwitchesOnSpeedPriority(t *testing.T) {
	w := SelectWeights(0.9)
	if w.SpeedFit != 0.30 {
		t.Fatalf("expected speed-priority weight set, got %+v", w)
	}
	w = SelectWeights(0.2)
	if w.ContentSimilarity != 0.35 {
		t.Fatalf("expected default weight set, got %+v", w)
	}
}

func TestHardwareFitNativeRecommended(t *testing.T) {
	hw := types.HardwareProfile{EffectiveVRAMGB: 24, FormFactor: types.FormFactorProfile{SustainedPerformanceRatio: 1.0}}
	entry := types.ModelEntry{Hardware: types.HardwareRequirements{ComputeIntensity: types.ComputeLow}}
	p := types.PassingCandidate{
		ExecutionMode:   types.ExecGPUNative,
		SelectedVariant: &types.Variant{VRAMMinMB: 8192, VRAMRecommendedMB: 12288},
	}
	if fit := HardwareFit(hw, entry, p); fit != 1.0 {
		t.Fatalf("expected fit 1.0 when effective exceeds recommended, got %v", fit)
	}
}

func TestHardwareFitFormFactorPenalty(t *testing.T) {
	hw := types.HardwareProfile{EffectiveVRAMGB: 24, FormFactor: types.FormFactorProfile{SustainedPerformanceRatio: 0.62}}
	entry := types.ModelEntry{Hardware: types.HardwareRequirements{ComputeIntensity: types.ComputeHigh}}
	p := types.PassingCandidate{
		ExecutionMode:   types.ExecGPUNative,
		SelectedVariant: &types.Variant{VRAMMinMB: 8192, VRAMRecommendedMB: 12288},
	}
	fit := HardwareFit(hw, entry, p)
	if fit < 0.61 || fit > 0.63 {
		t.Fatalf("expected high-intensity fit scaled by ratio (~0.62), got %v", fit)
	}
}

func TestSpeedFitNeutralBelowThreshold(t *testing.T) {
	hw := types.HardwareProfile{Storage: types.StorageProfile{ReadMBps: 100}}
	entry := types.ModelEntry{Hardware: types.HardwareRequirements{TotalSizeGB: 100}}
	p := types.PassingCandidate{}
	if fit := SpeedFit(hw, entry, p, 0.1); fit != 0.7 {
		t.Fatalf("expected neutral 0.7 below speed_priority threshold, got %v", fit)
	}
}

func TestSpeedFitFastLoad(t *testing.T) {
	hw := types.HardwareProfile{Storage: types.StorageProfile{ReadMBps: 7000}}
	entry := types.ModelEntry{Hardware: types.HardwareRequirements{TotalSizeGB: 5}}
	p := types.PassingCandidate{}
	if fit := SpeedFit(hw, entry, p, 0.8); fit != 1.0 {
		t.Fatalf("expected fast load fit 1.0, got %v", fit)
	}
}

func TestRankProducesDenseRanksAndRange(t *testing.T) {
	entries := map[string]types.ModelEntry{
		"a": {ID: "a", EcosystemMaturity: 0.8, ApproachFit: 0.7},
		"b": {ID: "b", EcosystemMaturity: 0.2, ApproachFit: 0.3},
	}
	scored := []types.ScoredCandidate{
		{Passing: types.PassingCandidate{ModelID: "a", ExecutionMode: types.ExecGPUNative}, Similarity: 0.9},
		{Passing: types.PassingCandidate{ModelID: "b", ExecutionMode: types.ExecGPUNative}, Similarity: 0.3},
	}
	hw := types.HardwareProfile{EffectiveVRAMGB: 24, FormFactor: types.FormFactorProfile{SustainedPerformanceRatio: 1}}
	ranked := Rank(types.ModalityImage, scored, entries, hw, types.UserProfile{})
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked candidates, got %d", len(ranked))
	}
	seen := map[int]bool{}
	for _, r := range ranked {
		if r.TopsisScore < 0 || r.TopsisScore > 1 {
			t.Fatalf("topsis score out of range: %v", r.TopsisScore)
		}
		seen[r.Rank] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("expected dense ranks 1..2, got %+v", ranked)
	}
	if ranked[0].Passing.ModelID != "a" {
		t.Fatalf("expected higher-similarity candidate ranked first, got %+v", ranked)
	}
}
