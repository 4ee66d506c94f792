package recommend

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"time"

	"recommendd/internal/catalog"
	"recommendd/pkg/types"
)

const resolutionTopK = 3

// Recommend is the public entry point: a pure function of its
// inputs and the process-wide catalog. priorities maps modality to
// use-case packing priority for the space fitter (lower is more
// important); modalities absent from the map default to their index in
// user.RequiredModalities.
func Recommend(ctx context.Context, user types.UserProfile, hw types.HardwareProfile, cat *catalog.Catalog, priorities map[types.Modality]int) (*types.RecommendationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled(err)
	}

	result := &types.RecommendationResult{
		ID:                  newRunID(),
		TimestampUnix:        time.Now().Unix(),
		PerModalityRankings: map[types.Modality][]types.RankedCandidate{},
	}

	entriesByID := map[string]types.ModelEntry{}
	for _, e := range cat.All() {
		entriesByID[e.ID] = e
	}
	lookup := func(id string) (types.ModelEntry, bool) {
		e, ok := entriesByID[id]
		return e, ok
	}

	var fitItems []FitItem
	resolutionByModel := map[string]types.ResolutionResult{}
	scoredByModel := map[string]types.ScoredCandidate{}

	for _, m := range user.RequiredModalities {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled(err)
		}

		candidates := cat.CandidatesFor(m)
		passing, rejected := FilterCandidates(candidates, hw, user)
		result.Rejections = append(result.Rejections, rejected...)

		if len(passing) == 0 {
			if !anyCloudAvailable(candidates) {
				result.Warnings = append(result.Warnings, types.HardwareWarning{
					Type:     "no_viable_candidates",
					Severity: types.SeverityError,
					Title:    "No viable model for " + string(m),
					Message:  ErrNoViableCandidates(string(m)).Error(),
				})
			}
			continue
		}

		var scored []types.ScoredCandidate
		for _, p := range passing {
			if err := ctx.Err(); err != nil {
				return nil, ErrCancelled(err)
			}
			entry := entriesByID[p.ModelID]
			for _, s := range ScoreCandidate(entry, p, user) {
				if s.Modality == m {
					scored = append(scored, s)
					scoredByModel[p.ModelID] = s
				}
			}
		}

		ranked := Rank(m, scored, entriesByID, hw, user)
		result.PerModalityRankings[m] = ranked

		for i, rc := range ranked {
			if i >= resolutionTopK {
				break
			}
			if rc.Passing.ExecutionMode == types.ExecGPUNative {
				continue
			}
			entry := entriesByID[rc.Passing.ModelID]
			res := Resolve(entry, hw, user, lookup)
			resolutionByModel[rc.Passing.ModelID] = res
		}

		if len(ranked) > 0 {
			top := ranked[0]
			entry := entriesByID[top.Passing.ModelID]
			sizeGB := entry.Hardware.TotalSizeGB
			if top.Passing.SelectedVariant != nil && top.Passing.SelectedVariant.DownloadSizeGB > 0 {
				sizeGB = top.Passing.SelectedVariant.DownloadSizeGB
			}
			fitItems = append(fitItems, FitItem{
				ModelID:        top.Passing.ModelID,
				VariantID:      variantID(top.Passing.SelectedVariant),
				ExecutionMode:  string(top.Passing.ExecutionMode),
				SizeGB:         sizeGB,
				Priority:       priorityFor(m, priorities, user.RequiredModalities),
				CloudAvailable: entry.Cloud.Available,
			})
		}
	}

	kept, cloudFallback, shortGB := FitToSpace(fitItems, hw.Storage.FreeGB)

	var selections []types.PassingCandidate
	var totalSizeGB float64
	for _, it := range kept {
		totalSizeGB += it.SizeGB
		result.Manifest.Selected = append(result.Manifest.Selected, types.ManifestSelection{
			ModelID:       it.ModelID,
			VariantID:     it.VariantID,
			ExecutionMode: types.ExecutionMode(it.ExecutionMode),
		})
		selections = append(selections, passingFromFitItem(it, entriesByID))
	}
	for _, it := range cloudFallback {
		result.Manifest.CloudFallback = append(result.Manifest.CloudFallback, types.ManifestSelection{
			ModelID:       it.ModelID,
			VariantID:     it.VariantID,
			ExecutionMode: types.ExecCloud,
		})
	}

	result.Manifest.TotalSizeGB = totalSizeGB
	result.Manifest.SpaceShortGB = shortGB
	result.Manifest.EstimatedInstallMinutes = estimateInstallMinutes(totalSizeGB, hw.Storage.ReadMBps)
	result.Manifest.Dependencies = ResolveDependencies(selections, entriesByID)

	largestSizeGB := largestSize(kept)
	result.Warnings = append(result.Warnings, BuildWarnings(hw, user, selections, largestSizeGB)...)

	for _, sel := range result.Manifest.Selected {
		entry := entriesByID[sel.ModelID]
		ranked := findRanked(result.PerModalityRankings, sel.ModelID)
		var scoredPtr *types.ScoredCandidate
		if s, ok := scoredByModel[sel.ModelID]; ok {
			scoredPtr = &s
		}
		var resPtr *types.ResolutionResult
		if r, ok := resolutionByModel[sel.ModelID]; ok {
			resPtr = &r
		}
		explanation := Explain(entry, ranked, scoredPtr, resPtr, competingRejections(result.Rejections, entry.ID), hw)
		result.Reasoning = append(result.Reasoning, explanation)
		for _, section := range explanation.Sections {
			result.ReasoningTrace = append(result.ReasoningTrace, section.Title+": "+section.Body)
		}
	}

	return result, nil
}

func anyCloudAvailable(entries []types.ModelEntry) bool {
	for _, e := range entries {
		if e.Cloud.Available {
			return true
		}
	}
	return false
}

func variantID(v *types.Variant) string {
	if v == nil {
		return ""
	}
	return v.ID
}

func priorityFor(m types.Modality, priorities map[types.Modality]int, order []types.Modality) int {
	if priorities != nil {
		if p, ok := priorities[m]; ok {
			return p
		}
	}
	for i, x := range order {
		if x == m {
			return i
		}
	}
	return len(order)
}

func passingFromFitItem(it FitItem, entriesByID map[string]types.ModelEntry) types.PassingCandidate {
	entry := entriesByID[it.ModelID]
	var variant *types.Variant
	for i := range entry.Variants {
		if entry.Variants[i].ID == it.VariantID {
			variant = &entry.Variants[i]
			break
		}
	}
	return types.PassingCandidate{
		ModelID:         it.ModelID,
		SelectedVariant: variant,
		ExecutionMode:   types.ExecutionMode(it.ExecutionMode),
	}
}

func largestSize(items []FitItem) float64 {
	var max float64
	for _, it := range items {
		if it.SizeGB > max {
			max = it.SizeGB
		}
	}
	return max
}

func estimateInstallMinutes(totalSizeGB, readMBps float64) int {
	const assumedDownloadMBps = 50.0
	minutes := totalSizeGB * 1024 / assumedDownloadMBps / 60
	return int(minutes + 0.5)
}

func findRanked(rankings map[types.Modality][]types.RankedCandidate, modelID string) types.RankedCandidate {
	for _, list := range rankings {
		for _, rc := range list {
			if rc.Passing.ModelID == modelID {
				return rc
			}
		}
	}
	return types.RankedCandidate{}
}

func competingRejections(rejections []types.RejectionReason, modelID string) []types.RejectionReason {
	var out []types.RejectionReason
	for _, r := range rejections {
		if r.ModelID != modelID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Constraint < out[j].Constraint })
	return out
}

func newRunID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
