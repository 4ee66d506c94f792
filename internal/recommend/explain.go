package recommend

import (
	"fmt"

	"recommendd/pkg/types"
)

// Explain builds the per-candidate reasoning sections.
// scored and resolution are both optional: resolution is nil unless the
// cascade ran for this candidate.
func Explain(entry types.ModelEntry, ranked types.RankedCandidate, scored *types.ScoredCandidate, resolution *types.ResolutionResult, rejections []types.RejectionReason, hw types.HardwareProfile) types.RecommendationExplanation {
	var sections []types.ExplanationSection

	summary := fmt.Sprintf("%s selected for %s, TOPSIS score %.2f (rank %d).", entry.Name, ranked.Modality, ranked.TopsisScore, ranked.Rank)
	if resolution != nil && resolution.Viable {
		summary = fmt.Sprintf("%s selected via %s after %s.", entry.Name, ranked.Modality, resolution.Kind)
	}
	sections = append(sections, types.ExplanationSection{Title: "Selection summary", Body: summary})

	sections = append(sections, types.ExplanationSection{Title: "Hardware fit", Body: hardwareFitNote(entry, ranked, hw)})

	if scored != nil && (len(scored.MatchingFeatures) > 0 || len(scored.MissingFeatures) > 0) {
		sections = append(sections, types.ExplanationSection{
			Title: "Matching and missing features",
			Body:  featureNote(*scored),
		})
	}

	if resolution != nil && resolution.Viable && resolution.Kind != types.ResolutionNone {
		sections = append(sections, types.ExplanationSection{Title: "Resolution trace", Body: resolution.Message})
	}

	if top := topRejections(rejections, 3); len(top) > 0 {
		sections = append(sections, types.ExplanationSection{Title: "Competing rejections", Body: rejectionNote(top)})
	}

	return types.RecommendationExplanation{ModelID: entry.ID, Sections: sections}
}

func hardwareFitNote(entry types.ModelEntry, ranked types.RankedCandidate, hw types.HardwareProfile) string {
	switch ranked.Passing.ExecutionMode {
	case types.ExecGPUOffload:
		return fmt.Sprintf("effective VRAM %.1f GB is insufficient natively; layers spill to RAM (hardware_fit %.2f).", hw.EffectiveVRAMGB, ranked.CriteriaScores.HardwareFit)
	case types.ExecCloud:
		return "runs remotely; local hardware fit does not apply."
	default:
		return fmt.Sprintf("effective VRAM %.1f GB against hardware_fit %.2f.", hw.EffectiveVRAMGB, ranked.CriteriaScores.HardwareFit)
	}
}

func featureNote(s types.ScoredCandidate) string {
	body := ""
	if len(s.MatchingFeatures) > 0 {
		body += "matches: " + joinComma(s.MatchingFeatures)
	}
	if len(s.MissingFeatures) > 0 {
		if body != "" {
			body += "; "
		}
		body += "missing: " + joinComma(s.MissingFeatures)
	}
	return body
}

func joinComma(xs []string) string {
	out := ""
	for i, x := range xs {
		if i > 0 {
			out += ", "
		}
		out += x
	}
	return out
}

func topRejections(rejections []types.RejectionReason, k int) []types.RejectionReason {
	if len(rejections) <= k {
		return rejections
	}
	return rejections[:k]
}

func rejectionNote(top []types.RejectionReason) string {
	out := ""
	for i, r := range top {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s rejected (%s): %s", r.ModelID, r.Constraint, r.Detail)
	}
	return out
}

// BuildWarnings implements the five cross-cutting rules.
func BuildWarnings(hw types.HardwareProfile, user types.UserProfile, selections []types.PassingCandidate, largestSelectedSizeGB float64) []types.HardwareWarning {
	var warnings []types.HardwareWarning

	if hw.FormFactor.IsLaptop && hw.FormFactor.SustainedPerformanceRatio < 0.8 {
		warnings = append(warnings, types.HardwareWarning{
			Type:     "laptop_thermal",
			Severity: types.SeverityInfo,
			Title:    "Laptop thermal headroom",
			Message:  fmt.Sprintf("sustained performance ratio is %.2f; expect throttling under sustained load.", hw.FormFactor.SustainedPerformanceRatio),
		})
	}

	if hw.Storage.Tier == types.StorageTierSlow && user.SpeedPriority >= 0.7 && hw.Storage.ReadMBps > 0 {
		loadTimeS := largestSelectedSizeGB * 1024 / hw.Storage.ReadMBps
		warnings = append(warnings, types.HardwareWarning{
			Type:     "slow_storage",
			Severity: types.SeverityWarning,
			Title:    "Storage may bottleneck model loads",
			Message:  fmt.Sprintf("estimated load time for the largest selected model is %.0f seconds on this storage tier.", loadTimeS),
		})
	}

	var anyOffload bool
	var anyGGUFNoAVX2 bool
	for _, s := range selections {
		if s.ExecutionMode == types.ExecGPUOffload {
			anyOffload = true
		}
		if s.SelectedVariant != nil && s.SelectedVariant.Precision == types.PrecisionGGUF && !hw.CPU.SupportsAVX2 {
			anyGGUFNoAVX2 = true
		}
	}

	if anyOffload {
		warnings = append(warnings, types.HardwareWarning{
			Type:     "cpu_offload",
			Severity: types.SeverityInfo,
			Title:    "CPU offload active",
			Message:  fmt.Sprintf("one or more selections spill layers to RAM; expect roughly %s slower generation.", offloadSlowdownLabel(hw.CPU.Tier)),
		})
		if hw.RAM.UsableForOffloadGB < 16 {
			warnings = append(warnings, types.HardwareWarning{
				Type:     "low_offload_headroom",
				Severity: types.SeverityWarning,
				Title:    "Limited offload headroom",
				Message:  fmt.Sprintf("only %.1f GB of RAM is usable for offload; larger models may fail to load.", hw.RAM.UsableForOffloadGB),
			})
		}
	}

	if anyGGUFNoAVX2 {
		warnings = append(warnings, types.HardwareWarning{
			Type:     "gguf_no_avx2",
			Severity: types.SeverityWarning,
			Title:    "GGUF without AVX2",
			Message:  "a GGUF variant was selected but this CPU lacks AVX2; expect significantly slower CPU-side computation.",
		})
	}

	return warnings
}

func offloadSlowdownLabel(tier types.CPUTier) string {
	switch tier {
	case types.CPUTierHigh:
		return "5x"
	case types.CPUTierMedium:
		return "10x"
	default:
		return "several times"
	}
}
