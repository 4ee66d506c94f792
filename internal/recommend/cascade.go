package recommend

import (
	"fmt"

	"recommendd/pkg/types"
)

var quantPreferenceNVIDIAHighCC = []quantSpec{
	{types.PrecisionFP16, types.QuantNone},
	{types.PrecisionFP8, types.QuantNone},
	{types.PrecisionGGUF, types.QuantQ8_0},
	{types.PrecisionGGUF, types.QuantQ6_K},
	{types.PrecisionGGUF, types.QuantQ5_K_M},
	{types.PrecisionGGUF, types.QuantQ4_K_M},
}

var quantPreferenceAppleSilicon = []quantSpec{
	{types.PrecisionFP16, types.QuantNone},
	{types.PrecisionGGUF, types.QuantQ8_0},
	{types.PrecisionGGUF, types.QuantQ5_0},
	{types.PrecisionGGUF, types.QuantQ4_0},
}

var quantPreferenceOther = []quantSpec{
	{types.PrecisionFP16, types.QuantNone},
	{types.PrecisionGGUF, types.QuantQ8_0},
	{types.PrecisionGGUF, types.QuantQ6_K},
	{types.PrecisionGGUF, types.QuantQ5_K_M},
	{types.PrecisionGGUF, types.QuantQ4_K_M},
}

type quantSpec struct {
	precision types.Precision
	quant     types.GGUFQuant
}

// substitutionMap is a family-level fallback table (step 3).
// Entries not listed here have no substitute.
var substitutionMap = map[string][]string{
	"wan_22_14b": {"wan_ti2v_5b", "wan_21_1.3b"},
}

const (
	offloadFactorHigh   = 1.0 / 5.0
	offloadFactorMedium = 1.0 / 10.0
)

// Resolve runs the fixed-order resolution cascade against a
// ranked candidate that was flagged as marginal. lookup resolves a
// substituted model id back to its catalog entry, needed by step 3.
func Resolve(e types.ModelEntry, hw types.HardwareProfile, user types.UserProfile, lookup func(id string) (types.ModelEntry, bool)) types.ResolutionResult {
	if r, ok := resolveQuantizationDowngrade(e, hw); ok {
		return r
	}
	if r, ok := resolveCPUOffload(e, hw); ok {
		return r
	}
	if r, ok := resolveSubstitution(e, hw, lookup); ok {
		return r
	}
	if r, ok := resolveWorkflowOptimization(e); ok {
		return r
	}
	if r, ok := resolveCloud(e, user); ok {
		return r
	}
	return types.ResolutionResult{
		Viable:  false,
		Kind:    types.ResolutionNone,
		Message: fmt.Sprintf("%s does not fit available hardware; consider upgrading VRAM to %.0f GB", e.Name, requiredUpgradeGB(e)),
	}
}

func requiredUpgradeGB(e types.ModelEntry) float64 {
	if len(e.Variants) == 0 {
		return 0
	}
	return float64(e.Variants[len(e.Variants)-1].VRAMMinMB) / 1024.0
}

func quantPreferenceFor(hw types.HardwareProfile) []quantSpec {
	switch {
	case (hw.Platform == types.PlatformNVIDIADesktop || hw.Platform == types.PlatformNVIDIALaptop) && parseComputeCapability(hw.GPU.ComputeCapability) >= 8.9:
		return quantPreferenceNVIDIAHighCC
	case hw.Platform == types.PlatformAppleSilicon:
		return quantPreferenceAppleSilicon
	default:
		return quantPreferenceOther
	}
}

func resolveQuantizationDowngrade(e types.ModelEntry, hw types.HardwareProfile) (types.ResolutionResult, bool) {
	prefs := quantPreferenceFor(hw)
	budgetMB := hw.EffectiveVRAMGB * 1024
	for _, spec := range prefs {
		for i := range e.Variants {
			v := &e.Variants[i]
			if v.Precision != spec.precision {
				continue
			}
			if spec.precision == types.PrecisionGGUF && v.Quant != spec.quant {
				continue
			}
			if !variantSupportsPlatform(*v, hw.Platform) {
				continue
			}
			if float64(v.VRAMMinMB) <= budgetMB {
				return types.ResolutionResult{
					Viable:            true,
					Kind:              types.ResolutionQuantizationDowngrade,
					SelectedVariant:   v,
					PerformanceFactor: 1.0,
					QualityImpact:     fmt.Sprintf("-%.0f%%", 100-v.QualityRetentionPercent),
					Message:           fmt.Sprintf("downgraded to %s to fit effective VRAM", v.ID),
				}, true
			}
		}
	}
	return types.ResolutionResult{}, false
}

func resolveCPUOffload(e types.ModelEntry, hw types.HardwareProfile) (types.ResolutionResult, bool) {
	if len(e.Variants) == 0 {
		return types.ResolutionResult{}, false
	}
	smallest := e.Variants[len(e.Variants)-1]
	if !canOffload(e, hw, smallest) {
		return types.ResolutionResult{}, false
	}
	var factor float64
	switch hw.CPU.Tier {
	case types.CPUTierHigh:
		factor = offloadFactorHigh
	case types.CPUTierMedium:
		factor = offloadFactorMedium
	default:
		return types.ResolutionResult{}, false
	}
	return types.ResolutionResult{
		Viable:            true,
		Kind:              types.ResolutionCPUOffload,
		SelectedVariant:   &smallest,
		PerformanceFactor: factor,
		Message:           fmt.Sprintf("CPU offload active, roughly %.0fx slower", 1/factor),
	}, true
}

func resolveSubstitution(e types.ModelEntry, hw types.HardwareProfile, lookup func(id string) (types.ModelEntry, bool)) (types.ResolutionResult, bool) {
	subs, ok := substitutionMap[e.ID]
	if !ok || lookup == nil {
		return types.ResolutionResult{}, false
	}
	for _, subID := range subs {
		sub, ok := lookup(subID)
		if !ok {
			continue
		}
		passing, rejected := FilterCandidates([]types.ModelEntry{sub}, hw, types.UserProfile{CloudWillingness: types.CloudHybrid})
		if len(rejected) > 0 || len(passing) == 0 {
			continue
		}
		return types.ResolutionResult{
			Viable:             true,
			Kind:               types.ResolutionSubstitution,
			SubstitutedModelID: subID,
			SelectedVariant:    passing[0].SelectedVariant,
			PerformanceFactor:  1.0,
			Message:            fmt.Sprintf("substituted %s for %s", sub.Name, e.Name),
		}, true
	}
	return types.ResolutionResult{}, false
}

func resolveWorkflowOptimization(e types.ModelEntry) (types.ResolutionResult, bool) {
	return types.ResolutionResult{
		Viable:            true,
		Kind:              types.ResolutionWorkflowOptimization,
		PerformanceFactor: 1.0,
		Message:           fmt.Sprintf("reduce batch size or output resolution to keep %s within budget", e.Name),
	}, true
}

func resolveCloud(e types.ModelEntry, user types.UserProfile) (types.ResolutionResult, bool) {
	if !e.Cloud.Available || user.CloudWillingness == types.CloudLocalOnly {
		return types.ResolutionResult{}, false
	}
	msg := fmt.Sprintf("running %s via %s", e.Name, e.Cloud.Service)
	if e.Cloud.EstimatedCostPerGen != nil {
		msg = fmt.Sprintf("%s (est. $%.2f/generation)", msg, *e.Cloud.EstimatedCostPerGen)
	}
	return types.ResolutionResult{
		Viable:            true,
		Kind:              types.ResolutionCloud,
		PerformanceFactor: 1.0,
		Message:           msg,
	}, true
}
