package recommend

import (
	"strconv"

	"recommendd/pkg/types"
)

const storageBufferGB = 10.0

// FilterCandidates is the constraint-satisfaction layer: a
// binary feasibility filter over catalog entries. Every entry ends up in
// exactly one of the two returned slices (property 4, "rejection
// totality").
func FilterCandidates(entries []types.ModelEntry, hw types.HardwareProfile, user types.UserProfile) (passing []types.PassingCandidate, rejected []types.RejectionReason) {
	for _, e := range entries {
		p, r := checkModel(e, hw, user)
		if r != nil {
			rejected = append(rejected, *r)
			continue
		}
		passing = append(passing, *p)
	}
	return passing, rejected
}

func checkModel(e types.ModelEntry, hw types.HardwareProfile, user types.UserProfile) (*types.PassingCandidate, *types.RejectionReason) {
	if e.ExcludedOn(hw.Platform) {
		return nil, &types.RejectionReason{
			ModelID:    e.ID,
			Constraint: types.ConstraintIncompat,
			Detail:     "excluded on platform " + string(hw.Platform),
		}
	}

	variants := variantsSupporting(e.Variants, hw.Platform)
	if hw.Platform == types.PlatformAppleSilicon {
		variants = filterMPSSafe(variants)
	}
	variants = filterByComputeCapability(variants, hw)
	if len(variants) == 0 {
		return nil, &types.RejectionReason{
			ModelID:    e.ID,
			Constraint: types.ConstraintPlatform,
			Detail:     "no variant declares support for " + string(hw.Platform),
		}
	}

	if native := firstFittingVariant(variants, hw.EffectiveVRAMGB); native != nil {
		return finishPassing(e, hw, user, &types.PassingCandidate{
			ModelID:         e.ID,
			SelectedVariant: native,
			ExecutionMode:   types.ExecGPUNative,
		})
	}

	smallest := &variants[len(variants)-1]
	if canOffload(e, hw, *smallest) {
		return finishPassing(e, hw, user, &types.PassingCandidate{
			ModelID:         e.ID,
			SelectedVariant: smallest,
			ExecutionMode:   types.ExecGPUOffload,
		})
	}

	if e.Cloud.Available && user.CloudWillingness != types.CloudLocalOnly {
		return finishPassing(e, hw, user, &types.PassingCandidate{
			ModelID:       e.ID,
			ExecutionMode: types.ExecCloud,
		})
	}

	requiredGB := float64(smallest.VRAMMinMB) / 1024.0
	return nil, &types.RejectionReason{
		ModelID:    e.ID,
		Constraint: types.ConstraintVRAM,
		Detail:     "no variant fits effective VRAM and no rescue path succeeded",
		Required:   requiredGB,
		Available:  hw.EffectiveVRAMGB,
	}
}

// finishPassing applies the storage-space and RAM-minimum checks that run
// after a candidate has provisionally passed on VRAM/offload/cloud
// grounds. Cloud-executed candidates skip both checks: nothing is
// downloaded or run locally.
func finishPassing(e types.ModelEntry, hw types.HardwareProfile, user types.UserProfile, p *types.PassingCandidate) (*types.PassingCandidate, *types.RejectionReason) {
	if p.ExecutionMode == types.ExecCloud {
		return p, nil
	}
	if hw.Storage.FreeGB < e.Hardware.TotalSizeGB+storageBufferGB {
		return nil, &types.RejectionReason{
			ModelID:    e.ID,
			Constraint: types.ConstraintStorageSpace,
			Detail:     "insufficient free disk space",
			Required:   e.Hardware.TotalSizeGB + storageBufferGB,
			Available:  hw.Storage.FreeGB,
		}
	}
	if e.Hardware.MinimumRAMGB > 0 && hw.RAM.AvailableGB < e.Hardware.MinimumRAMGB {
		return nil, &types.RejectionReason{
			ModelID:    e.ID,
			Constraint: types.ConstraintRAM,
			Detail:     "insufficient available RAM",
			Required:   e.Hardware.MinimumRAMGB,
			Available:  hw.RAM.AvailableGB,
		}
	}
	return p, nil
}

func variantsSupporting(variants []types.Variant, platform types.Platform) []types.Variant {
	out := make([]types.Variant, 0, len(variants))
	for _, v := range variants {
		if variantSupportsPlatform(v, platform) {
			out = append(out, v)
		}
	}
	return out
}

func variantSupportsPlatform(v types.Variant, platform types.Platform) bool {
	switch platform {
	case types.PlatformNVIDIADesktop, types.PlatformNVIDIALaptop:
		return v.PlatformSupport.NVIDIA.Supported
	case types.PlatformAppleSilicon:
		return v.PlatformSupport.AppleMPS.Supported
	case types.PlatformAMDROCm:
		return v.PlatformSupport.AMDROCm.Supported
	case types.PlatformCPUOnly:
		return true
	default:
		return false
	}
}

// filterMPSSafe excludes every variant types.Variant.MPSSafe reports as
// unsafe for Apple Silicon: GGUF K-quants (unstable MPS kernels) and FP8
// (never supported on MPS). Only FP16 and non-K-quant GGUF survive.
func filterMPSSafe(variants []types.Variant) []types.Variant {
	out := make([]types.Variant, 0, len(variants))
	for _, v := range variants {
		if !v.MPSSafe() {
			continue
		}
		out = append(out, v)
	}
	return out
}

// filterByComputeCapability drops NVIDIA variants whose declared minimum
// compute capability exceeds the detected GPU's.
// Non-NVIDIA platforms have no compute-capability gate.
func filterByComputeCapability(variants []types.Variant, hw types.HardwareProfile) []types.Variant {
	if hw.Platform != types.PlatformNVIDIADesktop && hw.Platform != types.PlatformNVIDIALaptop {
		return variants
	}
	gpuCC := parseComputeCapability(hw.GPU.ComputeCapability)
	out := make([]types.Variant, 0, len(variants))
	for _, v := range variants {
		min := v.PlatformSupport.NVIDIA.MinComputeCapability
		if min == "" {
			out = append(out, v)
			continue
		}
		if parseComputeCapability(min) <= gpuCC {
			out = append(out, v)
		}
	}
	return out
}

func parseComputeCapability(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// firstFittingVariant returns the highest-quality (first, by catalog order)
// variant whose vram_min_mb fits effective VRAM, a non-strict boundary
// comparison.
func firstFittingVariant(variants []types.Variant, effectiveVRAMGB float64) *types.Variant {
	for i := range variants {
		if float64(variants[i].VRAMMinMB)/1024.0 <= effectiveVRAMGB {
			return &variants[i]
		}
	}
	return nil
}

// canOffload checks whether CPU offload can rescue an otherwise-rejected
// candidate.
func canOffload(e types.ModelEntry, hw types.HardwareProfile, smallest types.Variant) bool {
	if !e.Hardware.SupportsCPUOffload {
		return false
	}
	if hw.CPU.Tier != types.CPUTierHigh && hw.CPU.Tier != types.CPUTierMedium {
		return false
	}
	if smallest.Precision == types.PrecisionGGUF && !hw.CPU.SupportsAVX2 {
		return false
	}
	required := float64(smallest.VRAMMinMB) / 1024.0
	if e.Hardware.RAMForOffloadGB != nil {
		required = *e.Hardware.RAMForOffloadGB
	}
	return hw.RAM.UsableForOffloadGB >= required
}
