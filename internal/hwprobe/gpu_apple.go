package hwprobe

import (
	"context"
	"strings"

	"recommendd/pkg/types"
)

// probeAppleSilicon treats unified memory as the accelerator's VRAM pool
// (effective_vram_gb = total_ram * 0.75, computed by the orchestrator, not
// here) and resolves memory bandwidth from the chip-model lookup table.
// FP8 is never supported on Apple's MPS backend; flash-attention kernels
// are not available either.
func probeAppleSilicon(ctx context.Context, ramTotalGB float64) (types.GPUProfile, types.FormFactorProfile, error) {
	var gpuP types.GPUProfile
	var ff types.FormFactorProfile

	chip, err := runProbe(ctx, "sysctl", "-n", "machdep.cpu.brand_string")
	if err != nil {
		return gpuP, ff, err
	}
	chip = strings.TrimSpace(chip)

	gpuP.Vendor = "apple"
	gpuP.Name = chip
	gpuP.UnifiedMemory = true
	gpuP.VRAMGB = ramTotalGB
	gpuP.SupportsFP8 = false
	gpuP.SupportsBF16 = true
	gpuP.SupportsFP4 = false
	gpuP.FlashAttention = false

	bw, _ := lookupAppleChipBandwidth(chip)
	gpuP.MemoryBandwidthGBps = bw

	// All current Apple Silicon laptops/desktops sustain their rated
	// throughput without the thermal-driven power-limit derating that
	// applies to discrete laptop GPUs.
	ff.SustainedPerformanceRatio = 1.0
	ff.IsLaptop = isAppleLaptopModel(ctx)

	return gpuP, ff, nil
}

// isAppleLaptopModel distinguishes MacBook chassis from desktop (Mac mini/
// Studio/Pro) via the hardware model identifier; a lookup miss defaults to
// desktop (ratio already fixed at 1.0 regardless, so this only affects the
// laptop-specific cross-cutting warning in the explainer).
func isAppleLaptopModel(ctx context.Context) bool {
	out, err := runProbe(ctx, "sysctl", "-n", "hw.model")
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(out), "MacBook")
}

// appleThermalState reads the system thermal advisory via pmset. It returns
// fair when the reported CPU speed limit is below 100 and nominal otherwise,
// including when pmset fails; serious and critical are never returned.
func appleThermalState(ctx context.Context) types.ThermalState {
	out, err := runProbe(ctx, "pmset", "-g", "therm")
	if err != nil {
		return types.ThermalNominal
	}
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "cpu_speed_limit") && strings.Contains(lower, "= 100"):
		return types.ThermalNominal
	case strings.Contains(lower, "cpu_speed_limit"):
		if tok, err := firstNumericToken(lower[strings.Index(lower, "cpu_speed_limit"):]); err == nil {
			switch tok {
			case "100":
				return types.ThermalNominal
			}
		}
		return types.ThermalFair
	default:
		return types.ThermalNominal
	}
}
