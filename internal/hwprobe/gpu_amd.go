package hwprobe

import (
	"context"
	"strconv"
	"strings"

	"recommendd/pkg/types"
)

// probeAMDROCm parses rocm-smi's CSV output for VRAM and GFX version,
// grounded on LocalAI's getAMDGPUMemory. This probe only supplies the raw
// facts; Detect records an experimental-platform warning for AMD ROCm, and
// the catalog and constraint layers treat amd_rocm like any other platform.
func probeAMDROCm(ctx context.Context) (types.GPUProfile, types.FormFactorProfile, error) {
	var gpuP types.GPUProfile
	var ff types.FormFactorProfile

	out, err := runProbe(ctx, "rocm-smi", "--showmeminfo", "vram", "--csv")
	if err != nil {
		return gpuP, ff, err
	}
	vramBytes, err := parseAMDVRAMCSV(out)
	if err != nil {
		return gpuP, ff, err
	}
	gpuP.Vendor = "amd"
	gpuP.VRAMGB = vramBytes / (1024 * 1024 * 1024)

	if nameOut, err := runProbe(ctx, "rocm-smi", "--showproductname", "--csv"); err == nil {
		gpuP.Name = strings.TrimSpace(firstNonEmptyLine(nameOut))
	}

	gfx, _ := runProbe(ctx, "rocm-smi", "--showhw")
	gpuP.ComputeCapability = extractGFXVersion(gfx)
	gpuP.SupportsFP8 = false
	gpuP.SupportsBF16 = true
	gpuP.FlashAttention = false

	// Desktop AMD cards are not thermally derated the way laptop NVIDIA
	// parts are; rocm-smi does not expose a comparable power-limit/TDP pair
	// across the vendor's tooling, so the ratio defaults to 1.0 on desktop.
	ff.SustainedPerformanceRatio = 1.0
	return gpuP, ff, nil
}

func parseAMDVRAMCSV(csv string) (float64, error) {
	for _, line := range strings.Split(csv, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "total") && strings.Contains(lower, "vram") {
			continue // header
		}
		tok, err := firstNumericToken(line)
		if err == nil {
			v, err := strconv.ParseFloat(tok, 64)
			if err == nil && v > 0 {
				return v, nil
			}
		}
	}
	return 0, errFieldNotFound
}

func extractGFXVersion(out string) string {
	lower := strings.ToLower(out)
	idx := strings.Index(lower, "gfx")
	if idx < 0 {
		return ""
	}
	end := idx + 3
	for end < len(lower) && (lower[end] >= '0' && lower[end] <= '9') {
		end++
	}
	if end <= idx+3 {
		return ""
	}
	return lower[idx:end]
}
