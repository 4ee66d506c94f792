package hwprobe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"recommendd/pkg/types"
)

// probeNVIDIA shells out to nvidia-smi for device name, VRAM, power limit,
// and compute capability, following LocalAI's getNVIDIAGPUMemory CSV-parse
// style (pkg/xsysinfo/gpu.go). One query call returns everything needed in
// a single CSV row to keep subprocess calls minimal.
func probeNVIDIA(ctx context.Context) (types.GPUProfile, types.FormFactorProfile, error) {
	var gpuP types.GPUProfile
	var ff types.FormFactorProfile

	out, err := runProbe(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total,power.limit,compute_cap",
		"--format=csv,noheader,nounits")
	if err != nil {
		return gpuP, ff, err
	}

	line := firstNonEmptyLine(out)
	fields := splitCSVFields(line)
	if len(fields) < 4 {
		return gpuP, ff, fmt.Errorf("unexpected nvidia-smi output: %q", firstLine(out))
	}

	name := strings.TrimSpace(fields[0])
	vramMiB, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return gpuP, ff, fmt.Errorf("parsing vram from nvidia-smi: %w", err)
	}
	powerLimit, powerErr := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	computeCap := strings.TrimSpace(fields[3])

	gpuP.Vendor = "nvidia"
	gpuP.Name = name
	gpuP.VRAMGB = vramMiB / 1024.0
	gpuP.ComputeCapability = computeCap
	gpuP.UnifiedMemory = false

	major, minor := splitComputeCapability(computeCap)
	cc := major*10 + minor
	gpuP.SupportsBF16 = cc >= 80
	gpuP.FlashAttention = cc >= 80
	gpuP.SupportsFP8 = cc >= 89
	gpuP.SupportsFP4 = cc >= 120

	referenceTDP, known := lookupReferenceTDP(name)
	if powerErr == nil && known && referenceTDP > 0 {
		pl := int(powerLimit)
		ff.PowerLimitWatts = &pl
		ff.ReferenceTDPWatts = &referenceTDP
		ff.IsLaptop = powerLimit < float64(referenceTDP)*0.85
		if ff.IsLaptop {
			ratio := sqrtClamped(powerLimit/float64(referenceTDP), 0.25, 1.0)
			ff.SustainedPerformanceRatio = ratio
		} else {
			ff.SustainedPerformanceRatio = 1.0
		}
	} else {
		// Cannot infer laptop/desktop from power telemetry; assume desktop
		// (ratio 1.0), a recorded conservative default rather than a
		// silent guess about chassis.
		ff.SustainedPerformanceRatio = 1.0
	}

	if gpuP.MemoryBandwidthGBps == 0 {
		// nvidia-smi does not report memory bandwidth directly; leave at 0
		// to signal "unknown" rather than fabricate a number. Callers that
		// need it should consult a device-name lookup in a future table.
	}

	return gpuP, ff, nil
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

func splitCSVFields(line string) []string {
	return strings.Split(line, ",")
}

func splitComputeCapability(cc string) (major, minor int) {
	parts := strings.SplitN(strings.TrimSpace(cc), ".", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	major, _ = strconv.Atoi(parts[0])
	minor, _ = strconv.Atoi(parts[1])
	return major, minor
}
