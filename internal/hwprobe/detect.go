package hwprobe

import (
	"context"
	"runtime"
	"sync"

	"recommendd/pkg/types"
)

// gpuProbeResult carries one vendor probe's outcome back to Detect.
type gpuProbeResult struct {
	gpu types.GPUProfile
	ff  types.FormFactorProfile
	err error
}

// Detect dispatches to platform-specific probes for GPU/CPU/RAM/storage/
// form-factor, running them concurrently across independent subsystems and
// joining before constructing the HardwareProfile. It fails fatally only
// when both GPU and RAM cannot be resolved; every other probe failure
// becomes a recorded warning.
func Detect(ctx context.Context) (*types.HardwareProfile, error) {
	var (
		wg       sync.WaitGroup
		warnings []types.HardwareWarning

		cpuProf    types.CPUProfile
		cpuErr     error
		ramProf    types.RAMProfile
		ramErr     error
		storageProf types.StorageProfile
		storageErr error
		gpuRes     gpuProbeResult
	)

	wg.Add(4)
	go func() { defer wg.Done(); cpuProf, cpuErr = probeCPU(ctx) }()
	go func() { defer wg.Done(); ramProf, ramErr = probeRAM(ctx) }()
	go func() { defer wg.Done(); storageProf, storageErr = probeStorage(ctx, "/") }()
	go func() { defer wg.Done(); gpuRes = detectGPU(ctx) }()
	wg.Wait()

	if cpuErr != nil {
		warnings = append(warnings, warningFromProbeError("cpu", cpuErr))
	}
	if storageErr != nil {
		warnings = append(warnings, warningFromProbeError("storage", storageErr))
	}

	gpuFailed := gpuRes.err != nil
	ramFailed := ramErr != nil
	if gpuFailed {
		warnings = append(warnings, warningFromProbeError("gpu", gpuRes.err))
	}
	if ramFailed {
		warnings = append(warnings, warningFromProbeError("ram", ramErr))
	}
	if gpuFailed && ramFailed {
		return nil, ErrProbeFailed("gpu+ram", errBothGPUAndRAMFailed)
	}

	profile := &types.HardwareProfile{
		GPU:        gpuRes.gpu,
		CPU:        cpuProf,
		RAM:        ramProf,
		Storage:    storageProf,
		FormFactor: gpuRes.ff,
		PowerState: types.PowerAC,
		Warnings:   warnings,
	}
	profile.ThermalState = detectThermalState(ctx, profile.GPU.Vendor)
	profile.Platform = resolvePlatform(profile.GPU.Vendor, profile.FormFactor.IsLaptop)
	profile.EffectiveVRAMGB = computeEffectiveVRAM(profile.GPU)
	profile.Tier = types.TierFromEffectiveCapacityGB(profile.EffectiveCapacityGB())

	// Lookup-table misses keep their conservative default and are recorded;
	// AMD ROCm is recorded as an experimental platform.
	switch profile.GPU.Vendor {
	case "amd":
		profile.Warnings = append(profile.Warnings, types.HardwareWarning{Type: "experimental_platform", Severity: types.SeverityInfo,
			Title: "AMD ROCm support is experimental", Message: "recommendations for " + profile.GPU.Name + " use the generic constraint and scoring rules"})
	case "apple":
		if _, known := lookupAppleChipBandwidth(profile.GPU.Name); !known {
			profile.Warnings = append(profile.Warnings, types.HardwareWarning{Type: "lookup_miss", Severity: types.SeverityWarning,
				Title: "Unknown Apple chip", Message: "no bandwidth entry for " + profile.GPU.Name + "; assuming the default unified-memory bandwidth"})
		}
	case "nvidia":
		if profile.FormFactor.ReferenceTDPWatts == nil {
			profile.Warnings = append(profile.Warnings, types.HardwareWarning{Type: "lookup_miss", Severity: types.SeverityWarning,
				Title: "Unknown GPU power profile", Message: "no reference TDP or power limit for " + profile.GPU.Name + "; assuming a desktop (sustained ratio 1.0)"})
		}
	}

	return profile, nil
}

// detectGPU tries each vendor probe in turn, stopping at the first one that
// succeeds, and falls back to the CPU-only profile if none of the vendor
// tools are present. This dispatch itself never silently guesses — the
// final CPU-only branch is only reached when no accelerator tool resolves.
func detectGPU(ctx context.Context) gpuProbeResult {
	if commandAvailable("nvidia-smi") {
		gpu, ff, err := probeNVIDIA(ctx)
		if err == nil {
			return gpuProbeResult{gpu: gpu, ff: ff}
		}
	}
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		ramGB, err := totalRAMGB(ctx)
		if err == nil {
			gpu, ff, err := probeAppleSilicon(ctx, ramGB)
			if err == nil {
				return gpuProbeResult{gpu: gpu, ff: ff}
			}
		}
	}
	if commandAvailable("rocm-smi") {
		gpu, ff, err := probeAMDROCm(ctx)
		if err == nil {
			return gpuProbeResult{gpu: gpu, ff: ff}
		}
	}
	return gpuProbeResult{gpu: cpuOnlyGPUProfile(), ff: types.FormFactorProfile{SustainedPerformanceRatio: 1.0}}
}

func resolvePlatform(vendor string, isLaptop bool) types.Platform {
	switch vendor {
	case "nvidia":
		if isLaptop {
			return types.PlatformNVIDIALaptop
		}
		return types.PlatformNVIDIADesktop
	case "apple":
		return types.PlatformAppleSilicon
	case "amd":
		return types.PlatformAMDROCm
	default:
		return types.PlatformCPUOnly
	}
}

// computeEffectiveVRAM: unified memory caps usable
// weight capacity at 0.75 of total RAM (reported here as gpu.VRAMGB for
// unified devices); discrete accelerators use their VRAM directly.
func computeEffectiveVRAM(gpu types.GPUProfile) float64 {
	if gpu.UnifiedMemory {
		return gpu.VRAMGB * 0.75
	}
	return gpu.VRAMGB
}

func detectThermalState(ctx context.Context, vendor string) types.ThermalState {
	if vendor == "apple" {
		return appleThermalState(ctx)
	}
	return types.ThermalNominal
}

func warningFromProbeError(field string, err error) types.HardwareWarning {
	return types.HardwareWarning{
		Type:     "probe_failed",
		Severity: types.SeverityWarning,
		Title:    "Could not fully detect " + field,
		Message:  err.Error(),
	}
}

type detectError string

func (e detectError) Error() string { return string(e) }

var errBothGPUAndRAMFailed = detectError("both GPU and RAM detection failed; cannot build a HardwareProfile")
