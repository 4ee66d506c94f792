package hwprobe

import (
	"context"
	"runtime"

	"github.com/jaypipes/ghw"
	"github.com/klauspost/cpuid/v2"

	"recommendd/pkg/types"
)

// probeCPU detects the physical/logical core count, architecture, and SIMD
// feature flags, grounded on LocalAI's pkg/xsysinfo.CPUCapabilities /
// HasCPUCaps / CPUPhysicalCores, which lean on cpuid.CPU for counts/features
// and ghw.CPU() only for the human-readable model string.
func probeCPU(ctx context.Context) (types.CPUProfile, error) {
	var p types.CPUProfile
	p.Arch = runtime.GOARCH
	p.Model = cpuid.CPU.BrandName
	p.SupportsAVX = cpuid.CPU.Supports(cpuid.AVX)
	p.SupportsAVX2 = cpuid.CPU.Supports(cpuid.AVX2)
	p.SupportsAVX512 = cpuid.CPU.Supports(cpuid.AVX512F)

	physical := cpuid.CPU.PhysicalCores
	logical := cpuid.CPU.LogicalCores

	if p.Model == "" {
		if info, err := ghw.CPU(); err == nil && info != nil && len(info.Processors) > 0 {
			p.Model = info.Processors[0].Model
		}
	}

	if physical <= 0 {
		return p, ErrProbeFailed("cpu.physical_cores", errNoCores)
	}
	if logical <= 0 {
		logical = physical
	}
	p.PhysicalCores = physical
	p.LogicalCores = logical
	p.Tier = types.CPUTierFromCores(physical)
	return p, nil
}

var errNoCores = cpuCoreDetectionError{}

type cpuCoreDetectionError struct{}

func (cpuCoreDetectionError) Error() string { return "could not determine physical core count" }
