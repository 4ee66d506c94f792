package hwprobe

import "recommendd/pkg/types"

// cpuOnlyGPUProfile returns the CPU-only fallback: zero VRAM,
// every accelerator feature false.
func cpuOnlyGPUProfile() types.GPUProfile {
	return types.GPUProfile{
		Vendor: "none",
		Name:   "none",
		VRAMGB: 0,
	}
}
