package recommend

import (
	"testing"

	"recommendd/pkg/types"
)

func TestResolveQuantizationDowngrade(t *testing.T) {
	entry := types.ModelEntry{
		ID: "flux", Name: "Flux",
		Variants: []types.Variant{
			{ID: "flux-fp16", Precision: types.PrecisionFP16, VRAMMinMB: 24576, QualityRetentionPercent: 100,
				PlatformSupport: types.VariantPlatformSupport{NVIDIA: types.PlatformCompat{Supported: true}}},
			{ID: "flux-fp8", Precision: types.PrecisionFP8, VRAMMinMB: 12288, QualityRetentionPercent: 95,
				PlatformSupport: types.VariantPlatformSupport{NVIDIA: types.PlatformCompat{Supported: true}}},
		},
	}
	hw := types.HardwareProfile{Platform: types.PlatformNVIDIADesktop, GPU: types.GPUProfile{ComputeCapability: "8.9"}, EffectiveVRAMGB: 16}
	res := Resolve(entry, hw, types.UserProfile{}, nil)
	if !res.Viable || res.Kind != types.ResolutionQuantizationDowngrade {
		t.Fatalf("expected quantization downgrade, got %+v", res)
	}
	if res.SelectedVariant == nil || res.SelectedVariant.ID != "flux-fp8" {
		t.Fatalf("expected fp8 variant selected, got %+v", res.SelectedVariant)
	}
}

func TestResolveCPUOffload(t *testing.T) {
	entry := types.ModelEntry{
		ID: "heavy", Name: "Heavy Model",
		Variants: []types.Variant{
			{ID: "heavy-fp16", Precision: types.PrecisionFP16, VRAMMinMB: 40960,
				PlatformSupport: types.VariantPlatformSupport{NVIDIA: types.PlatformCompat{Supported: true}}},
		},
		Hardware: types.HardwareRequirements{SupportsCPUOffload: true},
	}
	hw := types.HardwareProfile{
		Platform: types.PlatformNVIDIADesktop, GPU: types.GPUProfile{ComputeCapability: "8.9"},
		CPU: types.CPUProfile{Tier: types.CPUTierHigh, SupportsAVX2: true},
		RAM: types.RAMProfile{UsableForOffloadGB: 48}, EffectiveVRAMGB: 8,
	}
	res := Resolve(entry, hw, types.UserProfile{}, nil)
	if !res.Viable || res.Kind != types.ResolutionCPUOffload {
		t.Fatalf("expected cpu offload resolution, got %+v", res)
	}
	if res.PerformanceFactor != offloadFactorHigh {
		t.Fatalf("expected HIGH-tier factor, got %v", res.PerformanceFactor)
	}
}

// Workflow optimization always succeeds in the fixed cascade order, so it
// intercepts before cloud offload is ever reached here.
// This is harmless for the orchestrator: the constraint layer already
// decided execution_mode (native/offload/cloud) independently; the cascade
// only supplies supplementary resolution-trace explanation.
func TestResolveWorkflowOptimizationInterceptsBeforeCloud(t *testing.T) {
	entry := types.ModelEntry{
		ID: "cloud-only", Name: "Cloud Only",
		Variants: []types.Variant{
			{ID: "v1", Precision: types.PrecisionFP16, VRAMMinMB: 99999,
				PlatformSupport: types.VariantPlatformSupport{NVIDIA: types.PlatformCompat{Supported: true}}},
		},
		Cloud: types.CloudInfo{Available: true, Service: "svc"},
	}
	hw := types.HardwareProfile{Platform: types.PlatformNVIDIADesktop, GPU: types.GPUProfile{ComputeCapability: "8.9"}, EffectiveVRAMGB: 8}
	res := Resolve(entry, hw, types.UserProfile{CloudWillingness: types.CloudHybrid}, nil)
	if !res.Viable || res.Kind != types.ResolutionWorkflowOptimization {
		t.Fatalf("expected workflow optimization to intercept, got %+v", res)
	}
}
