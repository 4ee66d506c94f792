package recommend

import (
	"testing"

	"recommendd/pkg/types"
)

func baseHardware() types.HardwareProfile {
	return types.HardwareProfile{
		Platform:        types.PlatformNVIDIADesktop,
		GPU:             types.GPUProfile{ComputeCapability: "8.9"},
		CPU:             types.CPUProfile{Tier: types.CPUTierHigh, SupportsAVX2: true},
		RAM:             types.RAMProfile{AvailableGB: 64, UsableForOffloadGB: 48},
		Storage:         types.StorageProfile{FreeGB: 500},
		EffectiveVRAMGB: 24,
	}
}

func fp16Entry(id string, vramMinMB int) types.ModelEntry {
	return types.ModelEntry{
		ID:     id,
		Family: id,
		Name:   id,
		Variants: []types.Variant{
			{
				ID:                id + "-fp16",
				Precision:         types.PrecisionFP16,
				VRAMMinMB:         vramMinMB,
				VRAMRecommendedMB: vramMinMB + 2048,
				PlatformSupport: types.VariantPlatformSupport{
					NVIDIA: types.PlatformCompat{Supported: true},
				},
			},
		},
		Hardware: types.HardwareRequirements{TotalSizeGB: 5, MinimumRAMGB: 8},
	}
}

func TestFilterCandidatesNativeFit(t *testing.T) {
	entry := fp16Entry("model-a", 8192)
	passing, rejected := FilterCandidates([]types.ModelEntry{entry}, baseHardware(), types.UserProfile{})
	if len(rejected) != 0 {
		t.Fatalf("expected no rejections, got %+v", rejected)
	}
	if len(passing) != 1 || passing[0].ExecutionMode != types.ExecGPUNative {
		t.Fatalf("expected native fit, got %+v", passing)
	}
}

func TestFilterCandidatesVRAMRejection(t *testing.T) {
	entry := fp16Entry("model-b", 40960)
	hw := baseHardware()
	passing, rejected := FilterCandidates([]types.ModelEntry{entry}, hw, types.UserProfile{CloudWillingness: types.CloudLocalOnly})
	if len(passing) != 0 {
		t.Fatalf("expected no passing candidates, got %+v", passing)
	}
	if len(rejected) != 1 || rejected[0].Constraint != types.ConstraintVRAM {
		t.Fatalf("expected vram rejection, got %+v", rejected)
	}
}

func TestFilterCandidatesOffloadRescue(t *testing.T) {
	entry := fp16Entry("model-c", 40960)
	entry.Hardware.SupportsCPUOffload = true
	hw := baseHardware()
	passing, rejected := FilterCandidates([]types.ModelEntry{entry}, hw, types.UserProfile{})
	if len(rejected) != 0 {
		t.Fatalf("expected offload rescue, got rejections %+v", rejected)
	}
	if len(passing) != 1 || passing[0].ExecutionMode != types.ExecGPUOffload {
		t.Fatalf("expected gpu_offload, got %+v", passing)
	}
}

func TestFilterCandidatesCloudEscape(t *testing.T) {
	entry := fp16Entry("model-d", 40960)
	entry.Cloud = types.CloudInfo{Available: true, Service: "cloud-svc"}
	hw := baseHardware()
	passing, rejected := FilterCandidates([]types.ModelEntry{entry}, hw, types.UserProfile{CloudWillingness: types.CloudHybrid})
	if len(rejected) != 0 {
		t.Fatalf("expected cloud escape, got rejections %+v", rejected)
	}
	if len(passing) != 1 || passing[0].ExecutionMode != types.ExecCloud || passing[0].SelectedVariant != nil {
		t.Fatalf("expected cloud candidate with no local variant, got %+v", passing)
	}
}

func TestFilterCandidatesPlatformExclusion(t *testing.T) {
	entry := fp16Entry("model-e", 8192)
	entry.Incompatibilities = []string{string(types.PlatformAppleSilicon)}
	hw := baseHardware()
	hw.Platform = types.PlatformAppleSilicon
	entry.Variants[0].PlatformSupport.AppleMPS.Supported = true
	passing, rejected := FilterCandidates([]types.ModelEntry{entry}, hw, types.UserProfile{})
	if len(passing) != 0 {
		t.Fatalf("expected exclusion, got passing %+v", passing)
	}
	if len(rejected) != 1 || rejected[0].Constraint != types.ConstraintIncompat {
		t.Fatalf("expected incompat rejection, got %+v", rejected)
	}
}

func TestFilterCandidatesAppleSiliconDropsKQuants(t *testing.T) {
	entry := types.ModelEntry{
		ID: "model-f", Family: "model-f", Name: "model-f",
		Variants: []types.Variant{
			{
				ID: "k-quant", Precision: types.PrecisionGGUF, Quant: types.QuantQ4_K_M,
				VRAMMinMB: 4096, VRAMRecommendedMB: 6144,
				PlatformSupport: types.VariantPlatformSupport{AppleMPS: types.PlatformCompat{Supported: true}},
			},
			{
				ID: "q4-0", Precision: types.PrecisionGGUF, Quant: types.QuantQ4_0,
				VRAMMinMB: 4096, VRAMRecommendedMB: 6144,
				PlatformSupport: types.VariantPlatformSupport{AppleMPS: types.PlatformCompat{Supported: true}},
			},
		},
		Hardware: types.HardwareRequirements{TotalSizeGB: 3},
	}
	hw := baseHardware()
	hw.Platform = types.PlatformAppleSilicon
	hw.EffectiveVRAMGB = 6
	passing, rejected := FilterCandidates([]types.ModelEntry{entry}, hw, types.UserProfile{})
	if len(rejected) != 0 {
		t.Fatalf("expected a pass via non-K variant, got rejections %+v", rejected)
	}
	if len(passing) != 1 || passing[0].SelectedVariant == nil || passing[0].SelectedVariant.ID != "q4-0" {
		t.Fatalf("expected q4-0 selected, got %+v", passing)
	}
}

func TestFilterCandidatesAppleSiliconDropsFP8(t *testing.T) {
	entry := types.ModelEntry{
		ID: "model-fp8", Family: "model-fp8", Name: "model-fp8",
		Variants: []types.Variant{
			{
				ID: "fp8", Precision: types.PrecisionFP8,
				VRAMMinMB: 4096, VRAMRecommendedMB: 6144,
				PlatformSupport: types.VariantPlatformSupport{AppleMPS: types.PlatformCompat{Supported: true}},
			},
			{
				ID: "fp16", Precision: types.PrecisionFP16,
				VRAMMinMB: 4096, VRAMRecommendedMB: 6144,
				PlatformSupport: types.VariantPlatformSupport{AppleMPS: types.PlatformCompat{Supported: true}},
			},
		},
		Hardware: types.HardwareRequirements{TotalSizeGB: 3},
	}
	hw := baseHardware()
	hw.Platform = types.PlatformAppleSilicon
	hw.EffectiveVRAMGB = 6
	passing, rejected := FilterCandidates([]types.ModelEntry{entry}, hw, types.UserProfile{})
	if len(rejected) != 0 {
		t.Fatalf("expected a pass via the fp16 variant, got rejections %+v", rejected)
	}
	if len(passing) != 1 || passing[0].SelectedVariant == nil || passing[0].SelectedVariant.ID != "fp16" {
		t.Fatalf("expected fp16 selected over fp8, got %+v", passing)
	}
}

func TestFilterCandidatesStorageRejection(t *testing.T) {
	entry := fp16Entry("model-g", 8192)
	entry.Hardware.TotalSizeGB = 495
	hw := baseHardware()
	passing, rejected := FilterCandidates([]types.ModelEntry{entry}, hw, types.UserProfile{})
	if len(passing) != 0 {
		t.Fatalf("expected storage rejection, got passing %+v", passing)
	}
	if len(rejected) != 1 || rejected[0].Constraint != types.ConstraintStorageSpace {
		t.Fatalf("expected storage_space rejection, got %+v", rejected)
	}
}

func TestFilterCandidatesRejectionTotality(t *testing.T) {
	entries := []types.ModelEntry{fp16Entry("a", 8192), fp16Entry("b", 40960)}
	passing, rejected := FilterCandidates(entries, baseHardware(), types.UserProfile{})
	if len(passing)+len(rejected) != len(entries) {
		t.Fatalf("rejection totality violated: %d passing + %d rejected != %d entries", len(passing), len(rejected), len(entries))
	}
}
