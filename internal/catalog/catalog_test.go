package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"recommendd/pkg/types"
)

const sampleCatalogYAML = `
entries:
  - id: model-a
    family: famA
    name: Model A
    modalities: [image, video]
    ecosystem_maturity: 0.9
    approach_fit: 0.7
    variants:
      - id: fp16
        precision: fp16
        vram_min_mb: 8000
        vram_recommended_mb: 12000
        download_size_gb: 8
        quality_retention_percent: 100
        platform_support:
          nvidia: {supported: true}
          apple_mps: {supported: true}
          amd_rocm: {supported: true}
      - id: q4
        precision: gguf_q4_k_m
        vram_min_mb: 4000
        vram_recommended_mb: 6000
        download_size_gb: 4
        quality_retention_percent: 90
        platform_support:
          nvidia: {supported: true}
          apple_mps: {supported: false}
          amd_rocm: {supported: true}
    capabilities:
      primary: [photorealism]
      scores: {photorealism: 0.9}
      mps_performance_penalty: 0
    hardware:
      total_size_gb: 8
      compute_intensity: high
      supports_cpu_offload: true
      supports_tensorrt: false
      minimum_ram_gb: 16
    cloud:
      available: false
  - id: model-b
    family: famB
    name: Model B
    modalities: [audio]
    ecosystem_maturity: 0.5
    approach_fit: 0.5
    variants:
      - id: only
        precision: gguf_mystery
        vram_min_mb: 2000
        vram_recommended_mb: 3000
        download_size_gb: 2
        quality_retention_percent: 80
        platform_support:
          nvidia: {supported: true}
          apple_mps: {supported: true}
          amd_rocm: {supported: false}
    capabilities:
      primary: [audio]
      scores: {}
      mps_performance_penalty: 0
    hardware:
      total_size_gb: 2
      compute_intensity: low
      supports_cpu_offload: false
      supports_tensorrt: false
      minimum_ram_gb: 4
    cloud:
      available: true
      service: example-cloud
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeTemp(t, "catalog.yaml", sampleCatalogYAML)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cat.Len())
	}
}

func TestLoad_UnrecognizedQuantRecordsWarning(t *testing.T) {
	path := writeTemp(t, "catalog.yaml", sampleCatalogYAML)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.Warnings) != 1 {
		t.Fatalf("expected exactly one warning for gguf_mystery, got %v", cat.Warnings)
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "catalog.txt", sampleCatalogYAML)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
	if !IsCatalogError(err) {
		t.Errorf("expected a catalog error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil || !IsCatalogError(err) {
		t.Fatalf("expected a catalog error, got %v", err)
	}
}

func TestLoad_MissingRequiredFieldFailsFatally(t *testing.T) {
	path := writeTemp(t, "catalog.yaml", `
entries:
  - id: incomplete
    family: fam
    modalities: [image]
`)
	_, err := Load(path)
	if err == nil || !IsCatalogError(err) {
		t.Fatalf("expected a catalog error for a missing name/variants, got %v", err)
	}
}

func TestLoad_VRAMMinExceedsRecommendedFails(t *testing.T) {
	path := writeTemp(t, "catalog.yaml", `
entries:
  - id: bad-vram
    family: fam
    name: Bad VRAM
    modalities: [image]
    variants:
      - id: v1
        precision: fp16
        vram_min_mb: 9000
        vram_recommended_mb: 4000
`)
	_, err := Load(path)
	if err == nil || !IsCatalogError(err) {
		t.Fatalf("expected a catalog error for vram_min_mb > vram_recommended_mb, got %v", err)
	}
}

func TestLoadEntries(t *testing.T) {
	entries := []types.ModelEntry{
		{
			ID:         "e1",
			Family:     "f",
			Name:       "E1",
			Modalities: []types.Modality{types.ModalityImage},
			Variants: []types.Variant{
				{ID: "v1", Precision: types.PrecisionFP16, VRAMMinMB: 1000, VRAMRecommendedMB: 2000},
			},
		},
	}
	cat, err := LoadEntries(entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", cat.Len())
	}
}

func TestLoadEntries_InvalidEntryFails(t *testing.T) {
	_, err := LoadEntries([]types.ModelEntry{{Family: "f", Name: "no id"}})
	if err == nil || !IsCatalogError(err) {
		t.Fatalf("expected a catalog error, got %v", err)
	}
}

func TestCandidatesFor(t *testing.T) {
	path := writeTemp(t, "catalog.yaml", sampleCatalogYAML)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	images := cat.CandidatesFor(types.ModalityImage)
	if len(images) != 1 || images[0].ID != "model-a" {
		t.Errorf("expected only model-a for image, got %v", images)
	}
	audio := cat.CandidatesFor(types.ModalityAudio)
	if len(audio) != 1 || audio[0].ID != "model-b" {
		t.Errorf("expected only model-b for audio, got %v", audio)
	}
	threeD := cat.CandidatesFor(types.Modality3D)
	if len(threeD) != 0 {
		t.Errorf("expected no 3d candidates, got %v", threeD)
	}
}

func TestGet(t *testing.T) {
	path := writeTemp(t, "catalog.yaml", sampleCatalogYAML)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, err := cat.Get("model-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Name != "Model A" {
		t.Errorf("expected Model A, got %q", entry.Name)
	}
	if _, err := cat.Get("nope"); !IsModelNotFound(err) {
		t.Errorf("expected IsModelNotFound, got %v", err)
	}
}

func TestVariantsOf_FiltersByPlatform(t *testing.T) {
	path := writeTemp(t, "catalog.yaml", sampleCatalogYAML)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	apple, err := cat.VariantsOf("model-a", types.PlatformAppleSilicon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(apple) != 1 || apple[0].ID != "fp16" {
		t.Errorf("expected only the fp16 variant on Apple Silicon, got %v", apple)
	}

	nvidia, err := cat.VariantsOf("model-a", types.PlatformNVIDIADesktop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nvidia) != 2 {
		t.Errorf("expected both variants on NVIDIA desktop, got %v", nvidia)
	}

	cpuOnly, err := cat.VariantsOf("model-a", types.PlatformCPUOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cpuOnly) != 2 {
		t.Errorf("expected every variant to support CPU-only, got %v", cpuOnly)
	}
}

func TestVariantsOf_UnknownModel(t *testing.T) {
	path := writeTemp(t, "catalog.yaml", sampleCatalogYAML)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cat.VariantsOf("nope", types.PlatformCPUOnly); !IsModelNotFound(err) {
		t.Errorf("expected IsModelNotFound, got %v", err)
	}
}

func TestParsePrecision(t *testing.T) {
	cases := []struct {
		in           string
		wantPrec     types.Precision
		wantQuant    types.GGUFQuant
		wantWarnEmpty bool
	}{
		{"fp16", types.PrecisionFP16, types.QuantNone, true},
		{"FP8", types.PrecisionFP8, types.QuantNone, true},
		{"gguf_q4_k_m", types.PrecisionGGUF, types.QuantQ4_K_M, true},
		{"gguf_unknown_quant", types.PrecisionGGUF, types.GGUFQuant("unknown_quant"), false},
		{"totally_unrecognized", types.PrecisionUnknown, types.QuantNone, false},
	}
	for _, c := range cases {
		prec, quant, warn := ParsePrecision(c.in)
		if prec != c.wantPrec || quant != c.wantQuant {
			t.Errorf("ParsePrecision(%q) = (%v, %v), want (%v, %v)", c.in, prec, quant, c.wantPrec, c.wantQuant)
		}
		if (warn == "") != c.wantWarnEmpty {
			t.Errorf("ParsePrecision(%q) warning emptiness = %v, want %v (warn=%q)", c.in, warn == "", c.wantWarnEmpty, warn)
		}
	}
}

func TestAll_ReturnsCatalogOrder(t *testing.T) {
	path := writeTemp(t, "catalog.yaml", sampleCatalogYAML)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := cat.All()
	if len(all) != 2 || all[0].ID != "model-a" || all[1].ID != "model-b" {
		t.Errorf("expected catalog order [model-a, model-b], got %v", all)
	}
}
