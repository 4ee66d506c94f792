package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"recommendd/internal/common/fsutil"
	"recommendd/pkg/types"
)

// document is the on-disk shape of the declarative catalog file. Additional
// top-level fields are tolerated for forward compatibility.
type document struct {
	Entries []rawEntry `json:"entries" yaml:"entries" toml:"entries"`
}

// rawEntry mirrors types.ModelEntry but keeps each variant's precision as
// the single catalog string (e.g. "gguf_q4_0") before ParsePrecision splits
// it into the tagged union of types.Precision + types.GGUFQuant. It cannot
// embed types.ModelEntry with ",inline" because that type's own Variants
// field and this struct's Variants field would collide under the same
// "variants" key (gopkg.in/yaml.v3 rejects inline structs that shadow a
// field name, unlike encoding/json's promotion rules), so every ModelEntry
// field besides Variants is restated here instead.
type rawEntry struct {
	ID                string                     `json:"id" yaml:"id" toml:"id"`
	Family            string                     `json:"family" yaml:"family" toml:"family"`
	Name              string                     `json:"name" yaml:"name" toml:"name"`
	License           string                     `json:"license,omitempty" yaml:"license,omitempty" toml:"license,omitempty"`
	Modalities        []types.Modality           `json:"modalities" yaml:"modalities" toml:"modalities"`
	EcosystemMaturity float64                    `json:"ecosystem_maturity" yaml:"ecosystem_maturity" toml:"ecosystem_maturity"`
	ApproachFit       float64                    `json:"approach_fit" yaml:"approach_fit" toml:"approach_fit"`
	Variants          []rawVariant               `json:"variants" yaml:"variants" toml:"variants"`
	Capabilities      types.Capabilities         `json:"capabilities" yaml:"capabilities" toml:"capabilities"`
	Hardware          types.HardwareRequirements `json:"hardware" yaml:"hardware" toml:"hardware"`
	Cloud             types.CloudInfo            `json:"cloud" yaml:"cloud" toml:"cloud"`
	Incompatibilities []string                   `json:"incompatibilities,omitempty" yaml:"incompatibilities,omitempty" toml:"incompatibilities,omitempty"`
}

// rawVariant mirrors types.Variant for the same reason rawEntry mirrors
// types.ModelEntry: its Precision field would otherwise collide with
// types.Variant's own Precision field under the "precision" key.
type rawVariant struct {
	ID                      string                       `json:"id" yaml:"id" toml:"id"`
	Precision               string                       `json:"precision" yaml:"precision" toml:"precision"`
	VRAMMinMB               int                          `json:"vram_min_mb" yaml:"vram_min_mb" toml:"vram_min_mb"`
	VRAMRecommendedMB       int                          `json:"vram_recommended_mb" yaml:"vram_recommended_mb" toml:"vram_recommended_mb"`
	DownloadSizeGB          float64                      `json:"download_size_gb" yaml:"download_size_gb" toml:"download_size_gb"`
	QualityRetentionPercent float64                      `json:"quality_retention_percent" yaml:"quality_retention_percent" toml:"quality_retention_percent"`
	PlatformSupport         types.VariantPlatformSupport `json:"platform_support" yaml:"platform_support" toml:"platform_support"`
	RequiredNodes           []string                     `json:"required_nodes,omitempty" yaml:"required_nodes,omitempty" toml:"required_nodes,omitempty"`
}

// Catalog is the immutable, indexed in-memory catalog. Build
// it once via Load; it is safe to share across concurrent pipeline runs
// without synchronization because nothing mutates it after construction.
type Catalog struct {
	entries    []types.ModelEntry
	byID       map[string]int
	byModality map[types.Modality][]int
	Warnings   []string
}

var loadMu sync.Mutex // guards nothing shared; documents construction-time discipline only.

// Load parses path (yaml/yml/json/toml) into a Catalog. Missing required
// fields (id, family, name, at least one variant) fail fatally with a
// catalogError; unknown variant precision strings are tolerated as a
// recorded warning instead.
func Load(path string) (*Catalog, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, ErrCatalog(path, err)
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, ErrCatalog(path, err)
	}

	var doc document
	switch ext := strings.ToLower(filepath.Ext(expanded)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &doc)
	case ".json":
		err = json.Unmarshal(b, &doc)
	case ".toml":
		err = toml.Unmarshal(b, &doc)
	default:
		return nil, ErrCatalog(path, fmt.Errorf("unsupported catalog extension: %s", ext))
	}
	if err != nil {
		return nil, ErrCatalog(path, err)
	}

	return build(doc, path)
}

// LoadEntries builds a Catalog directly from already-decoded entries,
// bypassing file I/O; used by tests and by callers that assemble a catalog
// programmatically (e.g. recctl's synthetic fixtures).
func LoadEntries(entries []types.ModelEntry) (*Catalog, error) {
	c := &Catalog{
		byID:       map[string]int{},
		byModality: map[types.Modality][]int{},
	}
	for _, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, ErrCatalog("<entries>", err)
		}
		c.index(e)
	}
	return c, nil
}

func build(doc document, path string) (*Catalog, error) {
	c := &Catalog{
		byID:       map[string]int{},
		byModality: map[types.Modality][]int{},
	}
	for _, raw := range doc.Entries {
		entry := types.ModelEntry{
			ID:                raw.ID,
			Family:            raw.Family,
			Name:              raw.Name,
			License:           raw.License,
			Modalities:        raw.Modalities,
			EcosystemMaturity: raw.EcosystemMaturity,
			ApproachFit:       raw.ApproachFit,
			Capabilities:      raw.Capabilities,
			Hardware:          raw.Hardware,
			Cloud:             raw.Cloud,
			Incompatibilities: raw.Incompatibilities,
		}
		entry.Variants = make([]types.Variant, 0, len(raw.Variants))
		for _, rv := range raw.Variants {
			v := types.Variant{
				ID:                      rv.ID,
				VRAMMinMB:               rv.VRAMMinMB,
				VRAMRecommendedMB:       rv.VRAMRecommendedMB,
				DownloadSizeGB:          rv.DownloadSizeGB,
				QualityRetentionPercent: rv.QualityRetentionPercent,
				PlatformSupport:         rv.PlatformSupport,
				RequiredNodes:           rv.RequiredNodes,
			}
			precision, quant, warn := ParsePrecision(rv.Precision)
			v.Precision = precision
			v.Quant = quant
			if warn != "" {
				c.Warnings = append(c.Warnings, fmt.Sprintf("%s/%s: %s", entry.ID, v.ID, warn))
			}
			entry.Variants = append(entry.Variants, v)
		}
		if err := validateEntry(entry); err != nil {
			return nil, ErrCatalog(path, fmt.Errorf("entry %q: %w", entry.ID, err))
		}
		c.index(entry)
	}
	return c, nil
}

func (c *Catalog) index(e types.ModelEntry) {
	idx := len(c.entries)
	c.entries = append(c.entries, e)
	c.byID[e.ID] = idx
	for _, m := range e.Modalities {
		c.byModality[m] = append(c.byModality[m], idx)
	}
}

func validateEntry(e types.ModelEntry) error {
	if e.ID == "" {
		return fmt.Errorf("missing id")
	}
	if e.Family == "" {
		return fmt.Errorf("missing family")
	}
	if e.Name == "" {
		return fmt.Errorf("missing name")
	}
	if len(e.Variants) == 0 {
		return fmt.Errorf("at least one variant is required")
	}
	for _, v := range e.Variants {
		if v.VRAMMinMB > v.VRAMRecommendedMB {
			return fmt.Errorf("variant %q: vram_min_mb (%d) > vram_recommended_mb (%d)", v.ID, v.VRAMMinMB, v.VRAMRecommendedMB)
		}
	}
	return nil
}

// CandidatesFor returns every entry declaring support for modality m, in
// catalog order for determinism.
func (c *Catalog) CandidatesFor(m types.Modality) []types.ModelEntry {
	idxs := c.byModality[m]
	out := make([]types.ModelEntry, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, c.entries[i])
	}
	return out
}

// Get returns the entry with the given id.
func (c *Catalog) Get(id string) (types.ModelEntry, error) {
	idx, ok := c.byID[id]
	if !ok {
		return types.ModelEntry{}, ErrModelNotFound(id)
	}
	return c.entries[idx], nil
}

// VariantsOf returns id's variants filtered by declared support for
// platform, highest quality first (catalog order is already
// highest-to-lowest precision by catalog invariant).
func (c *Catalog) VariantsOf(id string, platform types.Platform) ([]types.Variant, error) {
	entry, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	out := make([]types.Variant, 0, len(entry.Variants))
	for _, v := range entry.Variants {
		if variantSupportsPlatform(v, platform) {
			out = append(out, v)
		}
	}
	return out, nil
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

// All returns every entry in catalog order. Callers must not mutate the
// returned slice's entries' nested slices.
func (c *Catalog) All() []types.ModelEntry {
	return c.entries
}

// Len reports the number of entries in the catalog.
func (c *Catalog) Len() int { return len(c.entries) }
