package recommend

import (
	"fmt"
	"strings"

	"recommendd/pkg/types"
)

// knownVAEs is a small table of VAE artifacts resolvable from a catalog
// "vae:<id>" reference, mirroring manifest_orchestrator.py's vae_map: a
// hand-maintained scaffold of the common VAEs, not a general download
// index.
var knownVAEs = map[string]struct {
	url    string
	sizeGB float64
}{
	"sdxl_vae": {
		url:    "https://huggingface.co/madebyollin/sdxl-vae-fp16-fix/resolve/main/sdxl_vae.safetensors",
		sizeGB: 0.35,
	},
}

// classifyRequiredNode splits a catalog Variant.RequiredNodes entry of the
// form "<kind>:<id>" into its InstallationItemKind and bare id. Entries
// without a recognized "vae:"/"model:" prefix default to custom_node, the
// same fallback manifest_orchestrator.py applies to untyped node ids.
func classifyRequiredNode(raw string) (types.InstallationItemKind, string) {
	kind, id, found := strings.Cut(raw, ":")
	if !found {
		return types.ItemCustomNode, raw
	}
	switch kind {
	case "vae":
		return types.ItemVAE, id
	case "model":
		return types.ItemModel, id
	default:
		return types.ItemCustomNode, id
	}
}

// ResolveDependencies collects the VAE and custom-node artifacts every
// selected variant declares via RequiredNodes, deduplicated by item id
// across all selections, mirroring manifest_orchestrator.py's
// resolve_dependencies/_get_vae_item/_get_node_item.
func ResolveDependencies(selections []types.PassingCandidate, entriesByID map[string]types.ModelEntry) []types.InstallationItem {
	var items []types.InstallationItem
	seen := map[string]bool{}

	add := func(item types.InstallationItem) {
		if seen[item.ID] {
			return
		}
		seen[item.ID] = true
		items = append(items, item)
	}

	for _, sel := range selections {
		if sel.SelectedVariant == nil {
			continue
		}
		for _, raw := range sel.SelectedVariant.RequiredNodes {
			kind, id := classifyRequiredNode(raw)
			switch kind {
			case types.ItemVAE:
				add(vaeItem(id))
			case types.ItemModel:
				if item, ok := modelItem(id, entriesByID); ok {
					add(item)
				}
			default:
				add(customNodeItem(id))
			}
		}
	}
	return items
}

func vaeItem(id string) types.InstallationItem {
	if known, ok := knownVAEs[id]; ok {
		return types.InstallationItem{
			ID:     "vae_" + id,
			Kind:   types.ItemVAE,
			URL:    known.url,
			SizeGB: known.sizeGB,
		}
	}
	return types.InstallationItem{
		ID:   "vae_" + id,
		Kind: types.ItemVAE,
	}
}

// customNodeItem builds a git-clone dependency. The catalog declares only
// the node's id, not its repository or size, so the URL is a placeholder
// and SizeGB is left at 0, the same gap manifest_orchestrator.py's
// _get_node_item leaves unresolved.
func customNodeItem(id string) types.InstallationItem {
	return types.InstallationItem{
		ID:   "node_" + id,
		Kind: types.ItemCustomNode,
		URL:  fmt.Sprintf("https://github.com/example/%s", id),
	}
}

func modelItem(id string, entriesByID map[string]types.ModelEntry) (types.InstallationItem, bool) {
	entry, ok := entriesByID[id]
	if !ok {
		return types.InstallationItem{}, false
	}
	return types.InstallationItem{
		ID:     "model_" + id,
		Kind:   types.ItemModel,
		SizeGB: entry.Hardware.TotalSizeGB,
	}, true
}
