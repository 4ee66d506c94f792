package recommend

import "sort"

// FitItem is one tentatively-selected model's footprint and importance,
// inputs to the space fitter.
type FitItem struct {
	ModelID        string
	VariantID      string
	ExecutionMode  string
	SizeGB         float64
	Priority       int // lower means more important
	CloudAvailable bool
}

// FitToSpace greedily packs items by ascending priority against freeGB,
// reserving storageBufferGB as headroom. Dropped items that declare
// a cloud fallback are returned separately rather than discarded.
func FitToSpace(items []FitItem, freeGB float64) (kept, cloudFallback []FitItem, spaceShortGB float64) {
	sorted := make([]FitItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Priority < sorted[b].Priority })

	var used, totalDesired float64
	for _, it := range sorted {
		totalDesired += it.SizeGB
	}

	budget := freeGB - storageBufferGB
	for _, it := range sorted {
		if used+it.SizeGB <= budget {
			kept = append(kept, it)
			used += it.SizeGB
			continue
		}
		if it.CloudAvailable {
			cloudFallback = append(cloudFallback, it)
		}
	}

	if short := totalDesired - budget; short > 0 {
		spaceShortGB = short
	}
	return kept, cloudFallback, spaceShortGB
}
