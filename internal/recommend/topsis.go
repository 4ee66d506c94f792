package recommend

import (
	"math"
	"sort"

	"recommendd/pkg/types"
)

const topsisEpsilon = 1e-10

var defaultWeights = types.CriteriaScores{
	ContentSimilarity: 0.35,
	HardwareFit:       0.25,
	SpeedFit:          0.15,
	EcosystemMaturity: 0.15,
	ApproachFit:       0.10,
}

var speedPriorityWeights = types.CriteriaScores{
	ContentSimilarity: 0.25,
	HardwareFit:       0.20,
	SpeedFit:          0.30,
	EcosystemMaturity: 0.15,
	ApproachFit:       0.10,
}

// SelectWeights picks the TOPSIS weight set, switching to the speed-priority
// set at speedPriority ≥ 0.7.
func SelectWeights(speedPriority float64) types.CriteriaScores {
	if speedPriority >= 0.7 {
		return speedPriorityWeights
	}
	return defaultWeights
}

// HardwareFit scores how comfortably a candidate's selected variant fits
// effective VRAM, penalized by Apple MPS overhead and sustained thermal
// throttling.
func HardwareFit(hw types.HardwareProfile, e types.ModelEntry, p types.PassingCandidate) float64 {
	if p.ExecutionMode == types.ExecCloud || p.SelectedVariant == nil {
		return 1.0
	}
	v := p.SelectedVariant
	vmin := float64(v.VRAMMinMB) / 1024.0
	vrec := float64(v.VRAMRecommendedMB) / 1024.0
	effective := hw.EffectiveVRAMGB

	var fit float64
	switch {
	case effective >= vrec:
		fit = 1.0
	case vrec <= vmin:
		if effective >= vmin {
			fit = 1.0
		} else {
			fit = 0.5
		}
	default:
		fit = clamp01(0.5 + 0.5*(effective-vmin)/(vrec-vmin))
	}

	if hw.Platform == types.PlatformAppleSilicon {
		fit *= 1 - e.Capabilities.MPSPerformancePenalty
	}

	ratio := hw.FormFactor.SustainedPerformanceRatio
	switch e.Hardware.ComputeIntensity {
	case types.ComputeHigh:
		fit *= ratio
	case types.ComputeMedium:
		fit *= (1 + ratio) / 2
	}
	return clamp01(fit)
}

// SpeedFit scores expected load latency against the user's speed priority;
// speedPriority < 0.3 returns the neutral 0.7 rather than computing load
// time at all.
func SpeedFit(hw types.HardwareProfile, e types.ModelEntry, p types.PassingCandidate, speedPriority float64) float64 {
	if speedPriority < 0.3 {
		return 0.7
	}
	sizeGB := e.Hardware.TotalSizeGB
	if p.SelectedVariant != nil && p.SelectedVariant.DownloadSizeGB > 0 {
		sizeGB = p.SelectedVariant.DownloadSizeGB
	}
	readMBps := hw.Storage.ReadMBps
	if readMBps <= 0 {
		return 0.2
	}
	loadTimeS := sizeGB * 1024 / readMBps

	var fit float64
	switch {
	case loadTimeS <= 5:
		fit = 1.0
	case loadTimeS <= 15:
		fit = 0.8
	case loadTimeS <= 30:
		fit = 0.6
	case loadTimeS <= 60:
		fit = 0.4
	default:
		fit = 0.2
	}

	isNVIDIA := hw.Platform == types.PlatformNVIDIADesktop || hw.Platform == types.PlatformNVIDIALaptop
	if isNVIDIA && e.Hardware.SupportsTensorRT {
		fit = clamp01(fit + 0.1)
	}
	return fit
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func criteriaRow(c types.CriteriaScores) [5]float64 {
	return [5]float64{c.ContentSimilarity, c.HardwareFit, c.SpeedFit, c.EcosystemMaturity, c.ApproachFit}
}

func rowFromCriteria(r [5]float64) types.CriteriaScores {
	return types.CriteriaScores{
		ContentSimilarity: r[0],
		HardwareFit:       r[1],
		SpeedFit:          r[2],
		EcosystemMaturity: r[3],
		ApproachFit:       r[4],
	}
}

func weightRow(w types.CriteriaScores) [5]float64 {
	return [5]float64{w.ContentSimilarity, w.HardwareFit, w.SpeedFit, w.EcosystemMaturity, w.ApproachFit}
}

// Rank runs the five-criterion TOPSIS ranking over scored.
// scored must already be restricted to one modality; entries supplies
// the catalog record behind each candidate's model id. Order in scored is
// preserved as the catalog-order tiebreak for equal closeness.
func Rank(modality types.Modality, scored []types.ScoredCandidate, entries map[string]types.ModelEntry, hw types.HardwareProfile, user types.UserProfile) []types.RankedCandidate {
	n := len(scored)
	if n == 0 {
		return nil
	}

	weights := SelectWeights(user.SpeedPriority)
	wRow := weightRow(weights)

	rows := make([][5]float64, n)
	criteria := make([]types.CriteriaScores, n)
	for i, s := range scored {
		entry := entries[s.Passing.ModelID]
		cs := types.CriteriaScores{
			ContentSimilarity: s.Similarity,
			HardwareFit:       HardwareFit(hw, entry, s.Passing),
			SpeedFit:          SpeedFit(hw, entry, s.Passing, user.SpeedPriority),
			EcosystemMaturity: entry.EcosystemMaturity,
			ApproachFit:       entry.ApproachFit,
		}
		criteria[i] = cs
		rows[i] = criteriaRow(cs)
	}

	var norms [5]float64
	for j := 0; j < 5; j++ {
		var sumSq float64
		for i := 0; i < n; i++ {
			sumSq += rows[i][j] * rows[i][j]
		}
		norms[j] = math.Sqrt(sumSq)
	}

	weighted := make([][5]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < 5; j++ {
			v := rows[i][j]
			if norms[j] > 0 {
				v /= norms[j]
			}
			weighted[i][j] = v * wRow[j]
		}
	}

	var ideal, antiIdeal [5]float64
	for j := 0; j < 5; j++ {
		ideal[j] = weighted[0][j]
		antiIdeal[j] = weighted[0][j]
		for i := 1; i < n; i++ {
			if weighted[i][j] > ideal[j] {
				ideal[j] = weighted[i][j]
			}
			if weighted[i][j] < antiIdeal[j] {
				antiIdeal[j] = weighted[i][j]
			}
		}
	}

	closeness := make([]float64, n)
	for i := 0; i < n; i++ {
		var dPlus, dMinus float64
		for j := 0; j < 5; j++ {
			dPlus += (weighted[i][j] - ideal[j]) * (weighted[i][j] - ideal[j])
			dMinus += (weighted[i][j] - antiIdeal[j]) * (weighted[i][j] - antiIdeal[j])
		}
		dPlus = math.Sqrt(dPlus)
		dMinus = math.Sqrt(dMinus)
		closeness[i] = dMinus / (dPlus + dMinus + topsisEpsilon)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if closeness[ia] != closeness[ib] {
			return closeness[ia] > closeness[ib]
		}
		return ia < ib
	})

	ranked := make([]types.RankedCandidate, n)
	for rank, idx := range order {
		ranked[rank] = types.RankedCandidate{
			Passing:        scored[idx].Passing,
			Modality:       modality,
			TopsisScore:    closeness[idx],
			CriteriaScores: criteria[idx],
			Rank:           rank + 1,
		}
	}
	return ranked
}
