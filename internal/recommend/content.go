package recommend

import (
	"math"
	"strings"

	"recommendd/pkg/types"
)

// ModalityScorer derives comparable [0,1] vectors for one modality.
// Dimensions returns the ordered axis names both vectors must
// share; BuildUserVector/BuildModelVector never return NaN components.
type ModalityScorer interface {
	Dimensions() []string
	BuildUserVector(u types.UserProfile) types.CapabilityScores
	BuildModelVector(caps types.Capabilities) types.CapabilityScores
}

var scorers = map[types.Modality]ModalityScorer{
	types.ModalityImage: imageScorer{},
	types.ModalityVideo: videoScorer{},
	types.ModalityAudio: audioScorer{},
	types.Modality3D:    threeDScorer{},
}

// CosineSimilarity L2-normalizes a and b over dims and returns their cosine.
// A zero-magnitude vector yields 0, never NaN.
func CosineSimilarity(a, b types.CapabilityScores, dims []string) float64 {
	var dot, magA, magB float64
	for _, d := range dims {
		av, bv := a[d], b[d]
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func matchingMissing(user, model types.CapabilityScores, dims []string) (matching, missing []string) {
	for _, d := range dims {
		uv, mv := user[d], model[d]
		if mv >= 0.6 && uv >= 0.6 {
			matching = append(matching, d)
		}
		if uv >= 0.7 && mv <= 0.3 {
			missing = append(missing, d)
		}
	}
	return matching, missing
}

// ScoreCandidate scores p against every modality u requested that e also
// serves.
func ScoreCandidate(e types.ModelEntry, p types.PassingCandidate, u types.UserProfile) []types.ScoredCandidate {
	var out []types.ScoredCandidate
	for _, m := range u.RequiredModalities {
		if !e.ServesModality(m) {
			continue
		}
		scorer, ok := scorers[m]
		if !ok {
			continue
		}
		uv := scorer.BuildUserVector(u)
		mv := scorer.BuildModelVector(e.Capabilities)
		dims := scorer.Dimensions()
		matching, missing := matchingMissing(uv, mv, dims)
		out = append(out, types.ScoredCandidate{
			Passing:          p,
			Modality:         m,
			Similarity:       CosineSimilarity(uv, mv, dims),
			MatchingFeatures: matching,
			MissingFeatures:  missing,
		})
	}
	return out
}

// ContentScore is the user-priority-weighted mean across a candidate's
// per-modality similarities. Every served-and-requested modality counts
// equally, so the weighted mean reduces to a plain mean.
func ContentScore(scored []types.ScoredCandidate) float64 {
	if len(scored) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scored {
		sum += s.Similarity
	}
	return sum / float64(len(scored))
}

// modelVectorFromScores looks up each dimension in caps.Scores, falling
// back to a presence check against the catalog's tag fields (Primary and
// StyleTags, plus ControlnetSupport for pose_control) when a catalog entry
// declares a capability as a tag rather than a numeric score. VideoModes is
// not consulted, and an untagged text_rendering scores 0.3 rather than 0.
func modelVectorFromScores(caps types.Capabilities, dims []string) types.CapabilityScores {
	out := make(types.CapabilityScores, len(dims))
	for _, d := range dims {
		if v, ok := caps.Scores[d]; ok {
			out[d] = v
			continue
		}
		out[d] = binaryPresence(caps, d)
	}
	return out
}

func binaryPresence(caps types.Capabilities, dim string) float64 {
	if containsFold(caps.Primary, dim) || containsFold(caps.StyleTags, dim) {
		return 1.0
	}
	switch dim {
	case "pose_control":
		if containsSubstrFold(caps.ControlnetSupport, "pose") {
			return 1.0
		}
	case "text_rendering":
		if containsFold(caps.StyleTags, "text") {
			return 1.0
		}
		return 0.3
	}
	return 0
}

func containsFold(xs []string, target string) bool {
	for _, x := range xs {
		if strings.EqualFold(x, target) {
			return true
		}
	}
	return false
}

func containsSubstrFold(xs []string, substr string) bool {
	for _, x := range xs {
		if strings.Contains(strings.ToLower(x), substr) {
			return true
		}
	}
	return false
}

func needScore(n types.FeatureNeed) float64 {
	switch n {
	case types.NeedEssential:
		return 1.0
	case types.NeedHelpful:
		return 0.5
	default:
		return 0
	}
}

// imageScorer implements the worked example dimension set.
type imageScorer struct{}

func (imageScorer) Dimensions() []string {
	return []string{
		"photorealism", "artistic_quality", "text_rendering", "editability",
		"pose_control", "inpainting", "instruction_editing",
		"character_consistency", "generation_speed",
	}
}

func (imageScorer) BuildUserVector(u types.UserProfile) types.CapabilityScores {
	photoTag := u.ImagePrefs != nil && containsFold(u.ImagePrefs.StyleTags, "photorealism")
	photorealism := types.Normalize01(u.SharedQuality.Photorealism)
	if !photoTag {
		photorealism *= 0.5
	}

	v := types.CapabilityScores{
		"photorealism":           photorealism,
		"artistic_quality":       types.Normalize01(u.SharedQuality.ArtisticStylization),
		"text_rendering":         0.5,
		"character_consistency":  needScore(u.CharacterConsistency),
		"generation_speed":       types.Normalize01(u.SharedQuality.GenerationSpeed),
		"editability":            0,
		"pose_control":           0,
		"inpainting":             0,
		"instruction_editing":    0,
	}
	if p := u.ImagePrefs; p != nil {
		v["editability"] = p.Editability
		v["inpainting"] = p.LocalizedEdits
		v["instruction_editing"] = p.HolisticEdits
		if p.PoseControl >= 0.5 {
			v["pose_control"] = 1.0
		}
	}
	return v
}

func (imageScorer) BuildModelVector(caps types.Capabilities) types.CapabilityScores {
	return modelVectorFromScores(caps, imageScorer{}.Dimensions())
}

type videoScorer struct{}

func (videoScorer) Dimensions() []string {
	return []string{"motion_quality", "temporal_coherence", "generation_speed", "photorealism", "artistic_quality"}
}

func (videoScorer) BuildUserVector(u types.UserProfile) types.CapabilityScores {
	v := types.CapabilityScores{
		"generation_speed": types.Normalize01(u.SharedQuality.GenerationSpeed),
		"photorealism":      types.Normalize01(u.SharedQuality.Photorealism),
		"artistic_quality":  types.Normalize01(u.SharedQuality.ArtisticStylization),
	}
	if p := u.VideoPrefs; p != nil {
		v["motion_quality"] = p.MotionIntensity
		v["temporal_coherence"] = p.TemporalCoherence
	}
	return v
}

func (videoScorer) BuildModelVector(caps types.Capabilities) types.CapabilityScores {
	return modelVectorFromScores(caps, videoScorer{}.Dimensions())
}

type audioScorer struct{}

func (audioScorer) Dimensions() []string { return []string{"lip_sync", "audio_quality", "generation_speed"} }

func (audioScorer) BuildUserVector(u types.UserProfile) types.CapabilityScores {
	v := types.CapabilityScores{
		"audio_quality":    types.Normalize01(u.SharedQuality.OutputQuality),
		"generation_speed": types.Normalize01(u.SharedQuality.GenerationSpeed),
	}
	if p := u.AudioPrefs; p != nil && p.LipSyncNeeded {
		v["lip_sync"] = 1.0
	} else {
		v["lip_sync"] = 0
	}
	return v
}

func (audioScorer) BuildModelVector(caps types.Capabilities) types.CapabilityScores {
	return modelVectorFromScores(caps, audioScorer{}.Dimensions())
}

type threeDScorer struct{}

func (threeDScorer) Dimensions() []string { return []string{"mesh_quality", "generation_speed"} }

func (threeDScorer) BuildUserVector(u types.UserProfile) types.CapabilityScores {
	meshQuality := types.Normalize01(u.SharedQuality.OutputQuality)
	if p := u.ThreeDPrefs; p != nil && p.MeshQuality > 0 {
		meshQuality = p.MeshQuality
	}
	return types.CapabilityScores{
		"mesh_quality":     meshQuality,
		"generation_speed": types.Normalize01(u.SharedQuality.GenerationSpeed),
	}
}

func (threeDScorer) BuildModelVector(caps types.Capabilities) types.CapabilityScores {
	return modelVectorFromScores(caps, threeDScorer{}.Dimensions())
}
