package catalog

import (
	"fmt"
	"strings"

	"recommendd/pkg/types"
)

// ParsePrecision splits a catalog precision string (e.g. "gguf_q4_k_m",
// "fp16", "fp8") into the tagged union of types.Precision + types.GGUFQuant.
// Unrecognized strings decode to (PrecisionUnknown, "", warning) rather
// than a fatal error, preserving forward compatibility.
func ParsePrecision(s string) (types.Precision, types.GGUFQuant, string) {
	norm := strings.ToLower(strings.TrimSpace(s))
	switch norm {
	case "fp16", "f16":
		return types.PrecisionFP16, types.QuantNone, ""
	case "fp8", "f8":
		return types.PrecisionFP8, types.QuantNone, ""
	}
	if strings.HasPrefix(norm, "gguf_") {
		quantStr := strings.TrimPrefix(norm, "gguf_")
		quant := types.GGUFQuant(quantStr)
		switch quant {
		case types.QuantQ8_0, types.QuantQ6_K, types.QuantQ5_K_M, types.QuantQ5_0, types.QuantQ4_K_M, types.QuantQ4_0:
			return types.PrecisionGGUF, quant, ""
		default:
			return types.PrecisionGGUF, quant, fmt.Sprintf("unrecognized GGUF quant %q; treating as declared but unvalidated", quantStr)
		}
	}
	return types.PrecisionUnknown, types.QuantNone, fmt.Sprintf("unrecognized precision string %q", s)
}
