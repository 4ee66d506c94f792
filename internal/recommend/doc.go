// Package recommend implements the three-layer recommendation pipeline:
// constraint satisfaction, content-based modality scoring, TOPSIS ranking,
// the resolution cascade, the space fitter, and the explainer, orchestrated
// by Recommend(). Each stage is a pure function of its inputs; the catalog
// and hardware profile are never mutated. Files by concern:
//
//   - errors.go: CatalogError-adjacent pipeline error types (NoViableCandidates,
//     Cancelled, InvariantViolated) and their Is* helpers.
//   - constraint.go: the CSP filter.
//   - content.go: modality scorers and cosine similarity.
//   - topsis.go: multi-criteria ranking.
//   - cascade.go: the resolution cascade.
//   - fitter.go: space-constrained packing.
//   - explain.go: human-readable reasoning and warnings.
//   - orchestrator.go: Recommend(), the public entry point.
package recommend
