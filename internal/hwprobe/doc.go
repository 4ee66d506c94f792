// Package hwprobe detects local hardware and normalizes it into a
// types.HardwareProfile. It is structured into small files by concern:
//
//   - detect.go: Detect(), the orchestrator that fans out and joins the
//     per-subsystem probes.
//   - shell.go: subprocess discipline — profile-isolated command execution,
//     bounded timeouts, first-numeric/first-JSON-token extraction.
//   - errors.go: ProbeFailed and its Is* helper.
//   - tables.go: declarative lookup tables (Apple chip bandwidth, RAM
//     bandwidth by type, storage throughput tiers, NVIDIA reference TDP).
//   - cpu.go: cross-platform CPU probe (github.com/klauspost/cpuid/v2,
//     github.com/jaypipes/ghw).
//   - ram.go: cross-platform RAM probe (total/available/type/bandwidth).
//   - storage.go: cross-platform storage probe.
//   - gpu_nvidia.go, gpu_apple.go, gpu_amd.go, gpu_cpu.go: per-vendor GPU
//     probes dispatched by detected platform.
//   - formfactor.go: the sustained performance ratio formula (laptop
//     detection itself happens in the per-vendor GPU probes).
//
// A failure to resolve a core field (CPU cores, total RAM, free storage)
// produces a ProbeFailed, which the orchestrator either records as a
// warning or, for GPU plus RAM, treats as fatal. Advisory fields degrade
// to a fixed fallback without a ProbeFailed: available RAM to 80% of
// total, memory type to "Unknown", storage type to unknown (read at SATA
// SSD throughput), and Apple thermal state to nominal.
package hwprobe
