package hwprobe

import (
	"context"
	"runtime"
	"strconv"
	"strings"

	"github.com/jaypipes/ghw"

	"recommendd/pkg/types"
)

// offloadReserveGB and offloadSafetyFactor implement the
// usable_for_offload_gb formula: reserve a fixed slice for the OS, then
// discount the remainder by a safety factor before offering it for offload.
const (
	offloadReserveGB   = 4.0
	offloadSafetyFactor = 0.8
)

// probeRAM detects total/available RAM, memory type, and bandwidth. Total
// RAM failing to resolve is fatal for the caller (GPU and RAM
// must both resolve or Detect fails); available-RAM failure degrades to a
// conservative estimate of 80% of total, never to a fixed constant like
// "16GB".
func probeRAM(ctx context.Context) (types.RAMProfile, error) {
	var p types.RAMProfile

	totalGB, err := totalRAMGB(ctx)
	if err != nil {
		return p, ErrProbeFailed("ram.total_gb", err)
	}
	p.TotalGB = totalGB

	availGB, availErr := availableRAMGB(ctx)
	if availErr != nil || availGB <= 0 {
		availGB = totalGB * 0.8
	}
	p.AvailableGB = availGB

	ramType, speedMHz := detectMemoryType(ctx)
	p.Type = ramType
	if speedMHz > 0 {
		s := speedMHz
		p.SpeedMHz = &s
	}
	if bw, known := lookupRAMBandwidth(ramType, speedMHz); known {
		p.BandwidthGBps = bw
	}

	p.UsableForOffloadGB = calculateOffloadCapacity(p.AvailableGB)
	return p, nil
}

// calculateOffloadCapacity computes:
// usable_for_offload_gb = max(0, (available_gb - OS_RESERVE_GB) * OFFLOAD_SAFETY_FACTOR)
func calculateOffloadCapacity(availableGB float64) float64 {
	v := (availableGB - offloadReserveGB) * offloadSafetyFactor
	if v < 0 {
		return 0
	}
	return v
}

func totalRAMGB(ctx context.Context) (float64, error) {
	if info, err := ghw.Memory(); err == nil && info != nil && info.TotalUsableBytes > 0 {
		return float64(info.TotalUsableBytes) / (1024 * 1024 * 1024), nil
	}
	switch runtime.GOOS {
	case "linux":
		return totalRAMGBLinux(ctx)
	case "darwin":
		return totalRAMGBDarwin(ctx)
	default:
		return 0, errUnsupportedPlatform
	}
}

func availableRAMGB(ctx context.Context) (float64, error) {
	switch runtime.GOOS {
	case "linux":
		return availableRAMGBLinux(ctx)
	case "darwin":
		return availableRAMGBDarwin(ctx)
	default:
		return 0, errUnsupportedPlatform
	}
}

func totalRAMGBLinux(ctx context.Context) (float64, error) {
	out, err := runProbe(ctx, "cat", "/proc/meminfo")
	if err != nil {
		return 0, err
	}
	kb, err := memInfoField(out, "MemTotal")
	if err != nil {
		return 0, err
	}
	return kb / (1024 * 1024), nil
}

func availableRAMGBLinux(ctx context.Context) (float64, error) {
	out, err := runProbe(ctx, "cat", "/proc/meminfo")
	if err != nil {
		return 0, err
	}
	kb, err := memInfoField(out, "MemAvailable")
	if err != nil {
		return 0, err
	}
	return kb / (1024 * 1024), nil
}

func memInfoField(procMemInfo, field string) (float64, error) {
	for _, line := range strings.Split(procMemInfo, "\n") {
		if strings.HasPrefix(line, field+":") {
			tok, err := firstNumericToken(line)
			if err != nil {
				return 0, err
			}
			return strconv.ParseFloat(tok, 64)
		}
	}
	return 0, errFieldNotFound
}

func totalRAMGBDarwin(ctx context.Context) (float64, error) {
	out, err := runProbe(ctx, "sysctl", "-n", "hw.memsize")
	if err != nil {
		return 0, err
	}
	tok, err := firstNumericToken(out)
	if err != nil {
		return 0, err
	}
	bytesVal, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, err
	}
	return bytesVal / (1024 * 1024 * 1024), nil
}

func availableRAMGBDarwin(ctx context.Context) (float64, error) {
	out, err := runProbe(ctx, "vm_stat")
	if err != nil {
		return 0, err
	}
	pageSize := 4096.0
	var free, inactive float64
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "Pages free"):
			if tok, err := firstNumericToken(line); err == nil {
				free, _ = strconv.ParseFloat(tok, 64)
			}
		case strings.HasPrefix(line, "Pages inactive"):
			if tok, err := firstNumericToken(line); err == nil {
				inactive, _ = strconv.ParseFloat(tok, 64)
			}
		}
	}
	if free == 0 && inactive == 0 {
		return 0, errFieldNotFound
	}
	return (free + inactive) * pageSize / (1024 * 1024 * 1024), nil
}

// detectMemoryType attempts a best-effort (type, speedMHz) read. Unlike
// total/available RAM, memory type is advisory (it only feeds the bandwidth
// lookup table) so a failure here degrades to ("Unknown", 0) rather than
// propagating a ProbeFailed; it never fabricates a type on a dead end.
func detectMemoryType(ctx context.Context) (string, int) {
	switch runtime.GOOS {
	case "linux":
		return detectMemoryTypeLinux(ctx)
	case "darwin":
		return detectMemoryTypeDarwin(ctx)
	default:
		return "Unknown", 0
	}
}

func detectMemoryTypeLinux(ctx context.Context) (string, int) {
	if !commandAvailable("dmidecode") {
		return "Unknown", 0
	}
	out, err := runProbe(ctx, "dmidecode", "--type", "17")
	if err != nil {
		return "Unknown", 0
	}
	ramType := "Unknown"
	speed := 0
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Type:") && !strings.Contains(line, "Detail"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "Type:"))
			if v != "" && v != "Unknown" {
				ramType = v
			}
		case strings.HasPrefix(line, "Speed:"):
			if tok, err := firstNumericToken(line); err == nil {
				if n, err := strconv.Atoi(tok); err == nil {
					speed = n
				}
			}
		}
	}
	return ramType, speed
}

func detectMemoryTypeDarwin(ctx context.Context) (string, int) {
	out, err := runProbe(ctx, "sysctl", "-n", "machdep.cpu.brand_string")
	if err != nil {
		return "Unknown", 0
	}
	if strings.Contains(strings.ToUpper(out), "APPLE M") {
		return "LPDDR5", 6400
	}
	return "Unknown", 0
}

type memProbeError string

func (e memProbeError) Error() string { return string(e) }

var (
	errUnsupportedPlatform = memProbeError("unsupported platform for this probe")
	errFieldNotFound       = memProbeError("expected field not found in probe output")
)
