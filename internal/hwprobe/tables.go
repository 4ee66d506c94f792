package hwprobe

import "strings"

// appleChipBandwidthGBps maps an Apple Silicon chip model string (as
// reported by `sysctl -n machdep.cpu.brand_string` or `system_profiler`) to
// its published unified-memory bandwidth in GB/s. Table misses fall back to
// appleUnknownChipBandwidthGBps plus a recorded warning rather than a
// silent default.
var appleChipBandwidthGBps = map[string]float64{
	"M1":          68,
	"M1 Pro":      200,
	"M1 Max":      400,
	"M1 Ultra":    800,
	"M2":          100,
	"M2 Pro":      200,
	"M2 Max":      400,
	"M2 Ultra":    800,
	"M3":          100,
	"M3 Pro":      150,
	"M3 Max":      400,
	"M4":          120,
	"M4 Pro":      273,
	"M4 Max":      546,
}

const appleUnknownChipBandwidthGBps = 100.0

// lookupAppleChipBandwidth matches chipModel against appleChipBandwidthGBps
// using suffix-insensitive containment, since the brand string often carries
// extra text ("Apple M2 Pro").
func lookupAppleChipBandwidth(chipModel string) (bw float64, known bool) {
	upper := strings.ToUpper(chipModel)
	best := ""
	for name := range appleChipBandwidthGBps {
		if strings.Contains(upper, strings.ToUpper(name)) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return appleUnknownChipBandwidthGBps, false
	}
	return appleChipBandwidthGBps[best], true
}

// ramBandwidthGBps maps a (memory type, effective speed MT/s) lookup onto an
// approximate per-channel*2 (dual channel assumed) bandwidth figure.
var ramBandwidthGBps = map[string]float64{
	"DDR3-1600":  25.6,
	"DDR4-2133":  34.1,
	"DDR4-2400":  38.4,
	"DDR4-2666":  42.6,
	"DDR4-3200":  51.2,
	"DDR5-4800":  76.8,
	"DDR5-5600":  89.6,
	"DDR5-6000":  96.0,
	"DDR5-6400":  102.4,
	"LPDDR5-6400": 102.4,
	"LPDDR5X-8533": 136.5,
}

// ramBandwidthBaseTypeGBps is the fallback when the exact speed bucket is
// unknown but the memory generation is known.
var ramBandwidthBaseTypeGBps = map[string]float64{
	"DDR3":   25.6,
	"DDR4":   38.4,
	"DDR5":   89.6,
	"LPDDR4": 34.1,
	"LPDDR5": 102.4,
}

// lookupRAMBandwidth resolves bandwidth for a (type, speedMHz) pair, falling
// back to the base-type table, then reporting unknown rather than guessing.
func lookupRAMBandwidth(ramType string, speedMHz int) (bw float64, known bool) {
	if speedMHz > 0 {
		key := ramType + "-" + itoa(speedMHz)
		if v, ok := ramBandwidthGBps[key]; ok {
			return v, true
		}
	}
	if v, ok := ramBandwidthBaseTypeGBps[ramType]; ok {
		return v, true
	}
	return 0, false
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// storageReadMBpsTier is a tier->throughput lookup, GB/s converted to MB/s.
var storageReadMBpsTier = map[string]float64{
	"nvme_gen4": 7000,
	"nvme_gen3": 3500,
	"sata_ssd":  600,
	"hdd":       140,
}

// nvidiaReferenceTDPWatts maps a substring of an NVIDIA device name to its
// desktop reference TDP in watts, used to infer laptop chassis and compute
// the sustained performance ratio when power-limit telemetry is available
// but the reference point is not declared by the driver.
var nvidiaReferenceTDPWatts = map[string]int{
	"RTX 4090": 450,
	"RTX 4080": 320,
	"RTX 4070": 200,
	"RTX 4060": 160,
	"RTX 3090": 350,
	"RTX 3080": 320,
	"RTX 3070": 220,
	"RTX 3060": 170,
	"RTX 2080": 215,
	"RTX 2070": 175,
	"RTX 2060": 160,
}

// lookupReferenceTDP finds the reference TDP for an NVIDIA device name via
// longest-substring match, the same style as lookupAppleChipBandwidth.
func lookupReferenceTDP(deviceName string) (watts int, known bool) {
	upper := strings.ToUpper(deviceName)
	best := ""
	for name := range nvidiaReferenceTDPWatts {
		if strings.Contains(upper, strings.ToUpper(name)) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return 0, false
	}
	return nvidiaReferenceTDPWatts[best], true
}
