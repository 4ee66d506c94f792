package hwprobe

import (
	"context"
	"runtime"
	"strings"
	"syscall"

	"recommendd/pkg/types"
)

// probeStorage classifies the install volume's device type and estimates
// sustained read throughput via a tier lookup.
func probeStorage(ctx context.Context, path string) (types.StorageProfile, error) {
	var p types.StorageProfile

	freeGB, totalGB, err := diskUsageGB(path)
	if err != nil {
		return p, ErrProbeFailed("storage.free_gb", err)
	}
	p.FreeGB = freeGB
	p.TotalGB = totalGB

	storageType := classifyStorageDevice(ctx)
	p.Type = storageType
	p.ReadMBps, p.Tier = storageThroughput(storageType)
	return p, nil
}

func diskUsageGB(path string) (freeGB, totalGB float64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	blockSize := float64(stat.Bsize)
	freeGB = float64(stat.Bavail) * blockSize / (1024 * 1024 * 1024)
	totalGB = float64(stat.Blocks) * blockSize / (1024 * 1024 * 1024)
	return freeGB, totalGB, nil
}

// classifyStorageDevice shells out to the platform's own device-listing
// tool (lsblk/diskutil) rather than guessing a device type; reports
// StorageUnknown when the tool is unavailable or unparsable.
func classifyStorageDevice(ctx context.Context) types.StorageType {
	switch runtime.GOOS {
	case "linux":
		return classifyStorageLinux(ctx)
	case "darwin":
		return classifyStorageDarwin(ctx)
	default:
		return types.StorageUnknown
	}
}

func classifyStorageLinux(ctx context.Context) types.StorageType {
	if !commandAvailable("lsblk") {
		return types.StorageUnknown
	}
	out, err := runProbe(ctx, "lsblk", "-d", "-n", "-o", "TRAN,ROTA")
	if err != nil {
		return types.StorageUnknown
	}
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "nvme"):
		return types.StorageNVMe
	case strings.Contains(lower, "0") && strings.Contains(lower, "sata"):
		return types.StorageSATASSD
	case strings.Contains(lower, "1"):
		return types.StorageHDD
	case strings.Contains(lower, "sata"):
		return types.StorageSATASSD
	default:
		return types.StorageUnknown
	}
}

func classifyStorageDarwin(ctx context.Context) types.StorageType {
	out, err := runProbe(ctx, "diskutil", "info", "/")
	if err != nil {
		return types.StorageUnknown
	}
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "pci-express") || strings.Contains(lower, "apple fabric"):
		return types.StorageNVMe
	case strings.Contains(lower, "solid state: yes") || strings.Contains(lower, "solid state:     yes"):
		return types.StorageSATASSD
	case strings.Contains(lower, "solid state: no") || strings.Contains(lower, "solid state:     no"):
		return types.StorageHDD
	default:
		return types.StorageUnknown
	}
}

// storageThroughput maps a detected device type to an estimated sustained
// read throughput and tier from a fixed table: NVMe Gen4=7000 / Gen3=3500 /
// SATA=600 / HDD=140. NVMe generation is not distinguishable without
// vendor tooling, so NVMe conservatively resolves to the Gen3 figure. An
// unknown device type resolves to the SATA SSD figure and the MODERATE tier.
func storageThroughput(t types.StorageType) (mbps float64, tier types.StorageTier) {
	switch t {
	case types.StorageNVMe:
		return storageReadMBpsTier["nvme_gen3"], types.StorageTierFast
	case types.StorageSATASSD:
		return storageReadMBpsTier["sata_ssd"], types.StorageTierModerate
	case types.StorageHDD:
		return storageReadMBpsTier["hdd"], types.StorageTierSlow
	default:
		return storageReadMBpsTier["sata_ssd"], types.StorageTierModerate
	}
}
