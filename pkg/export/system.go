package export

import (
	"context"
	"runtime"

	"github.com/docker/go-units"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/sirupsen/logrus"
)

// SystemInfo describes the host an export was produced on.
type SystemInfo struct {
	Hostname           string  `json:"hostname"`
	OS                 string  `json:"os"`
	Platform           string  `json:"platform"`
	PlatformVersion    string  `json:"platform_version"`
	KernelVersion      string  `json:"kernel_version"`
	Arch               string  `json:"arch"`
	Virtualization     string  `json:"virtualization,omitempty"`
	VirtualizationRole string  `json:"virtualization_role,omitempty"`
	CPUVendor          string  `json:"cpu_vendor"`
	CPUModel           string  `json:"cpu_model"`
	CPUCores           int     `json:"cpu_cores"`
	CPUMhz             float64 `json:"cpu_mhz"`
	MemoryTotal        uint64  `json:"memory_total_bytes"`
	MemoryTotalHuman   string  `json:"memory_total"`
}

// collectSystemInfo gathers host details. Probes that fail are logged and
// leave their fields empty.
func collectSystemInfo(ctx context.Context, log logrus.FieldLogger) *SystemInfo {
	info := &SystemInfo{Arch: runtime.GOARCH, OS: runtime.GOOS}

	if h, err := host.InfoWithContext(ctx); err != nil {
		log.WithError(err).Debug("Failed to read host info")
	} else {
		info.Hostname = h.Hostname
		info.OS = h.OS
		info.Platform = h.Platform
		info.PlatformVersion = h.PlatformVersion
		info.KernelVersion = h.KernelVersion
		info.Virtualization = h.VirtualizationSystem
		info.VirtualizationRole = h.VirtualizationRole

		if h.KernelArch != "" {
			info.Arch = h.KernelArch
		}
	}

	if cpus, err := cpu.InfoWithContext(ctx); err != nil {
		log.WithError(err).Debug("Failed to read cpu info")
	} else if len(cpus) > 0 {
		info.CPUVendor = cpus[0].VendorID
		info.CPUModel = cpus[0].ModelName
		info.CPUMhz = cpus[0].Mhz
	}

	if cores, err := cpu.CountsWithContext(ctx, true); err != nil {
		log.WithError(err).Debug("Failed to count cpus")
	} else {
		info.CPUCores = cores
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		log.WithError(err).Debug("Failed to read memory info")
	} else {
		info.MemoryTotal = vm.Total
		info.MemoryTotalHuman = units.BytesSize(float64(vm.Total))
	}

	return info
}
