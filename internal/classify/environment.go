package classify

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

// CaptureEnvironment snapshots host facts at detection time. Probe failures
// leave the affected fields zero; the snapshot is best-effort context, not a
// precondition for recording the error.
func CaptureEnvironment() *record.Environment {
	env := &record.Environment{
		Platform:       runtime.GOOS,
		Arch:           runtime.GOARCH,
		RuntimeVersion: runtime.Version(),
		PID:            os.Getpid(),
	}

	if info, err := host.Info(); err == nil {
		env.Hostname = info.Hostname
		env.UptimeSeconds = info.Uptime
		if info.Platform != "" {
			env.Platform = info.Platform
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		env.MemoryUsed = vm.Used
	}
	return env
}
