package workers

import (
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const (
	// MinOverride and MaxOverride bound a user-pinned worker count.
	MinOverride = 1
	MaxOverride = 64

	// EnvOverride pins the worker count when no flag or config value does.
	EnvOverride = "RELOCATOR_WORKERS"
	// EnvMemoryLimit carries a container memory limit in bytes.
	EnvMemoryLimit = "MEMORY_LIMIT"

	ioMultiplier    = 1.5
	gibPerFactor    = 4.0
	maxMemoryFactor = 2.0
	floorWorkers    = 2
	ceilingWorkers  = 32
	ceilingPerCPU   = 4
)

// Sizing records the chosen worker count together with its inputs.
type Sizing struct {
	Workers   int
	CPUs      int
	MemoryGiB float64
	MemKnown  bool
	Override  int
	Source    string // "override", "env", or "auto"
}

// Compute returns the worker count for the given inputs.
//
// A positive override is clamped to [MinOverride, MaxOverride]. Otherwise the
// count is cpus*1.5 scaled by min(2, memGiB/4) when memory is known, then
// clamped to [max(2, cpus), min(32, 4*cpus)]; the upper bound is applied last.
func Compute(override, cpus int, memGiB float64, memKnown bool) int {
	if override > 0 {
		return clamp(override, MinOverride, MaxOverride)
	}
	if cpus < 1 {
		cpus = 1
	}

	factor := 1.0
	if memKnown {
		factor = math.Min(maxMemoryFactor, memGiB/gibPerFactor)
	}
	base := int(float64(cpus) * ioMultiplier * factor)

	lower := max(floorWorkers, cpus)
	upper := min(ceilingWorkers, cpus*ceilingPerCPU)
	if base < lower {
		base = lower
	}
	if base > upper {
		base = upper
	}
	return base
}

// Resolve gathers CPU and memory signals from the running process and
// computes the worker count. override <= 0 means "not set"; EnvOverride is
// consulted before falling back to automatic sizing.
func Resolve(override int) Sizing {
	s := Sizing{
		CPUs:     runtime.GOMAXPROCS(0),
		Override: override,
		Source:   "auto",
	}
	if override > 0 {
		s.Source = "override"
	} else if value := strings.TrimSpace(os.Getenv(EnvOverride)); value != "" {
		if count, err := strconv.Atoi(value); err == nil && count > 0 {
			s.Override = count
			s.Source = "env"
		}
	}
	s.MemoryGiB, s.MemKnown = MemoryGiB()
	s.Workers = Compute(s.Override, s.CPUs, s.MemoryGiB, s.MemKnown)
	return s
}

// MemoryGiB reports the memory available to the process in GiB. The
// container limit takes precedence over physical RAM.
func MemoryGiB() (float64, bool) {
	if value := strings.TrimSpace(os.Getenv(EnvMemoryLimit)); value != "" {
		if limit, err := strconv.ParseInt(value, 10, 64); err == nil && limit > 0 {
			return bytesToGiB(uint64(limit)), true
		}
	}
	total, ok := systemMemoryBytes()
	if !ok || total == 0 {
		return 0, false
	}
	return bytesToGiB(total), true
}

func bytesToGiB(b uint64) float64 {
	return float64(b) / (1 << 30)
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
