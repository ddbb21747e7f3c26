package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that overrides every
// calculated worker count. Operators set it to pin pool sizes when the
// automatic sizing misbehaves in a constrained container.
const OverrideEnv = "THUMBNAIL_WORKERS"

// Count returns the number of workers for a task type. It derives the
// count from GOMAXPROCS, which tracks container CPU limits (Go 1.19+),
// never from runtime.NumCPU.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks
//
// limit caps the result; 0 means no cap. OverrideEnv wins over the
// calculation but is still capped by limit.
func Count(multiplier float64, limit int) int {
	if count, ok := envOverride(); ok {
		return capped(count, limit)
	}

	available := runtime.GOMAXPROCS(0)
	count := int(float64(available) * multiplier)
	if count < 1 {
		count = 1
	}
	return capped(count, limit)
}

// ForCPU returns the worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns the worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns the worker count for tasks that interleave I/O and
// CPU work, like decoding an image read from disk (1.5 per CPU).
func ForMixed(limit int) int {
	return Count(1.5, limit)
}

func envOverride() (int, bool) {
	raw := os.Getenv(OverrideEnv)
	if raw == "" {
		return 0, false
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 1 {
		return 0, false
	}
	return count, true
}

func capped(count, limit int) int {
	if limit > 0 && count > limit {
		return limit
	}
	return count
}
