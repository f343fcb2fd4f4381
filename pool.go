package doccrop

import "runtime"

// Worker pool sizing constants.
const (
	// MinWorkers ensures at least one job runs.
	MinWorkers = 1

	// MaxWorkers caps concurrent jobs; each may hold a converter process.
	MaxWorkers = 5

	// cpuDivisor leaves headroom for converter child processes.
	cpuDivisor = 2
)

// ResolveWorkers determines the worker count for a run.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// The result is always within [MinWorkers, MaxWorkers].
func ResolveWorkers(workers int) int {
	n := workers
	if n <= 0 {
		// GOMAXPROCS is adjusted by automaxprocs for containers
		n = runtime.GOMAXPROCS(0) / cpuDivisor
	}
	return min(max(n, MinWorkers), MaxWorkers)
}
