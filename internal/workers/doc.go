/*
Package workers sizes the worker pools used by the thumbnail cache and
the catalog scanner.

runtime.NumCPU reports the host CPU count and ignores container cgroup
limits, so pools sized from it over-subscribe throttled containers. Go
1.19+ sets GOMAXPROCS from the container limit, and every function here
derives its count from GOMAXPROCS(0) instead.

Pick the helper that matches the workload:

	workers.ForCPU(8)   // pure decode/encode loops
	workers.ForIO(16)   // stat and read heavy walks
	workers.ForMixed(8) // thumbnail generation: read, decode, encode

All counts respect the THUMBNAIL_WORKERS environment variable override
and the per-call cap, and are never below 1.
*/
package workers
