// Package memory configures the Go runtime memory limit from container
// metadata.
//
// Containers are usually deployed with a hard memory limit, but the Go
// runtime does not see cgroup limits on its own: without GOMEMLIMIT the
// garbage collector happily grows the heap until the kernel OOM-kills
// the process. [ConfigureFromEnv] closes that gap at startup:
//
//  1. If GOMEMLIMIT is already set, it is respected and reported.
//  2. Otherwise, if MEMORY_LIMIT carries the container limit in bytes
//     (typically injected via the Kubernetes Downward API), GOMEMLIMIT
//     is set to a fraction of it (MEMORY_RATIO, default 0.85).
//  3. With neither present, nothing is configured and the runtime
//     default applies.
//
// The headroom between the Go limit and the container limit absorbs
// allocations the Go heap accounting cannot see, chiefly libvips decode
// buffers and SQLite's page cache.
//
// Call ConfigureFromEnv first thing in main(), before the thumbnail
// cache or the database allocate anything of note:
//
//	func main() {
//		memory.ConfigureFromEnv()
//		// ...
//	}
package memory
