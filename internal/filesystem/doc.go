/*
Package filesystem wraps os.Stat, os.Open, and os.ReadDir with retry
logic for NFS stale file handle errors (ESTALE, errno 116). Image
libraries commonly live on network mounts, and a rescan that races a
server-side rename otherwise surfaces spurious failures.

Only ESTALE triggers a retry; every other error returns immediately.
Backoff is exponential with a cap:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults are 3 attempts, 50ms initial backoff, 500ms cap.

Metric recording goes through the Observer interface so this package
never imports the metrics package. Startup wires the Prometheus
implementation via SetObserver and labels paths by volume through
SetDefaultVolumeResolver.
*/
package filesystem
