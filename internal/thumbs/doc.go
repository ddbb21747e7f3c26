/*
Package thumbs is the asynchronous bounded thumbnail cache. Request
returns immediately: the first request for a path enqueues a decode
job on the worker pool and reports Pending; later requests for the
same path ride the existing entry instead of re-triggering work.

Entries are evicted LRU by access recency once the cache exceeds its
capacity; Pending entries are never evicted. A per-entry generation
stamp, taken from a cache-wide counter, abandons results that arrive
for entries invalidated or retried while the decode ran.

Decode failures are data, not errors: the entry turns Failed with the
reason, and is re-enqueued at most once per explicit Retry call.

With a DiskDir configured, generated thumbnails are also written to
disk under freedesktop-style MD5 names. Workers check the store before
decoding, so evicted and cold-start entries come back from disk
instead of a fresh decode; Invalidate removes the disk copy too.

Unlike the engine-owned state, the cache locks internally; it is the
one component with its own goroutines.
*/
package thumbs
