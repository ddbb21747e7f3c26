// Package media turns source images into thumbnail bytes and probes
// image headers. Decoding prefers libvips when it has been initialized
// (decode-time shrinking keeps memory flat for large sources) and falls
// back to the pure-Go decoder stack with a constrained loader.
package media
