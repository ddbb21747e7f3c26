/*
Package selection tracks which images are selected, which one is
current, and the anchor used for range extension.

Selection is held by image identity, never by position. Click and
wheel positions are resolved against the visible list passed in by the
caller, and after every view recomputation Remap intersects the
selection with the new visible set, so a filter change never silently
moves the selection onto different images.

No locking here either; the engine serializes access.
*/
package selection
