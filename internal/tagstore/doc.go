/*
Package tagstore tracks the tri-state filter assignment for every tag:
Inactive, Whitelisted, or Blacklisted. The states drive the visibility
predicate in internal/view.

A single click rule covers all transitions: clicking an active tag
deactivates it with either button; clicking an inactive tag whitelists
it on left click and blacklists it on right click. The reserved
untagged pseudo-filter follows the same rule but lives outside the tag
map because it is not a tag.

The store is a plain data structure with no locking. The engine owns
it behind its mutex.
*/
package tagstore
