/*
Package tagging summarizes tag assignment across a selection and ranks
tag suggestions for the completer.

The aggregate of a tag over n selected images bearing it k times is
none (k=0), all (k=n), or partial. Toggling is monotonic: a partial
tag is completed before it can be removed, so a toggle never mixes
adds and removes.

Suggestions are matched case-insensitively; prefix matches rank before
substring matches, closest (shortest) first within each rank. Tags
every selected image already bears are excluded, since assigning them
would change nothing.
*/
package tagging
