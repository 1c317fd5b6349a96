/*
Package feedback implements leveled messages reported against tree nodes and
the scoping rules that decide which collector displays them.

# Scoping

Messages live in a Store owned by one processing turn. A Collector is a node
placed in the tree; Query computes its visible messages from the current
parent references every time, so removing, moving or swapping subtrees is
reflected by the next query without invalidation.

The nearest fence wins: a message reported inside the scope of a fencing
collector never reaches collectors scoped outside that fence, while
collectors scoped at the fence itself (fenced or not) all see it. Removing
the last fencing collector of a scope re-opens propagation.

Scope-less messages belong to the session. They survive turns through the
session log (see pkg/session) and are only shown by catch-all collectors.
*/
package feedback
