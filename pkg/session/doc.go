/*
Package session implements per-session turn orchestration.

A turn is one processing pass over a page tree on behalf of a session. The
Manager serializes turns of the same session (in process, and across
replicas with a ports.DistributedLocker), loads the pending scope-less
feedback into a fresh feedback.Store and, when the turn ends, trims the
messages that were rendered and appends the new ones to the session log.
*/
package session
