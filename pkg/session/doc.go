/*
Package session serializes access to the per-session bundle cache.

Several requests from the same browser session may run at once (two tabs, a double
submit). The Manager gives each session a reference-counted local mutex and, when
configured with a DistributedLocker, a distributed lock as well, so that replicas
sharing a Redis cache do not interleave their reads and writes.
*/
package session
