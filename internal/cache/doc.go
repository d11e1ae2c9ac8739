// Package cache provides the bounded, expiring store of resolved log source
// metadata shared by all enrichment workers.
//
// Entries are evicted least-recently-used first once the configured capacity
// is reached, and an entry older than the configured TTL is reported as absent
// even before it is physically removed. Expiry is handled lazily on access;
// no background goroutine is started.
package cache
