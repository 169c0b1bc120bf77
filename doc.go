// Package tiercache is a storage-agnostic key/value cache.
//
// One contract, Cache[V], covers get/set/has/delete, their batch variants,
// per-call TTLs clamped to a configured ceiling, pluggable value codecs and key
// derivation. New builds a Cache over any provider.Provider byte store
// (memory, file, redis, a SQL table, bigcache, ristretto, sturdyc).
//
// Chain composes several caches into one, ordered fastest to slowest:
//
//	l1, _ := tiercache.New(tiercache.Options[User]{Provider: mem, Codec: codec.JSON[User]{}})
//	l2, _ := tiercache.New(tiercache.Options[User]{Provider: rds, Codec: codec.JSON[User]{}, MaxTTL: 3600})
//	c, _ := tiercache.NewChain([]tiercache.Cache[User]{l1, l2}, tiercache.ChainOptions{})
//
// Reads return the first hit; batch reads ask each tier only for the keys that
// are still missing. Writes, deletes and Clear go to every tier and succeed only
// if every tier succeeded. A slower tier's hit is not copied into faster tiers.
//
// Stored entries are framed with their absolute expiration:
//
//	magic | version | kind | expires (unix seconds, 0 = never) | len | payload
//
// Providers without per-entry TTL still honor per-call TTLs, and Has re-checks
// expiration. Corrupt, expired or undecodable entries are deleted on read and
// reported as misses.
//
// Configuration is copy-on-write: WithOption, WithOptions, WithCodec and WithKeys
// return a new Cache and leave the receiver untouched. Clones share the provider.
package tiercache
