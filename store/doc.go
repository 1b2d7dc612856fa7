/*
Package store provides the in-memory key-value storage the engine runs on
top of, together with a btree-backed cache-wrap.

The cache-wrap is the atomic failure primitive: a handler that must apply a
group of writes all-or-nothing performs them against a CacheWrap and either
Writes the whole set into the parent store or Discards it. Wraps nest, which
gives savepoint semantics for delegated sub-instruction execution.
*/
package store
