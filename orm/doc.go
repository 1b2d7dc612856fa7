/*
Package orm provides a thin object layer over the raw key-value store:
namespaced buckets that serialize models through their Persistent contract,
and monotonic sequences for allocating counters that are never reused.
*/
package orm
