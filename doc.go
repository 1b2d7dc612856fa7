/*
Package strongbox defines the interfaces that tie the authorization engine
together: addresses and keyless conditions, messages and handlers, and the
key-value storage every extension persists through.

State is kept in explicit addressable records and all mutation is routed
through handler entry points. There are no hidden globals; a handler is pure
logic over the context, store and transaction it is given.

Each extension, such as x/vault, registers its message handlers on a router
and stores its models in orm buckets. Authorization is expressed through
Conditions: byte strings of the form

  sprintf("%s/%s/%s", extension, type, data)

whose one-way digest is the Address. A condition derived from seed data alone
has no private key; only code that can reproduce the seeds can assert it.
*/
package strongbox
