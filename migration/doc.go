/*
Package migration supports schema versioning of persisted payloads.

Every persisted model and message carries a Metadata header with a schema
version. Packages register an upgrade function for each schema version above
one. When a record is loaded, Apply upgrades it in place from the version it
was stored with to the newest registered version, so that already-deployed
records keep working after the layout evolves.
*/
package migration
