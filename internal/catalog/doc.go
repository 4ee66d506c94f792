// Package catalog parses the declarative model catalog document into an
// immutable, indexed in-memory structure: a single YAML/JSON/TOML document
// of ModelEntry records, dispatched by file extension the same way
// internal/config does.
package catalog
