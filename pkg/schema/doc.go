// Package schema defines the profile schema documents served by the
// Murmurations Library and the merger that composes several of them into the
// single schema a profile form is generated from.
//
// A Retrieved schema is the per-name document returned by the Library; its
// metadata names exactly one schema. A Schema is the composite produced by
// Merge: properties are overlaid in request order (later names win on key
// collisions), required fields form a set, and metadata.schema lists every
// schema name that resolved.
package schema
