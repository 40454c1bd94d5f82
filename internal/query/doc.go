// Package query translates loose list parameters (search text, column, page,
// limit, sort direction) into a deterministic, storage-agnostic Spec.
//
// Field names supplied by clients are never forwarded to storage. Each entity
// declares a Schema that maps the logical field names it accepts to storage
// columns; anything outside that allow-list is rejected with ErrUnknownField.
package query
