// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// Post rows and post↔category relation edges live behind separate stores
// (PostStore and RelationStore) but are always written together inside one
// TxRunner call.
package store
