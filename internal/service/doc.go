// Package service contains the application use cases. It orchestrates domain
// objects and the store interfaces (internal/store) to fulfill the API's
// operations.
//
// Key components:
//
//   - RelationSync keeps a post row and its category edges consistent. Every
//     write to either happens inside one store.TxRunner call.
//   - PostService, CategoryService and UserService implement the use cases
//     exposed by the HTTP API. Ownership decisions are delegated to an
//     OwnershipAuthorizer (auth.Gate in production).
//   - List operations pass raw query parameters through query.Builder, so
//     stores only ever see validated, allow-listed columns.
//
// Errors are the sentinels of internal/domain and internal/store, wrapped
// with context; callers check them with errors.Is.
package service
