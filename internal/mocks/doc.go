// Package mocks provides centralized test doubles.
//
// MemoryDB is an in-memory implementation of every store interface and of
// store.TxRunner. Transactions snapshot the whole state and restore it when
// the transaction function fails, so service tests can check all-or-nothing
// behavior without a database. Individual operations can be made to fail
// with FailNext.
//
// The remaining mocks follow one of two styles:
//
//   - function-field mocks (MockTokenService, MockPasswordHasher): set a Fn
//     field to override a method, otherwise fixed defaults are returned
//   - testify mocks (TestifyMockUserStore): configure with On(...).Return(...)
//
// Usage:
//
//	db := mocks.NewMemoryDB()
//	db.FailNext(mocks.OpRelationLink, errors.New("boom"))
//	sync, err := service.NewRelationSync(db, db.Posts(), db.Categories(), db.Relations(), nil)
package mocks
