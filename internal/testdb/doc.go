//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Each test runs in its own transaction, which is rolled back when the test
// completes, so tests can use t.Parallel() without cleaning up after
// themselves:
//
//	func TestPostStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        posts := postgres.NewPostgresPostStore(tx, nil)
//	        // ...
//	    })
//	}
//
// Tests are skipped when neither DATABASE_URL nor POSTBOARD_TEST_DB_URL is set.
package testdb
