// Package shared holds helpers used across the vanbiz packages that do not
// belong to any single domain layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on structured log output
//   - raw dataset fixtures (business licence and storefront inventory CSVs)
//     written into a test's temporary directory
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    dir := testutil.WriteRawFixtures(t)
//	    // run code under test with logger and the files in dir
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "pipeline completed")
//	}
//
// Nothing in this package may import other vanbiz packages.
package shared
