package bookshelf

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Command completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration or parameters
	ExitConnectionError   = 11 // Failed to connect to database
	ExitNoDirectories     = 20 // Keyword directory has no date directories
	ExitNoFiles           = 21 // Partition directory has no files
	ExitNoData            = 22 // Partition files contain no records
	ExitValidationPercent = 23 // Pass rate below threshold
	ExitStoreConsistency  = 24 // Reference rows missing after insert
	ExitFetchFailed       = 25 // Catalog API returned an error
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the database to connect to for CREATE DATABASE.
	DefaultManagementDB = "postgres"

	// DefaultMinPercent is the pass-rate threshold used when none is configured.
	DefaultMinPercent = 70

	// DefaultMaxResults is the page size requested from the catalog API.
	DefaultMaxResults = 20

	// DefaultRequestsPerMinute keeps the client under the Google Books quota
	// of 100 requests per 60 seconds.
	DefaultRequestsPerMinute = 100

	// DefaultTimeout bounds a whole command run.
	DefaultTimeout = 10 * time.Minute

	// DateLayout is the layout of partition directory names and observation dates.
	DateLayout = "2006-01-02"

	// OutputFileName is the name of the validated output file in each partition.
	OutputFileName = "output_0.json"
)
