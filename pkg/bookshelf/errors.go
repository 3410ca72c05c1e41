package bookshelf

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure conditions a caller may want to tell apart.
// Match them with errors.Is; the typed errors below wrap them and carry detail.
//
// Example usage:
//
//	_, err := validator.Run(ctx, "flowers")
//	if errors.Is(err, bookshelf.ErrValidationPercent) {
//	    // data looked bad, do not load this partition
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrNoDirectories indicates a keyword directory holds no date directories.
	ErrNoDirectories = errors.New("no directories")

	// ErrNoFiles indicates a partition directory holds no files.
	ErrNoFiles = errors.New("no files")

	// ErrNoData indicates the files of a partition contained zero records.
	ErrNoData = errors.New("no data")

	// ErrValidationPercent indicates the pass rate of a partition fell below the threshold.
	ErrValidationPercent = errors.New("validation percent")

	// ErrMissingReference indicates an author or category name could not be resolved
	// to an id after it should have been inserted. Always an internal bug.
	ErrMissingReference = errors.New("missing reference")

	// ErrFetchFailed indicates the catalog API returned an unusable response.
	ErrFetchFailed = errors.New("fetch failed")
)

// MissingDirectoriesError is returned when a keyword directory has no date directories.
type MissingDirectoriesError struct {
	Keyword string
}

func (e *MissingDirectoriesError) Error() string {
	return fmt.Sprintf("no directories in %s directory", e.Keyword)
}

func (e *MissingDirectoriesError) Unwrap() error { return ErrNoDirectories }

// MissingFilesError is returned when a partition directory is empty.
type MissingFilesError struct {
	// Dir is the partition in keyword/date form.
	Dir string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("no files in the %s directory", e.Dir)
}

func (e *MissingFilesError) Unwrap() error { return ErrNoFiles }

// PercentError reports a failed pass-rate gate.
type PercentError struct {
	Percent    float64
	MinPercent float64
}

func (e *PercentError) Error() string {
	return fmt.Sprintf("expected %.1f percent of records to pass validation but only %.1f passed",
		e.MinPercent, e.Percent)
}

func (e *PercentError) Unwrap() error { return ErrValidationPercent }

// MissingReferenceError reports a name absent from the name->id mapping while
// building junction rows.
type MissingReferenceError struct {
	Kind   string
	Name   string
	WorkID string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s %q of book %s was not found after insert", e.Kind, e.Name, e.WorkID)
}

func (e *MissingReferenceError) Unwrap() error { return ErrMissingReference }

// ResponseError is returned when the catalog API answers with a non-200 status.
type ResponseError struct {
	StartIndex int
	StatusCode int
	Reason     string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("could not parse the response from index %d: status %d %s",
		e.StartIndex, e.StatusCode, e.Reason)
}

func (e *ResponseError) Unwrap() error { return ErrFetchFailed }

// HTTPStatusCode returns the status the API answered with.
func (e *ResponseError) HTTPStatusCode() int { return e.StatusCode }

// usageErrorPatterns are the cobra/pflag messages for command line misuse.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrNoDirectories):
		return ExitNoDirectories
	case errors.Is(err, ErrNoFiles):
		return ExitNoFiles
	case errors.Is(err, ErrNoData):
		return ExitNoData
	case errors.Is(err, ErrValidationPercent):
		return ExitValidationPercent
	case errors.Is(err, ErrMissingReference):
		return ExitStoreConsistency
	case errors.Is(err, ErrFetchFailed):
		return ExitFetchFailed
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.HasPrefix(errStr, pattern) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
