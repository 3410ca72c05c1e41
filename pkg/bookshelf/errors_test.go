package bookshelf_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/bookshelf/pkg/bookshelf"
)

func TestExitCodeForError_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown flag", errors.New("unknown flag --foo"), bookshelf.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x'"), bookshelf.ExitUsageError},
		{"unknown command", errors.New(`unknown command "x" for "bookshelf serve"`), bookshelf.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--min-percent\""), bookshelf.ExitUsageError},
		{"general error", errors.New("something went wrong"), bookshelf.ExitGeneralError},
		{"nil error", nil, bookshelf.ExitSuccess},
		{"connection failed", bookshelf.ErrConnectionFailed, bookshelf.ExitConnectionError},
		{"connection refused text", errors.New("dial tcp: connection refused"), bookshelf.ExitConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bookshelf.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeForError_PipelineErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid config", fmt.Errorf("min_percent: %w", bookshelf.ErrInvalidConfig), bookshelf.ExitConfigError},
		{"unsupported auth", bookshelf.ErrUnsupportedAuthMethod, bookshelf.ExitConfigError},
		{"missing directories", &bookshelf.MissingDirectoriesError{Keyword: "flowers"}, bookshelf.ExitNoDirectories},
		{"missing files", &bookshelf.MissingFilesError{Dir: "flowers/2024-05-01"}, bookshelf.ExitNoFiles},
		{"no data", fmt.Errorf("flowers/2024-05-01: %w", bookshelf.ErrNoData), bookshelf.ExitNoData},
		{"percent", &bookshelf.PercentError{Percent: 60, MinPercent: 70}, bookshelf.ExitValidationPercent},
		{"missing reference", &bookshelf.MissingReferenceError{Kind: "author", Name: "Ann", WorkID: "w1"}, bookshelf.ExitStoreConsistency},
		{"response", &bookshelf.ResponseError{StartIndex: 3, StatusCode: 403, Reason: "Forbidden"}, bookshelf.ExitFetchFailed},
		{"wrapped", fmt.Errorf("load failed: %w", &bookshelf.MissingDirectoriesError{Keyword: "bees"}), bookshelf.ExitNoDirectories},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bookshelf.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&bookshelf.MissingDirectoriesError{Keyword: "flowers"}, "no directories in flowers directory"},
		{&bookshelf.MissingFilesError{Dir: "flowers/2024-05-01"}, "no files in the flowers/2024-05-01 directory"},
		{&bookshelf.PercentError{Percent: 60, MinPercent: 70},
			"expected 70.0 percent of records to pass validation but only 60.0 passed"},
		{&bookshelf.ResponseError{StartIndex: 2, StatusCode: 429, Reason: "Too Many Requests"},
			"could not parse the response from index 2: status 429 Too Many Requests"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestResponseError_HTTPStatusCode(t *testing.T) {
	err := &bookshelf.ResponseError{StatusCode: 503}
	if got := err.HTTPStatusCode(); got != 503 {
		t.Errorf("HTTPStatusCode() = %d, want 503", got)
	}
}
