package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unsupported file type",
			err:         &DecodeError{Filename: "notes.txt", Err: ErrUnsupportedFile},
			wantCode:    "FILE002",
			wantMessage: "Only CSV and Excel files are supported",
		},
		{
			name:        "invalid utf-8 wins over generic decode error",
			err:         &DecodeError{Filename: "a.csv", Err: errors.New("invalid utf-8 at byte 12")},
			wantCode:    "FILE003",
			wantMessage: "File contains invalid characters",
		},
		{
			name:        "generic decode error",
			err:         &DecodeError{Filename: "a.xlsx", Err: errors.New("zip: not a valid zip file")},
			wantCode:    "FILE007",
			wantMessage: "There was an error processing this file.",
		},
		{
			name:        "unknown column",
			err:         &UnknownColumnError{Column: "z"},
			wantCode:    "VIEW001",
			wantMessage: "Column is not part of the loaded file",
		},
		{
			name:        "duplicate column",
			err:         &DuplicateColumnError{Column: "a"},
			wantCode:    "VIEW004",
			wantMessage: "A column was selected more than once",
		},
		{
			name:        "invalid filter",
			err:         &FilterError{Expression: "units >", Err: errors.New("unexpected token EOF")},
			wantCode:    "VIEW005",
			wantMessage: "The filter could not be understood",
		},
		{
			name:        "empty dataset wrapped",
			err:         fmt.Errorf("project: %w", ErrEmptyDataset),
			wantCode:    "VIEW002",
			wantMessage: "No File Loaded.",
		},
		{
			name:        "too many uploads",
			err:         ErrTooManyUploads,
			wantCode:    "UPL002",
			wantMessage: "System is busy processing other uploads",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("FILE TOO LARGE"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(&UnknownColumnError{Column: "z"})

	expected := "Column is not part of the loaded file (Code: VIEW001). Reload the page to refresh the column list"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrEmptyView, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("upload: %w", &DecodeError{Filename: "x", Err: ErrUnsupportedFile})
	if !IsDecodeError(wrapped) {
		t.Error("IsDecodeError() = false for wrapped DecodeError")
	}
	if !errors.Is(wrapped, ErrUnsupportedFile) {
		t.Error("DecodeError should unwrap to its cause")
	}
	if IsUnknownColumn(wrapped) {
		t.Error("IsUnknownColumn() = true for DecodeError")
	}
	if !IsUnknownColumn(fmt.Errorf("sort: %w", &UnknownColumnError{Column: "b"})) {
		t.Error("IsUnknownColumn() = false for wrapped UnknownColumnError")
	}
}
