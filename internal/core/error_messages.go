package core

// error_messages.go defines user-friendly error messages with codes for support reference.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds maximum size limit
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Unsupported file: Only CSV and Excel files are supported
//	          Patterns: "unsupported file type"
//
//	FILE003 - Encoding error: File is not valid UTF-8
//	          Patterns: "invalid utf-8"
//
//	FILE004 - Ragged rows: A row has more fields than the header
//	          Patterns: "too many fields"
//
//	FILE005 - Empty file: The uploaded file has no header row
//	          Patterns: "no columns to parse"
//
//	FILE006 - No file: No file was selected
//	          Patterns: "no file provided"
//
//	FILE007 - Unreadable file: Generic decode failure
//	          Patterns: "decode error"
//
// # View Errors (VIEW001-VIEW099)
//
//	VIEW001 - Unknown column: The column is not part of the loaded file
//	          Patterns: "unknown column"
//
//	VIEW002 - No data: No file has been loaded yet
//	          Patterns: "empty dataset"
//
//	VIEW003 - Empty view: Nothing selected to export
//	          Patterns: "empty view"
//
//	VIEW004 - Duplicate column: A column was selected twice
//	          Patterns: "duplicate column"
//
//	VIEW005 - Bad filter: The filter expression does not compile
//	          Patterns: "invalid filter"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many decodes in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are listed
// before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Specific decode causes come before the generic "decode error" catch-all.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE007)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Only CSV and Excel files are supported",
			Action:  "Upload a file whose name contains csv or xls",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid utf-8",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "too many fields",
		msg: UserMessage{
			Message: "A row has more fields than the header",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no columns to parse",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to upload",
			Code:    "FILE006",
		},
	},
	{
		pattern: "decode error",
		msg: UserMessage{
			Message: "There was an error processing this file.",
			Action:  "Check that the file is a valid CSV or Excel workbook",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// View Errors (VIEW001-VIEW005)
	// These indicate a caller asked for something the live dataset cannot give.
	// =========================================================================
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "Column is not part of the loaded file",
			Action:  "Reload the page to refresh the column list",
			Code:    "VIEW001",
		},
	},
	{
		pattern: "empty dataset",
		msg: UserMessage{
			Message: "No File Loaded.",
			Action:  "Upload a CSV or Excel file first",
			Code:    "VIEW002",
		},
	},
	{
		pattern: "empty view",
		msg: UserMessage{
			Message: "Nothing to export",
			Action:  "Select columns and press Submit before exporting",
			Code:    "VIEW003",
		},
	},
	{
		pattern: "duplicate column",
		msg: UserMessage{
			Message: "A column was selected more than once",
			Action:  "Select each column at most once",
			Code:    "VIEW004",
		},
	},
	{
		pattern: "invalid filter",
		msg: UserMessage{
			Message: "The filter could not be understood",
			Action:  "Write a condition such as: units > 10 && region == \"west\"",
			Code:    "VIEW005",
		},
	},

	// =========================================================================
	// Upload Errors (UPL002-UPL005)
	// =========================================================================
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for nil errors.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError returns a single-line user-facing error string.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific (non-default) message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}
