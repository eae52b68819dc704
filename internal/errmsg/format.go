// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Setup
	OpConfigLoad Op = "load configuration"
	OpKeyLoad    Op = "load decryption key"
	OpLogSetup   Op = "set up logging"

	// Library file
	OpLibraryDecode Op = "decode library"
	OpPayloadDecode Op = "decode payload"

	// Reports
	OpSearch Op = "search tracks"
	OpDump   Op = "dump payload"
	OpVerify Op = "verify track files"

	// Export database
	OpExportOpen  Op = "open export database"
	OpExportWrite Op = "export library"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
