package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Library errors
	ErrLibraryNotFound = "LIBRARY_NOT_FOUND"
	ErrConfigInvalid   = "CONFIG_INVALID"

	// File errors
	ErrFileNotFound   = "FILE_NOT_FOUND"
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Database errors
	ErrDatabaseError  = "DATABASE_ERROR"
	ErrDatabaseLocked = "DATABASE_LOCKED"

	// Query errors
	ErrQueryInvalid = "QUERY_INVALID"
	ErrViewNotFound = "VIEW_NOT_FOUND"
	ErrViewInvalid  = "VIEW_INVALID"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"
	ErrNoLastQuery     = "NO_LAST_QUERY"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnQuerySyntax    = "QUERY_SYNTAX"
	WarnRuntimeError   = "QUERY_RUNTIME_ERROR"
	WarnIndexRebuilt   = "INDEX_REBUILT"
	WarnFileNotPresent = "FILE_NOT_PRESENT"
)
