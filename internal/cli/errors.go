package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Store and config errors
	ErrStoreNotFound = "STORE_NOT_FOUND"
	ErrConfigInvalid = "CONFIG_INVALID"

	// Data errors
	ErrSubjectNotFound = "SUBJECT_NOT_FOUND"
	ErrChapterNotFound = "CHAPTER_NOT_FOUND"
	ErrSubjectInvalid  = "SUBJECT_INVALID"
	ErrImportFailed    = "IMPORT_FAILED"

	// File errors
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Catalog errors
	ErrCatalogError  = "CATALOG_ERROR"
	ErrCatalogLocked = "CATALOG_LOCKED"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnPartialImport       = "PARTIAL_IMPORT"
	WarnCatalogUpdateFailed = "CATALOG_UPDATE_FAILED"
)
