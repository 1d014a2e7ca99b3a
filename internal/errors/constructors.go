package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *HandbookError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *HandbookError {
	return New(CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

func ValidationFailed(field, reason string) *HandbookError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Source errors

func ContentError(path string, cause error) *HandbookError {
	return Wrap(cause, CategoryContent, SeverityFatal, "document could not be loaded").
		WithContext("path", path)
}

func NavigationInvalid(problems int) *HandbookError {
	return New(CategoryNavigation, SeverityFatal, "navigation descriptor is invalid").
		WithContext("problems", problems)
}

func BrokenLinks(count int) *HandbookError {
	return New(CategoryLinks, SeverityFatal, "broken links found").
		WithContext("count", count)
}

// Build errors

func RenderFailed(docID string, cause error) *HandbookError {
	return Wrap(cause, CategoryRender, SeverityFatal, "page render failed").
		WithContext("doc_id", docID)
}

func StageFailed(stage string, cause error) *HandbookError {
	return Wrap(cause, CategoryRender, SeverityFatal, "build stage failed").
		WithContext("stage", stage)
}

func FileSystemError(operation string, cause error) *HandbookError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *HandbookError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
