package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
	Key     string // i18n catalog key
}

// Error codes
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer = 1000
	ErrInvalidParams  = 1001
	ErrNotFound       = 1002
	ErrBadRequest     = 1007
	ErrServiceUnavail = 1008

	// Share errors (2000-2999)
	ErrFileTypeNotAllowed = 2000
	ErrFileTooLarge       = 2001
	ErrUploadFailed       = 2002
	ErrFileNotFound       = 2003
	ErrNotInitialized     = 2004
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success", "error.success"},

	ErrInternalServer: {ErrInternalServer, http.StatusInternalServerError, "Internal server error", "error.internal"},
	ErrInvalidParams:  {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters", "error.invalid_params"},
	ErrNotFound:       {ErrNotFound, http.StatusNotFound, "Resource not found", "error.not_found"},
	ErrBadRequest:     {ErrBadRequest, http.StatusBadRequest, "Bad request", "error.bad_request"},
	ErrServiceUnavail: {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable", "error.service_unavailable"},

	ErrFileTypeNotAllowed: {ErrFileTypeNotAllowed, http.StatusBadRequest, "Only PDF or Excel files are supported", "error.file_type"},
	ErrFileTooLarge:       {ErrFileTooLarge, http.StatusBadRequest, "File is too large", "error.file_too_large"},
	ErrUploadFailed:       {ErrUploadFailed, http.StatusBadGateway, "Upload failed", "error.upload_failed"},
	ErrFileNotFound:       {ErrFileNotFound, http.StatusNotFound, "File not found", "error.file_not_found"},
	ErrNotInitialized:     {ErrNotInitialized, http.StatusServiceUnavailable, "Storage client is not initialized", "error.service_unavailable"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// GetKey returns the i18n key for a given error code
func GetKey(code int) string {
	return GetCode(code).Key
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// IsServerError checks if the code represents a server error (5xx)
func IsServerError(code int) bool {
	return GetHTTPStatus(code) >= 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
