// Package errors defines the error taxonomy shared by seqkit packages.
// Every failure is an *AppError carrying a machine-readable ErrorCode, so
// callers can branch with errors.Is against the exported sentinels without
// parsing messages.
package errors
