// Package chesserr implements the structured error taxonomy shared by every
// layer of chessmesh: a tagged kind, a monitoring category, and the two
// recoverability flags the delivery manager and operator tooling rely on.
package chesserr

import (
	"errors"
	"fmt"
)

// Category groups errors for metrics and logging, independent of the exact
// Kind that produced them.
type Category string

const (
	CategoryConnection     Category = "connection"
	CategoryNotFound       Category = "not_found"
	CategoryDataValidation Category = "data_validation"
	CategorySchema         Category = "schema"
	CategoryTransaction    Category = "transaction"
	CategoryFileSystem     Category = "file_system"
	CategoryPerformance    Category = "performance"
	CategoryResource       Category = "resource"
	CategoryConfiguration  Category = "configuration"
	CategoryBackup         Category = "backup"
	CategoryProtocol       Category = "protocol"
	CategorySecurity       Category = "security"
)

// Kind is a stable, matchable tag for a specific failure mode. New kinds are
// added as components need them; existing kinds never change category.
type Kind string

const (
	// Wire / connection
	KindIO                 Kind = "io"
	KindTimeout             Kind = "timeout"
	KindUnexpectedEOF       Kind = "unexpected_eof"
	KindLengthMismatch      Kind = "length_mismatch"
	KindInvalidLength       Kind = "invalid_length"
	KindMessageTooLarge     Kind = "message_too_large"
	KindInvalidMessageFormat Kind = "invalid_message_format"
	KindProtocolViolation   Kind = "protocol_violation"

	// Cryptographic / handshake
	KindInvalidSignature    Kind = "invalid_signature"
	KindInvalidTimestamp    Kind = "invalid_timestamp"
	KindAuthenticationFailed Kind = "authentication_failed"
	KindHandshakeFailed     Kind = "handshake_failed"

	// Security violations
	KindInjectionAttempt    Kind = "injection_attempt"
	KindFieldTooLong        Kind = "field_too_long"
	KindSuspiciousPattern   Kind = "suspicious_pattern"
	KindRateLimitExceeded   Kind = "rate_limit_exceeded"
	KindBoardTampering      Kind = "board_tampering"

	// Application validation
	KindInvalidGameID       Kind = "invalid_game_id"
	KindInvalidMove         Kind = "invalid_move"
	KindInvalidBoardHash    Kind = "invalid_board_hash"
	KindInvalidFen          Kind = "invalid_fen"
	KindBoardHashMismatch   Kind = "board_hash_mismatch"

	// Storage / repository
	KindNotFound            Kind = "not_found"
	KindInvalidData         Kind = "invalid_data"
	KindSerialization       Kind = "serialization"
	KindTransactionFailed   Kind = "transaction_failed"
	KindConnectionPool      Kind = "connection_pool_exhausted"
	KindSchemaMismatch      Kind = "schema_mismatch"
	KindDatabaseCorruption  Kind = "database_corruption"
	KindQueryTimeout        Kind = "query_timeout"
	KindResourceLimit       Kind = "resource_limit_exceeded"
	KindConfiguration       Kind = "configuration"
	KindBackupFailed        Kind = "backup_failed"
)

type kindInfo struct {
	category      Category
	recoverable   bool
	critical      bool
	suggestion    string
}

var registry = map[Kind]kindInfo{
	KindIO:                   {CategoryConnection, true, false, "Check network connectivity and retry the operation."},
	KindTimeout:              {CategoryConnection, true, false, "The peer may be slow or unreachable. Retry with a longer timeout."},
	KindUnexpectedEOF:        {CategoryConnection, true, false, "The peer closed the connection mid-frame. Reconnect and retry."},
	KindLengthMismatch:       {CategoryProtocol, false, false, "The stream delivered a different number of bytes than the frame declared. Close and reconnect."},
	KindInvalidLength:        {CategoryProtocol, false, false, "The peer sent a frame length outside the accepted bounds. The connection was closed."},
	KindMessageTooLarge:      {CategoryProtocol, false, false, "The message exceeds the configured maximum size. Split or shrink the payload."},
	KindInvalidMessageFormat: {CategoryProtocol, false, false, "The frame body did not deserialize into a known envelope. The connection was closed."},
	KindProtocolViolation:    {CategoryProtocol, false, false, "The peer violated the wire protocol. The connection was closed."},

	KindInvalidSignature:     {CategorySecurity, false, false, "The envelope signature does not verify. The message was dropped."},
	KindInvalidTimestamp:     {CategorySecurity, false, false, "Check that both peers' clocks are reasonably in sync."},
	KindAuthenticationFailed: {CategorySecurity, false, false, "The connection was not authenticated. Complete the handshake before sending application messages."},
	KindHandshakeFailed:      {CategorySecurity, false, false, "The mutual-authentication handshake failed. Verify both peers' identity keys."},

	KindInjectionAttempt:   {CategorySecurity, false, true, "The message contained a known injection pattern and was rejected."},
	KindFieldTooLong:       {CategorySecurity, false, false, "Shorten the field to within its documented bound and resend."},
	KindSuspiciousPattern:  {CategorySecurity, false, false, "The field matched a suspicious-content heuristic and was rejected."},
	KindRateLimitExceeded:  {CategorySecurity, true, false, "Wait for the rate-limit window to reset before retrying."},
	KindBoardTampering:     {CategorySecurity, false, true, "The claimed board hash does not match the expected position. Request a sync."},

	KindInvalidGameID:     {CategoryDataValidation, false, false, "Supply a valid UUID v4 game id."},
	KindInvalidMove:       {CategoryDataValidation, false, false, "Use coordinate notation like e2e4 or castling notation like O-O."},
	KindInvalidBoardHash:  {CategoryDataValidation, false, false, "The board hash must be 64 hex characters."},
	KindInvalidFen:        {CategoryDataValidation, false, false, "The FEN string must have six space-separated fields."},
	KindBoardHashMismatch: {CategoryDataValidation, false, false, "Request a SyncRequest to realign board state with the peer."},

	KindNotFound:           {CategoryNotFound, false, false, "Verify the id is correct; the record may not exist."},
	KindInvalidData:        {CategoryDataValidation, false, false, "Check the field's format and constraints."},
	KindSerialization:      {CategoryDataValidation, false, false, "The payload did not match the expected schema."},
	KindTransactionFailed:  {CategoryTransaction, true, false, "The transaction was rolled back. Retry the operation."},
	KindConnectionPool:     {CategoryConnection, true, false, "Too many concurrent connections to storage. Wait and retry."},
	KindSchemaMismatch:     {CategorySchema, false, true, "Run pending migrations or update the application."},
	KindDatabaseCorruption: {CategorySchema, false, true, "Restore from backup; do not write further until investigated."},
	KindQueryTimeout:       {CategoryPerformance, true, false, "The query took too long. Optimize it or raise the timeout."},
	KindResourceLimit:      {CategoryResource, true, false, "Free resources and retry."},
	KindConfiguration:      {CategoryConfiguration, false, false, "Fix the invalid configuration setting."},
	KindBackupFailed:       {CategoryBackup, false, false, "Check storage space and permissions, then retry the backup."},
}

// Error is the structured error type returned by every chessmesh component.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Fields  map[string]any
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that wraps an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithField attaches structured context to the error and returns it for chaining.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the monitoring category for this error's kind.
func (e *Error) Category() Category {
	return registry[e.Kind].category
}

// IsRecoverable reports whether a retry of the same operation may succeed.
func (e *Error) IsRecoverable() bool {
	return registry[e.Kind].recoverable
}

// IsCritical reports whether the error indicates a problem requiring operator
// attention rather than routine application-level handling.
func (e *Error) IsCritical() bool {
	return registry[e.Kind].critical
}

// RecoverySuggestion returns a human-readable remediation hint suitable for
// surfacing to an end user, never raw protocol vocabulary.
func (e *Error) RecoverySuggestion() string {
	if info, ok := registry[e.Kind]; ok && info.suggestion != "" {
		return info.suggestion
	}
	return "An unexpected error occurred. Please try again."
}

// As reports whether err is (or wraps) a *Error, returning it on success.
func As(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
