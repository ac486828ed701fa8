package mongoerr

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

type Code uint64

const (
	CodeUnknown                Code = iota // 0: Unclassified failure.
	CodeNotImplemented                     // 1: Capability recognized but intentionally unsupported.
	CodeOperationFailure                   // 2: Malformed request, mirrors a server-side error.
	CodeWriteError                         // 3: Update/insert rejected by the server.
	CodeDuplicateKey                       // 4: Unique constraint violated (server code 11000).
	CodeCollectionInvalid                  // 5: Collection already exists.
	CodeInvalidName                        // 6: Invalid database or collection name.
	CodeInvalidURI                         // 7: Connection string could not be parsed.
	CodeConfiguration                      // 8: Client is not configured for the request.
	CodeServerSelectionTimeout             // 9: No server answered within the timeout.
	CodeBulkWrite                          // 10: One or more operations of a bulk write failed.
)

func (c Code) String() string {
	switch c {
	case CodeNotImplemented:
		return "NotImplemented"
	case CodeOperationFailure:
		return "OperationFailure"
	case CodeWriteError:
		return "WriteError"
	case CodeDuplicateKey:
		return "DuplicateKey"
	case CodeCollectionInvalid:
		return "CollectionInvalid"
	case CodeInvalidName:
		return "InvalidName"
	case CodeInvalidURI:
		return "InvalidURI"
	case CodeConfiguration:
		return "ConfigurationError"
	case CodeServerSelectionTimeout:
		return "ServerSelectionTimeout"
	case CodeBulkWrite:
		return "BulkWriteError"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is the error type returned by all mongomock operations. ServerCode
// carries the numeric code the real server would use where one is
// documented (11000 for duplicate keys, 10026/10027 for renames, ...);
// it is zero otherwise.
type Error struct {
	Code       Code   // The taxonomy code
	ServerCode int32  // The matching MongoDB server error code, if any
	Msg        string // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ServerCode != 0 {
		return fmt.Sprintf("mongomock: %s (code %d): %s", e.Code, e.ServerCode, e.Msg)
	}
	return fmt.Sprintf("mongomock: %s: %s", e.Code, e.Msg)
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Newf creates a new Error with the given code and a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// --------------------------------------------------------------------------
// Constructors for the common cases
// --------------------------------------------------------------------------

// NotImplemented reports a recognized but unsupported capability. The
// message follows the wording of the original project so existing test
// suites can match on it.
func NotImplemented(what string) *Error {
	return Newf(CodeNotImplemented,
		"'%s' is a valid operation but it is not supported by mongomock yet", what)
}

// NotImplementedMsg reports an unsupported capability with a free-form message.
func NotImplementedMsg(msg string) *Error {
	return New(CodeNotImplemented, msg)
}

// OperationFailure reports a malformed request with an optional server code.
func OperationFailure(msg string, serverCode int32) *Error {
	return &Error{Code: CodeOperationFailure, ServerCode: serverCode, Msg: msg}
}

// WriteError reports a rejected write.
func WriteError(msg string) *Error {
	return New(CodeWriteError, msg)
}

// DuplicateKey reports a unique-constraint violation (E11000).
func DuplicateKey() *Error {
	return &Error{Code: CodeDuplicateKey, ServerCode: 11000, Msg: "E11000 duplicate key error"}
}

// --------------------------------------------------------------------------
// Classification Helpers
// --------------------------------------------------------------------------

func is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsNotImplemented reports whether err is a not-implemented rejection from
// the compatibility gate.
func IsNotImplemented(err error) bool { return is(err, CodeNotImplemented) }

// IsDuplicateKey reports whether err is a duplicate-key violation.
func IsDuplicateKey(err error) bool { return is(err, CodeDuplicateKey) }

// IsOperationFailure reports whether err mirrors a server-side request error.
func IsOperationFailure(err error) bool { return is(err, CodeOperationFailure) }

// IsWriteError reports whether err is a rejected write.
func IsWriteError(err error) bool { return is(err, CodeWriteError) }
