// Package mongoerr defines the error taxonomy of the mongomock library.
//
// All failures surfaced by the public API are either a *Error carrying a
// Code from the taxonomy below, or a plain error for programming mistakes
// (nil receivers and the like). The taxonomy distinguishes three families:
//
//   - CodeNotImplemented: the requested operator or feature is recognized
//     but intentionally unsupported. This is the library's core contract -
//     an unsupported capability fails loudly at the point of use instead of
//     silently approximating the real server's behavior.
//   - Invalid usage: malformed request shapes (CodeOperationFailure,
//     CodeWriteError, CodeInvalidName, CodeInvalidURI, ...). These mirror
//     the errors a real server or driver would raise.
//   - Environment: CodeServerSelectionTimeout and CodeConfiguration, raised
//     by the connector rather than by document evaluation.
//
// Helpers such as IsNotImplemented and IsDuplicateKey work through
// errors.As so wrapped errors are classified correctly.
package mongoerr
