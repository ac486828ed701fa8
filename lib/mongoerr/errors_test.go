package mongoerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New(CodeWriteError, "update only works with $ operators")
	want := "mongomock: WriteError: update only works with $ operators"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	// Server codes show up in the rendered message.
	err = OperationFailure("source namespace does not exist", 10026)
	if !strings.Contains(err.Error(), "code 10026") {
		t.Errorf("Error() = %q, missing server code", err.Error())
	}
}

func TestNotImplementedWording(t *testing.T) {
	err := NotImplemented("$where")
	want := "'$where' is a valid operation but it is not supported by mongomock yet"
	if err.Msg != want {
		t.Errorf("Msg = %q, want %q", err.Msg, want)
	}
	if !IsNotImplemented(err) {
		t.Error("IsNotImplemented missed its own constructor")
	}
}

func TestDuplicateKey(t *testing.T) {
	err := DuplicateKey()
	if err.ServerCode != 11000 {
		t.Errorf("ServerCode = %d, want 11000", err.ServerCode)
	}
	if !IsDuplicateKey(err) {
		t.Error("IsDuplicateKey missed its own constructor")
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	// The helpers must see through fmt.Errorf wrapping.
	inner := WriteError("rejected")
	wrapped := fmt.Errorf("insert failed: %w", inner)

	if !IsWriteError(wrapped) {
		t.Error("IsWriteError did not unwrap")
	}
	if IsNotImplemented(wrapped) || IsDuplicateKey(wrapped) || IsOperationFailure(wrapped) {
		t.Error("wrapped write error misclassified")
	}

	var e *Error
	if !errors.As(wrapped, &e) || e.Code != CodeWriteError {
		t.Error("errors.As did not recover the typed error")
	}

	// Plain errors classify as nothing.
	if IsWriteError(errors.New("plain")) {
		t.Error("plain error classified as write error")
	}
	if IsWriteError(nil) {
		t.Error("nil classified as write error")
	}
}

func TestCodeStrings(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeNotImplemented, "NotImplemented"},
		{CodeOperationFailure, "OperationFailure"},
		{CodeDuplicateKey, "DuplicateKey"},
		{CodeServerSelectionTimeout, "ServerSelectionTimeout"},
		{Code(999), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("Code(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}
