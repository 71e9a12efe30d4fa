package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestStreamError_Error(t *testing.T) {
	err := New(ErrCodeOperator, "mapper failed")
	if got := err.Error(); got != "OPERATOR: mapper failed" {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestStreamError_WithCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Operator(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("cause missing from message: %s", err.Error())
	}
}

func TestStreamError_Suppress(t *testing.T) {
	primary := Cleanup("complete", stderrors.New("close failed"))
	secondary := stderrors.New("rollback failed")
	primary.Suppress(secondary)

	sup := SuppressedOf(primary)
	if len(sup) != 1 || sup[0] != secondary {
		t.Fatalf("expected one suppressed cause, got %v", sup)
	}
	if !strings.Contains(primary.Error(), "rollback failed") {
		t.Errorf("suppressed cause missing from message: %s", primary.Error())
	}
}

func TestAddSuppressed_WrapsPlainErrors(t *testing.T) {
	primary := stderrors.New("primary")
	secondary := stderrors.New("secondary")

	combined := AddSuppressed(primary, secondary)
	if !stderrors.Is(combined, primary) {
		t.Error("primary cause lost")
	}
	sup := SuppressedOf(combined)
	if len(sup) != 1 || sup[0] != secondary {
		t.Errorf("expected secondary as suppressed, got %v", sup)
	}
}

func TestAddSuppressed_NilArguments(t *testing.T) {
	err := stderrors.New("only")
	if got := AddSuppressed(err, nil); got != err {
		t.Error("nil secondary should return primary unchanged")
	}
	if got := AddSuppressed(nil, err); got != err {
		t.Error("nil primary should return secondary")
	}
}

func TestIsOverflow(t *testing.T) {
	if !IsOverflow(Overflow("")) {
		t.Error("overflow error not detected")
	}
	if !IsOverflow(fmt.Errorf("wrapped: %w", Overflow("full"))) {
		t.Error("wrapped overflow not detected")
	}
	if IsOverflow(New(ErrCodeOperator, "not overflow")) {
		t.Error("non-overflow StreamError misdetected")
	}
	if IsOverflow(stderrors.New("plain")) {
		t.Error("plain error misdetected as overflow")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(NonPositiveRequest(0)) != ErrCodeNonPositiveRequest {
		t.Error("wrong code for non-positive request")
	}
	if CodeOf(stderrors.New("plain")) != "" {
		t.Error("expected empty code for plain error")
	}
}

func TestSingleSubscriberOnly_Message(t *testing.T) {
	err := SingleSubscriberOnly()
	if !strings.Contains(err.Error(), "single subscriber") {
		t.Errorf("message should name single-subscriber semantics: %s", err.Error())
	}
}
