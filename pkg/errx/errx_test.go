package errx_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Abraxas-365/pagelift/pkg/errx"
)

var (
	testRegistry = errx.NewRegistry("TEST")
	errBoom      = testRegistry.Register("BOOM", errx.TypeExternal, 502, "boom")
	errOther     = testRegistry.Register("OTHER", errx.TypeInternal, 500, "other")
)

func TestRegisterPrefixesCode(t *testing.T) {
	if errBoom.Code != "TEST_BOOM" {
		t.Fatalf("expected TEST_BOOM, got %s", errBoom.Code)
	}
	got, ok := testRegistry.Get("BOOM")
	if !ok || got != errBoom {
		t.Fatalf("expected registry lookup to return the registered code")
	}
	names := testRegistry.Names()
	if len(names) != 2 || names[0] != "TEST_BOOM" || names[1] != "TEST_OTHER" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestHasCodeThroughWrapChain(t *testing.T) {
	base := testRegistry.NewWithCause(errBoom, errors.New("socket closed"))
	wrapped := fmt.Errorf("page 3: %w", base)

	if !errx.HasCode(wrapped, errBoom) {
		t.Fatalf("expected wrapped error to carry %s", errBoom.Code)
	}
	if errx.HasCode(wrapped, errOther) {
		t.Fatalf("did not expect %s", errOther.Code)
	}
	if !errBoom.Is(wrapped) {
		t.Fatalf("ErrorCode.Is should match through wrapping")
	}
	if errx.HasCode(nil, errBoom) {
		t.Fatalf("nil error never has a code")
	}
}

func TestCodeOfAndDetails(t *testing.T) {
	err := testRegistry.New(errOther).WithDetail("page", 2)
	if errx.CodeOf(err) != "TEST_OTHER" {
		t.Fatalf("unexpected code %q", errx.CodeOf(err))
	}
	if errx.CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors have no code")
	}
	v, ok := err.Detail("page")
	if !ok || v.(int) != 2 {
		t.Fatalf("expected detail page=2, got %v", v)
	}
	if _, ok := err.Detail("missing"); ok {
		t.Fatalf("unexpected detail")
	}
}

func TestErrorString(t *testing.T) {
	err := testRegistry.NewWithCause(errBoom, errors.New("eof"))
	if err.Error() != "[TEST_BOOM] boom: eof" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if err.HTTPStatus != 502 {
		t.Fatalf("expected 502, got %d", err.HTTPStatus)
	}
	if !errors.Is(err, err.Err) {
		t.Fatalf("expected Unwrap to expose the cause")
	}
}

func TestUncodedErrors(t *testing.T) {
	v := errx.Validation("missing input")
	if v.Type != errx.TypeValidation || v.HTTPStatus != 400 {
		t.Fatalf("unexpected validation error %+v", v)
	}

	cause := errors.New("permission denied")
	w := errx.Wrapf(cause, errx.TypeInternal, "write %s", "out.json")
	if w.Message != "write out.json" || !errors.Is(w, cause) {
		t.Fatalf("unexpected wrapped error %+v", w)
	}

	coded := errx.Wrap(testRegistry.New(errBoom), "page 2", errx.TypeInternal)
	if !errx.HasCode(coded, errBoom) {
		t.Fatalf("wrapping a coded error must keep its code")
	}
}
