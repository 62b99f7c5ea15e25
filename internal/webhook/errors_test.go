package webhook

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NewPayloadError("bad", nil))

	kind, ok := KindOf(wrapped)
	if !ok || kind != KindPayload {
		t.Errorf("KindOf = (%q, %v), want (payload, true)", kind, ok)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("plain errors have no kind")
	}
	if IsKind(nil, KindPayload) {
		t.Error("nil is not a payload error")
	}
}

func TestError_MessageIncludesCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := NewUserCreationError("usr_1", "failed to create user", cause)

	if !strings.Contains(err.Error(), "duplicate key") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}
	if err.Details["clerk_id"] != "usr_1" {
		t.Errorf("Details = %v", err.Details)
	}
}
