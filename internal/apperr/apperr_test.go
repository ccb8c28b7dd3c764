package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindTransport, http.StatusBadGateway},
		{KindRemote, http.StatusInternalServerError},
		{KindPersistence, http.StatusInternalServerError},
		{KindUnknown, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := New(tt.kind, "x").HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	e := Validation("bad input")
	if e.Error() != "bad input" {
		t.Errorf("Error() = %q", e.Error())
	}

	e = Validation("bad input").WithOp("commit")
	if e.Error() != "commit: bad input" {
		t.Errorf("Error() with op = %q", e.Error())
	}
}

func TestKindThroughWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("add: %w", Persistence("could not save address book", cause))

	if !Is(err, KindPersistence) {
		t.Fatalf("kind = %v, want persistence", GetKind(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable with errors.Is")
	}
	if Message(err) != "could not save address book" {
		t.Errorf("Message() = %q", Message(err))
	}
}

func TestMessagePlainError(t *testing.T) {
	err := errors.New("plain")
	if Message(err) != "plain" {
		t.Errorf("Message() = %q, want plain", Message(err))
	}
	if GetKind(err) != KindUnknown {
		t.Errorf("GetKind() = %v, want unknown", GetKind(err))
	}
}
