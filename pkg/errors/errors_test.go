package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodePayment, status: http.StatusUnprocessableEntity, publicMsg: "payment does not match the required amount", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}
	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if !Is(fmt.Errorf("outer: %w", wrapped), CodeConflict) {
		t.Fatalf("Is should find the typed error through wrapping")
	}
	if Is(cause, CodeConflict) {
		t.Fatalf("plain errors carry no code")
	}
	if got := Newf(CodeNotFound, "item %s", "x").Message(); got != "item x" {
		t.Fatalf("unexpected formatted message %q", got)
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_bookings_reference", TableName: "bookings"}
	dump := Dump(Wrap(CodeConflict, pgErr, "insert booking"))
	if dump.Postgres == nil {
		t.Fatalf("expected postgres detail in %+v", dump)
	}
	if dump.Postgres.Code != "23505" || dump.Postgres.Constraint != "ux_bookings_reference" || dump.Postgres.Table != "bookings" {
		t.Fatalf("unexpected pgx detail %+v", dump.Postgres)
	}
	if dump.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", dump.Chain)
	}
	if fields := dump.LogFields(); fields["pg_constraint"] != "ux_bookings_reference" {
		t.Fatalf("log fields missing constraint: %v", fields)
	}

	pqDump := Dump(fmt.Errorf("exec: %w", &pq.Error{Code: "23503", Table: "bookings", Column: "item_id"}))
	if pqDump.Postgres == nil || pqDump.Postgres.Code != "23503" || pqDump.Postgres.Column != "item_id" {
		t.Fatalf("unexpected pq dump %+v", pqDump)
	}

	plain := Dump(New(CodeNotFound, "missing"))
	if plain.Postgres != nil {
		t.Fatalf("non-postgres error should have no detail")
	}
	if _, ok := plain.LogFields()["pg_code"]; ok {
		t.Fatalf("pg keys should be omitted without postgres detail")
	}

	if empty := Dump(nil); empty.TopMessage != "" || len(empty.Chain) != 0 {
		t.Fatalf("nil error should produce empty dump")
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Fatalf("nil is not retryable")
	}
	if !Retryable(stdErrors.New("socket closed")) {
		t.Fatalf("untyped errors are treated as internal and retryable")
	}
	if Retryable(New(CodeValidation, "bad")) {
		t.Fatalf("validation errors are not retryable")
	}
	if !Retryable(Wrap(CodeDependency, stdErrors.New("redis down"), "cache")) {
		t.Fatalf("dependency errors are retryable")
	}
}

func TestClientMessageFlag(t *testing.T) {
	if !MetadataFor(CodePayment).ClientMessage {
		t.Fatalf("payment mismatch messages are shown to customers")
	}
	if MetadataFor(CodeInternal).ClientMessage || MetadataFor(CodeDependency).ClientMessage {
		t.Fatalf("server-side messages must stay private")
	}
}
