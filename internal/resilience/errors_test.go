package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := Transient("find identity", errors.New("pool exhausted"))
	if !IsTransient(err) {
		t.Error("expected TransientError to be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	wrapped := fmt.Errorf("matcher: lookups: %w", Transient("find tax", errors.New("busy")))
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestTransient_Nil(t *testing.T) {
	if Transient("noop", nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
}

func TestIsTransient_NilError(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_RegularError(t *testing.T) {
	err := errors.New("invalid input: missing field")
	if IsTransient(err) {
		t.Error("regular error should not be transient")
	}
}

func TestIsTransient_ConnectionReset(t *testing.T) {
	err := fmt.Errorf("write tcp: %w", syscall.ECONNRESET)
	if !IsTransient(err) {
		t.Error("ECONNRESET should be transient")
	}
}

func TestIsTransient_ConnectionRefused(t *testing.T) {
	err := fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)
	if !IsTransient(err) {
		t.Error("ECONNREFUSED should be transient")
	}
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTransient(err) {
		t.Error("network timeout should be transient")
	}
}

func TestIsTransient_PgCodes(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"08006", true}, // connection_failure
		{"08001", true},
		{"40001", true},
		{"40P01", true},
		{"57P03", true},
		{"53300", true},
		{"23505", false}, // unique_violation
		{"42P01", false}, // undefined_table
	}
	for _, tt := range tests {
		err := fmt.Errorf("postgres: upsert result: %w", &pgconn.PgError{Code: tt.code})
		if got := IsTransient(err); got != tt.want {
			t.Errorf("IsTransient(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	patterns := []string{
		"read tcp 10.0.0.1:5432: connection reset by peer",
		"write: broken pipe",
		"dial tcp: lookup db: temporary failure in name resolution",
		"read tcp: i/o timeout",
		"database is locked (5) (SQLITE_BUSY)",
		"conn closed",
	}
	for _, msg := range patterns {
		if !IsTransient(errors.New(msg)) {
			t.Errorf("expected %q to be transient", msg)
		}
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("original")
	te := &TransientError{Op: "ping", Err: inner}
	if !errors.Is(te, inner) {
		t.Error("Unwrap should expose the inner error")
	}
}

func TestTransientError_ErrorMessage(t *testing.T) {
	te := &TransientError{Op: "ping", Err: errors.New("refused")}
	if te.Error() != "ping: refused" {
		t.Errorf("unexpected message %q", te.Error())
	}
	bare := &TransientError{Err: errors.New("refused")}
	if bare.Error() != "refused" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}
