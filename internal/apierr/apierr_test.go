package apierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindOther},
		{name: "plain error", err: errors.New("boom"), want: KindOther},
		{name: "tagged expired", err: &Error{Kind: KindAuthExpired, Op: "catalog search"}, want: KindAuthExpired},
		{name: "tagged invalid", err: &Error{Kind: KindAuthInvalid, Op: "tokeninfo"}, want: KindAuthInvalid},
		{
			name: "wrapped tagged",
			err:  fmt.Errorf("fetch entry: %w", &Error{Kind: KindAuthExpired, Op: "catalog entry"}),
			want: KindAuthExpired,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsAuth(t *testing.T) {
	if IsAuth(errors.New("timeout")) {
		t.Fatal("plain error must not be an auth error")
	}
	if !IsAuth(&Error{Kind: KindAuthInvalid}) {
		t.Fatal("expected auth error")
	}
	if IsAuth(&Error{Kind: KindOther, Status: 500}) {
		t.Fatal("KindOther must not be an auth error")
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindAuthInvalid, Status: 401, Op: "catalog search", Message: "invalid credentials"}
	want := "catalog search: invalid credentials (status 401)"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}

	bare := &Error{Op: "catalog lineage"}
	if bare.Error() != "catalog lineage: request failed" {
		t.Fatalf("unexpected message %q", bare.Error())
	}
}
