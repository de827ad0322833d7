package db

import (
	"context"
	"testing"
)

func TestOpen_EmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), Options{DSN: "  "}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestOpen_MalformedDSN(t *testing.T) {
	if _, err := Open(context.Background(), Options{DSN: "postgres://%zz"}); err == nil {
		t.Fatal("expected error for malformed DSN")
	}
}
