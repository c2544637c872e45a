package store

import (
	"context"
	"testing"
	"time"
)

func TestOpenReturnsHandleWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	db, err := Open(ctx, "postgres://user:pw@127.0.0.1:1/atelier")
	if err == nil {
		db.Close()
		t.Fatal("expected ping error for unreachable server")
	}
	if db == nil {
		t.Fatal("handle should survive a failed ping")
	}
	db.Close()
}
