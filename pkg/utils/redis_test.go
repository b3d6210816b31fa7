package utils

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowScriptCompiles(t *testing.T) {
	if fixedWindowScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}

func TestAllowRequest_RejectsBadArguments(t *testing.T) {
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	if _, err := AllowRequest(ctx, nil, "k", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := AllowRequest(ctx, rdb, "", 1, time.Second); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := AllowRequest(ctx, rdb, "k", 0, time.Second); err == nil {
		t.Fatalf("expected error for non-positive limit")
	}
	if _, err := AllowRequest(ctx, rdb, "k", 1, 0); err == nil {
		t.Fatalf("expected error for non-positive window")
	}
}
