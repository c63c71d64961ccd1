package utils

import (
	"context"
	"testing"
	"time"
)

func TestSlidingWindowScriptCompiles(t *testing.T) {
	if slidingWindowScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}

func TestSlidingWindowAllow_RejectsBadArgs(t *testing.T) {
	now := time.Unix(1700000000, 0)
	if _, err := SlidingWindowAllow(context.Background(), nil, "k", 3, time.Minute, now, "m"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
