package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"toolchat/provider/testutil"
)

func TestCheckProvider(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		if err := checkProvider(context.Background(), testutil.NewMockProvider("claude-sonnet-4-5"), time.Second); err != nil {
			t.Errorf("checkProvider() error = %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		p := testutil.NewMockProvider("llama3.1:latest")
		p.PingFunc = func(context.Context) error { return testutil.ErrUnavailable }

		err := checkProvider(context.Background(), p, time.Second)
		if !errors.Is(err, testutil.ErrUnavailable) {
			t.Fatalf("error = %v, want ErrUnavailable", err)
		}
		if !strings.Contains(err.Error(), "llama3.1:latest is not reachable") {
			t.Errorf("error = %q", err)
		}
	})

	t.Run("bounded wait", func(t *testing.T) {
		p := testutil.NewMockProvider("slow")
		p.PingFunc = func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}

		start := time.Now()
		err := checkProvider(context.Background(), p, 20*time.Millisecond)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want deadline exceeded", err)
		}
		if time.Since(start) > 2*time.Second {
			t.Error("ping was not bounded by the timeout")
		}
	})
}
