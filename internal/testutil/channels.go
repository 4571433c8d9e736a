package testutil

import (
	"testing"
	"time"
)

// DefaultTimeout bounds how long channel helpers wait before failing a test
const DefaultTimeout = 5 * time.Second

// RequireReceive reads one value from ch within timeout, or fails the test
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, msg string) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", msg)
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, msg)
	}
	panic("unreachable")
}

// RequireNoReceive fails the test if ch yields a value within wait
func RequireNoReceive[T any](t testing.TB, ch <-chan T, wait time.Duration, msg string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %v: %s", v, msg)
	case <-time.After(wait):
	}
}

// Eventually polls cond until it holds or timeout elapses
func Eventually(t testing.TB, cond func() bool, timeout time.Duration, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met after %v: %s", timeout, msg)
}
