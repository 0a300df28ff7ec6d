package infra

import (
	"testing"
	"time"
)

func TestRateLimiter_TryAcquire(t *testing.T) {
	// Burst of 2, refill 1/s
	rl := NewRateLimiter(2, 1)

	if !rl.TryAcquire() {
		t.Error("first acquire should succeed")
	}
	if !rl.TryAcquire() {
		t.Error("second acquire should succeed (burst)")
	}
	if rl.TryAcquire() {
		t.Error("third acquire should fail (bucket empty)")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(1, 50) // refills fast for the test

	if !rl.TryAcquire() {
		t.Fatal("first acquire should succeed")
	}
	if rl.TryAcquire() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(50 * time.Millisecond) // > 1/50s

	if !rl.TryAcquire() {
		t.Error("acquire should succeed after refill")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(1, 100)

	rl.Wait() // consumes the burst token

	start := time.Now()
	rl.Wait() // must block until refill
	elapsed := time.Since(start)

	if elapsed < 5*time.Millisecond {
		t.Errorf("Wait returned too quickly: %s", elapsed)
	}
}
