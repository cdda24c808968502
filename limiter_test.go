package sanitypress

import (
	"testing"
	"time"
)

func TestSubmitLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewSubmitLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first submission to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second submission to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third submission to be blocked")
	}
	if limiter.Remaining(ip) != 0 {
		t.Fatalf("expected no remaining submissions, got %d", limiter.Remaining(ip))
	}
}

func TestSubmitLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewSubmitLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first submission to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second submission to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected submission after window to be allowed")
	}
}

func TestSubmitLimiterIsPerIP(t *testing.T) {
	limiter := NewSubmitLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestSubmitLimiterStopTwice(t *testing.T) {
	limiter := NewSubmitLimiter(1, time.Second)
	limiter.Stop()
	limiter.Stop()
}
