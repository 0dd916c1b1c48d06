package racepub

import (
	"testing"
	"time"
)

func TestAuthLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewAuthLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Check(ip) {
		t.Fatalf("expected a fresh ip to be allowed")
	}
	limiter.Fail(ip)
	if !limiter.Check(ip) {
		t.Fatalf("expected ip with one failure to be allowed")
	}
	limiter.Fail(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected ip with two failures to be blocked")
	}
}

func TestAuthLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewAuthLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	limiter.Fail(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected ip to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Check(ip) {
		t.Fatalf("expected ip to be allowed after the window")
	}
}

func TestAuthLimiterIsPerIP(t *testing.T) {
	limiter := NewAuthLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	limiter.Fail("203.0.113.30")
	if !limiter.Check("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Check("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked")
	}
}

func TestAuthLimiterReset(t *testing.T) {
	limiter := NewAuthLimiter(1, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.40"

	limiter.Fail(ip)
	limiter.Reset(ip)
	if !limiter.Check(ip) {
		t.Fatalf("expected ip to be allowed after reset")
	}
}

func TestAuthLimiterStopTwice(t *testing.T) {
	limiter := NewAuthLimiter(1, time.Minute)
	limiter.Stop()
	limiter.Stop()
}
