package cache

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := New[string, int]()

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache returned a value")
	}

	c.Set("a", 1, time.Minute)
	if got, ok := c.Get("a"); !ok || got != 1 {
		t.Fatalf("get = %d/%v, want 1/true", got, ok)
	}

	c.Set("a", 2, time.Minute)
	if got, _ := c.Get("a"); got != 2 {
		t.Fatalf("get after overwrite = %d, want 2", got)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestExpiry(t *testing.T) {
	c := New[string, string]()

	c.Set("short", "x", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Fatal("expired entry still present")
	}

	// Non-positive TTL pins the entry.
	c.Set("pinned", "y", 0)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("pinned"); !ok {
		t.Fatal("pinned entry missing")
	}
}
