package pool

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenSucceedsAndRoundRobins(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	p, err := Open(context.Background(), "redis://"+mr.Addr(), 3)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	if p.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", p.Size())
	}

	first := p.Acquire()
	second := p.Acquire()
	third := p.Acquire()
	fourth := p.Acquire()
	if first == second || second == third || third == fourth {
		t.Fatalf("Acquire() did not round-robin across distinct clients")
	}
	if first != fourth {
		t.Fatalf("Acquire() did not wrap back to the first client after N calls")
	}
}

func TestOpenFailsOnBadURL(t *testing.T) {
	if _, err := Open(context.Background(), "not-a-valid-url", 1); err == nil {
		t.Fatalf("Open(bad url) returned no error")
	}
}

func TestOpenFailsWhenUnreachable(t *testing.T) {
	if _, err := Open(context.Background(), "redis://127.0.0.1:1", 1); err == nil {
		t.Fatalf("Open(unreachable) returned no error")
	}
}

func TestOpenClampsMinimumPoolSize(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	p, err := Open(context.Background(), "redis://"+mr.Addr(), 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()
	if p.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 (clamped minimum)", p.Size())
	}
}
