package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"diagnostic-service/internal/app"
)

func TestSessionStoreLiveness(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	store.Put(app.NewSession("s1", "automatisation-odoo"))
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session present")
	}
	if !mr.Exists("diagnostic:session:s1") {
		t.Fatalf("expected liveness marker in redis")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
	if mr.Exists("diagnostic:session:s1") {
		t.Fatalf("expected liveness marker cleared")
	}
}
