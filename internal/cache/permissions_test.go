package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLLMCache_StrictPerms(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	dir := filepath.Join(base, "llm")
	c := &LLMCache{Dir: dir, StrictPerms: true}
	key := KeyFrom("model", "prompt")
	data := []byte(`{"ok":true}`)
	if err := c.Save(context.Background(), key, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	p := filepath.Join(dir, key+".json")
	finfo, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if got := finfo.Mode() & 0o777; got != 0o600 {
		t.Fatalf("file mode = %o, want 0600", got)
	}
}

func TestResponseCache_GetSet_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	rc := ResponseCache{LLMCache: &LLMCache{Dir: dir}}
	ctx := context.Background()

	if _, ok := rc.Get(ctx, "missing"); ok {
		t.Fatalf("expected a miss for a key never set")
	}

	rc.Set(ctx, "k1", []byte(`{"status":"PASS"}`))
	data, ok := rc.Get(ctx, "k1")
	if !ok {
		t.Fatalf("expected a hit after Set")
	}
	if string(data) != `{"status":"PASS"}` {
		t.Fatalf("unexpected cached payload: %s", data)
	}
}
