package util

import (
	"strings"
	"testing"
)

func TestHashUserKeyIsPathSafe(t *testing.T) {
	const want = "842023c80d60184f1524631842f587068147732890e0f962127de70b82e80749"
	if got := HashUserKey("guest:abc"); got != want {
		t.Fatalf("HashUserKey(guest:abc) = %s, want %s", got, want)
	}

	seen := map[string]string{}
	for _, id := range []string{"guest:abc", "google:abc", "founder@example.com", "a/b"} {
		key := HashUserKey(id)
		if strings.ContainsAny(key, ":@/") {
			t.Fatalf("key for %q is not path safe: %s", id, key)
		}
		if prev, dup := seen[key]; dup {
			t.Fatalf("%q and %q share key %s", prev, id, key)
		}
		seen[key] = id
	}
}
