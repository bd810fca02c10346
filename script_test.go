package respkit

import (
	"testing"

	"github.com/danmuck/respkit/digest"
	"github.com/danmuck/respkit/internal/testutil/testlog"
)

func TestNewScriptDerivesDigestEagerly(t *testing.T) {
	testlog.Start(t)
	const body = "return redis.call('GET', KEYS[1])"
	s := NewScript(body)

	if s.Body() != body {
		t.Fatalf("body mangled: %q", s.Body())
	}
	if s.Digest() != digest.SHA1Hex(body) {
		t.Fatalf("digest mismatch: %q", s.Digest())
	}
	if len(s.Digest()) != digest.HexLen {
		t.Fatalf("digest length %d", len(s.Digest()))
	}
}

func TestScriptsWithSameBodyShareDigest(t *testing.T) {
	testlog.Start(t)
	a := NewScript("return 1")
	b := NewScript("return 1")
	if a.Digest() != b.Digest() {
		t.Fatalf("identical bodies diverged: %q vs %q", a.Digest(), b.Digest())
	}
	if NewScript("return 2").Digest() == a.Digest() {
		t.Fatalf("distinct bodies collided")
	}
}
