package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/reportloom/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 900}, // heuristic ~ 1 tok ≈ 4 chars
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d < min %d", c.name, got, c.min)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000) // ~5000 chars
	trunc := utils.TruncateToTokenLimit(text, 300)
	n := utils.CountTokens(trunc)
	if n > 300 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if len(trunc) == 0 {
		t.Fatalf("expected non-empty truncation")
	}
}

func TestTruncateKeepsWholeLines(t *testing.T) {
	text := "col_a col_b\n1     2\n3     4\n5     6"
	got := utils.TruncateToTokenLimit(text, 6) // 24 chars
	if got != "col_a col_b\n1     2" {
		t.Fatalf("got %q", got)
	}
}

func TestSafeWriteFileReplaces(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.bin")
	for _, body := range []string{"first", "second"} {
		if err := utils.SafeWriteFile(p, []byte(body)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "second" {
		t.Fatalf("content=%q err=%v", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}
