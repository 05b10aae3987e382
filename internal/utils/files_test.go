package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

func TestSafeWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.json")
	if err := utils.SafeWriteFile(p, []byte("first")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := utils.SafeWriteFile(p, []byte("second")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("got %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestPrettyJSONKeepsHTML(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]string{"title": "Sales <2024>"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := "{\n  \"title\": \"Sales <2024>\"\n}"
	if string(b) != want {
		t.Fatalf("got %s", b)
	}
}
