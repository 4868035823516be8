package sandbox

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func realPath(t *testing.T, dir string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	return resolved
}

func TestValidatePathWithinRoot(t *testing.T) {
	root := t.TempDir()

	resolved, err := ValidatePath(root, "algorithms/main.py")
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	want := filepath.Join(realPath(t, root), "algorithms/main.py")
	if resolved != want {
		t.Errorf("got %q, want %q", resolved, want)
	}
}

func TestValidatePathRejectsDotDot(t *testing.T) {
	root := t.TempDir()

	for _, rel := range []string{"../escape.py", "nested/../../escape.py"} {
		_, err := ValidatePath(root, rel)
		if err == nil {
			t.Fatalf("%s: expected containment error", rel)
		}
		if !strings.Contains(err.Error(), "outside the project root") {
			t.Errorf("%s: unexpected error: %v", rel, err)
		}
	}
}

func TestValidatePathRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not reliable on Windows")
	}

	root := t.TempDir()
	outside := t.TempDir()

	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatalf("creating symlink: %v", err)
	}

	_, err := ValidatePath(root, "link/main.py")
	if err == nil {
		t.Fatal("expected containment error for symlink escape")
	}
}

func TestValidatePathAllowsInternalSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not reliable on Windows")
	}

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "real"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}

	resolved, err := ValidatePath(root, "link/main.py")
	if err != nil {
		t.Fatalf("internal symlink must be allowed: %v", err)
	}
	want := filepath.Join(realPath(t, root), "real", "main.py")
	if resolved != want {
		t.Errorf("got %q, want %q", resolved, want)
	}
}

func TestSafeWriteCreatesAndOverwrites(t *testing.T) {
	root := t.TempDir()

	if err := SafeWrite(root, "algorithms/main.py", []byte("v1"), 0o644); err != nil {
		t.Fatalf("SafeWrite: %v", err)
	}
	if err := SafeWrite(root, "algorithms/main.py", []byte("v2"), 0o644); err != nil {
		t.Fatalf("SafeWrite overwrite: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(realPath(t, root), "algorithms/main.py"))
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("content = %q", data)
	}
}

func TestSafeWriteLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()

	if err := SafeWrite(root, "main.py", []byte("pass"), 0o644); err != nil {
		t.Fatalf("SafeWrite: %v", err)
	}

	entries, err := os.ReadDir(realPath(t, root))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestSafeWriteRejectsEscape(t *testing.T) {
	root := t.TempDir()
	if err := SafeWrite(root, "../escape.py", []byte("bad"), 0o644); err == nil {
		t.Fatal("expected containment error")
	}
}

func TestSafeRemove(t *testing.T) {
	root := t.TempDir()

	if err := SafeWrite(root, "old.py", []byte("bye"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := SafeRemove(root, "old.py"); err != nil {
		t.Fatalf("SafeRemove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(realPath(t, root), "old.py")); !os.IsNotExist(err) {
		t.Error("file should be removed")
	}

	if err := SafeRemove(root, "../other.py"); err == nil {
		t.Fatal("expected containment error")
	}
}

func TestSafeMkdirAll(t *testing.T) {
	root := t.TempDir()

	if err := SafeMkdirAll(root, "backtests/2024", 0o755); err != nil {
		t.Fatalf("SafeMkdirAll: %v", err)
	}
	info, err := os.Stat(filepath.Join(realPath(t, root), "backtests/2024"))
	if err != nil || !info.IsDir() {
		t.Errorf("directory missing: %v", err)
	}
}
