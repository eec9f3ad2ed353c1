package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"weave/internal/canvas"
	"weave/internal/geom"
)

func newTestLibrary(t *testing.T, onChange ChangedHandler) (*Library, string) {
	t.Helper()
	root := t.TempDir()
	lib, err := NewLibrary(root, onChange, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib, root
}

func TestMountReadsBody(t *testing.T) {
	lib, root := newTestLibrary(t, nil)
	if err := os.WriteFile(filepath.Join(root, "a.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lib.Mount(canvas.KindNote, "a.md")

	body, ok := lib.Body(canvas.KindNote, "a.md")
	if !ok || body != "hello" {
		t.Errorf("got %q ok=%v, want hello", body, ok)
	}
	if lib.MountedCount() != 1 {
		t.Errorf("mounted count %d, want 1", lib.MountedCount())
	}
}

func TestMountMissingFileYieldsEmptyBody(t *testing.T) {
	lib, _ := newTestLibrary(t, nil)
	lib.Mount(canvas.KindNote, "nope.md")

	body, ok := lib.Body(canvas.KindNote, "nope.md")
	if !ok || body != "" {
		t.Errorf("missing file should mount empty, got %q ok=%v", body, ok)
	}
}

func TestUnmountDropsBody(t *testing.T) {
	lib, root := newTestLibrary(t, nil)
	os.WriteFile(filepath.Join(root, "a.md"), []byte("x"), 0o644)

	lib.Mount(canvas.KindNote, "a.md")
	lib.Unmount(canvas.KindNote, "a.md")

	if _, ok := lib.Body(canvas.KindNote, "a.md"); ok {
		t.Error("body still cached after unmount")
	}
	if lib.MountedCount() != 0 {
		t.Errorf("mounted count %d, want 0", lib.MountedCount())
	}
}

func TestRefCannotEscapeRoot(t *testing.T) {
	lib, root := newTestLibrary(t, nil)

	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	os.WriteFile(outside, []byte("secret"), 0o644)
	defer os.Remove(outside)

	lib.Mount(canvas.KindNote, "../secret.txt")

	if body, ok := lib.Body(canvas.KindNote, "../secret.txt"); ok && body == "secret" {
		t.Error("ref escaped the content root")
	}
}

func TestWatcherDeliversEdits(t *testing.T) {
	changed := make(chan string, 4)
	lib, root := newTestLibrary(t, func(_ canvas.NodeKind, _ string, body string) {
		changed <- body
	})

	path := filepath.Join(root, "a.md")
	os.WriteFile(path, []byte("v1"), 0o644)
	lib.Mount(canvas.KindNote, "a.md")

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case body := <-changed:
			if body == "v2" {
				if got, _ := lib.Body(canvas.KindNote, "a.md"); got != "v2" {
					t.Errorf("cache not refreshed, got %q", got)
				}
				return
			}
		case <-deadline:
			t.Fatal("edit never delivered")
		}
	}
}

func TestUnmountedFileEditsIgnored(t *testing.T) {
	changed := make(chan string, 4)
	lib, root := newTestLibrary(t, func(_ canvas.NodeKind, _ string, body string) {
		changed <- body
	})

	path := filepath.Join(root, "a.md")
	os.WriteFile(path, []byte("v1"), 0o644)
	lib.Mount(canvas.KindNote, "a.md")
	lib.Unmount(canvas.KindNote, "a.md")

	os.WriteFile(path, []byte("v2"), 0o644)

	select {
	case body := <-changed:
		t.Errorf("unmounted ref delivered %q", body)
	case <-time.After(200 * time.Millisecond):
	}
}

// The engine mounts refs for visible nodes and unmounts them when the
// node goes away; the library is the provider on the other end.
func TestEngineMountsThroughLibrary(t *testing.T) {
	lib, root := newTestLibrary(t, nil)
	os.WriteFile(filepath.Join(root, "a.md"), []byte("body"), 0o644)

	e := canvas.New(canvas.DefaultConfig())
	e.AttachContent(lib)

	n, err := e.AddNode(canvas.Node{
		Kind: canvas.KindNote,
		Ref:  "a.md",
		Pos:  geom.Pt(0, 0),
		Size: geom.Sz(200, 100),
	})
	if err != nil {
		t.Fatal(err)
	}
	e.RenderFrame()

	if body, ok := lib.Body(canvas.KindNote, "a.md"); !ok || body != "body" {
		t.Fatalf("engine did not mount the ref: %q ok=%v", body, ok)
	}

	e.RemoveNode(n.ID)
	e.RenderFrame()

	if lib.MountedCount() != 0 {
		t.Errorf("ref still mounted after node removal, count %d", lib.MountedCount())
	}
}
