//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/chatterino/chatterino-updater/internal/cli"
)

// testEnv is an isolated installation: Root/Updater/updater plus the archive.
type testEnv struct {
	Root       string // installation root, e.g. C:\Program Files\Chatterino
	UpdaterDir string // Root/Updater
	Self       string // the updater executable the run pretends to be
	Stdout     bytes.Buffer
	Stderr     bytes.Buffer
}

// setupTestEnv creates the directory layout and keeps timing short so the
// suite does not sit through the production grace period.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := filepath.Join(t.TempDir(), "Chatterino")
	env := &testEnv{
		Root:       root,
		UpdaterDir: filepath.Join(root, "Updater"),
	}
	env.Self = filepath.Join(env.UpdaterDir, "updater")
	if err := os.MkdirAll(env.UpdaterDir, 0755); err != nil {
		t.Fatalf("creating updater dir: %v", err)
	}
	writeFile(t, env.Self, "old updater")

	t.Setenv("CHATTERINO_UPDATER_GRACE_PERIOD", "0s")
	t.Setenv("CHATTERINO_UPDATER_POLL_INTERVAL", "20ms")
	return env
}

// writeArchive writes files (name -> content) to Updater/update.zip in the
// order given by names.
func (e *testEnv) writeArchive(t *testing.T, comment string, files ...string) {
	t.Helper()
	if len(files)%2 != 0 {
		t.Fatal("writeArchive needs name/content pairs")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i < len(files); i += 2 {
		hdr := &zip.FileHeader{Name: files[i], Method: zip.Deflate}
		if strings.HasSuffix(files[i], "/") {
			hdr.Method = zip.Store
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("adding %s: %v", files[i], err)
		}
		if _, err := io.WriteString(w, files[i+1]); err != nil {
			t.Fatalf("writing %s: %v", files[i], err)
		}
	}
	if comment != "" {
		if err := zw.SetComment(comment); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(e.UpdaterDir, "update.zip"), buf.String())
}

// run invokes the updater command line as the application would.
func (e *testEnv) run(t *testing.T, args ...string) int {
	t.Helper()
	return e.runContext(t, context.Background(), args...)
}

func (e *testEnv) runContext(t *testing.T, ctx context.Context, args ...string) int {
	t.Helper()
	e.Stdout.Reset()
	e.Stderr.Reset()
	args = append([]string{"--self", e.Self}, args...)
	return cli.Run(ctx, cli.BuildInfo{Version: "test"}, args, cli.Streams{
		In:  strings.NewReader("\n"),
		Out: &e.Stdout,
		Err: &e.Stderr,
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("expected file %s: %v", path, err)
		return
	}
	if string(data) != want {
		t.Errorf("%s = %q, want %q", path, data, want)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s not to exist", path)
	}
}
