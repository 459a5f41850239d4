package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

type member struct {
	name    string
	content string
}

// install is a throwaway <root>/Updater layout with an update archive.
type install struct {
	root string
	self string
}

func newInstall(t *testing.T, members ...member) install {
	t.Helper()
	root := filepath.Join(t.TempDir(), "app")
	dir := filepath.Join(root, "Updater")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	self := filepath.Join(dir, "updater")
	if err := os.WriteFile(self, nil, 0755); err != nil {
		t.Fatal(err)
	}
	writeZip(t, filepath.Join(dir, "update.zip"), members...)
	t.Setenv("CHATTERINO_UPDATER_GRACE_PERIOD", "0s")
	return install{root: root, self: self}
}

func writeZip(t *testing.T, path string, members ...member) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		w, err := zw.Create(m.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, m.content); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func (in install) run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append([]string{"--self", in.self}, args...)
	code = Run(context.Background(), BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"}, args,
		Streams{In: strings.NewReader(""), Out: &out, Err: &errOut})
	return code, out.String(), errOut.String()
}

func TestUpdate(t *testing.T) {
	in := newInstall(t, member{"a.txt", "hello"}, member{"Updater/updater", "new"})

	code, _, stderr := in.run(t, "--no-pause")
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	if data, err := os.ReadFile(filepath.Join(in.root, "a.txt")); err != nil || string(data) != "hello" {
		t.Errorf("a.txt = %q, %v", data, err)
	}
	if data, err := os.ReadFile(filepath.Join(in.root, "Updater.new", "updater")); err != nil || string(data) != "new" {
		t.Errorf("Updater.new/updater = %q, %v", data, err)
	}
	if strings.Contains(stderr, "warning:") {
		t.Errorf("unexpected warning without --restart:\n%s", stderr)
	}
}

func TestUpdateTraversalFails(t *testing.T) {
	in := newInstall(t, member{"../evil.txt", "x"})

	code, _, stderr := in.run(t, "--no-pause")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Error: ") {
		t.Errorf("failure not reported:\n%s", stderr)
	}
	if strings.Contains(stderr, "Press any key") {
		t.Error("--no-pause still paused")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(in.root), "evil.txt")); !os.IsNotExist(err) {
		t.Error("file written outside the install root")
	}
}

func TestUpdateIgnoresUnknownFlags(t *testing.T) {
	in := newInstall(t, member{"a.txt", "hello"})

	code, _, stderr := in.run(t, "--no-pause", "--from-the-future", "extra-arg")
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
}

func TestMistypedSubcommandDoesNotUpdate(t *testing.T) {
	in := newInstall(t, member{"a.txt", "hello"})

	code, _, stderr := in.run(t, "lsit")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, `unknown command "lsit"`) {
		t.Errorf("stderr = %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(in.root, "a.txt")); !os.IsNotExist(err) {
		t.Error("update ran for a mistyped subcommand")
	}
}

func TestUpdateRestartAlias(t *testing.T) {
	// No main executable exists, so the relaunch attempt surfaces as a warning.
	for _, flag := range []string{"--restart", "--restart-chatterino"} {
		t.Run(flag, func(t *testing.T) {
			in := newInstall(t, member{"a.txt", "hello"})
			code, _, stderr := in.run(t, "--no-pause", flag)
			if code != 0 {
				t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
			}
			if !strings.Contains(stderr, "warning:") {
				t.Errorf("%s did not attempt a relaunch:\n%s", flag, stderr)
			}
		})
	}
}

func TestUpdateArchiveFromEnv(t *testing.T) {
	in := newInstall(t)
	writeZip(t, filepath.Join(filepath.Dir(in.self), "other.zip"), member{"b.txt", "other"})
	t.Setenv("CHATTERINO_UPDATER_ARCHIVE", "other.zip")

	code, _, stderr := in.run(t, "--no-pause", "--quiet")
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(in.root, "b.txt")); err != nil {
		t.Errorf("archive from environment not used: %v", err)
	}
}

func TestUpdateInvalidSettings(t *testing.T) {
	in := newInstall(t, member{"a.txt", "hello"})
	settings := filepath.Join(filepath.Dir(in.self), "updater.yaml")
	if err := os.WriteFile(settings, []byte("max_attempts: many\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := in.run(t, "--no-pause")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "max_attempts") {
		t.Errorf("issue not reported:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(in.root, "a.txt")); !os.IsNotExist(err) {
		t.Error("update ran with invalid settings")
	}
}

func TestUpdateSkipsOlderArchive(t *testing.T) {
	in := newInstall(t)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("a.txt")
	io.WriteString(w, "hello")
	zw.SetComment("2.0.0")
	zw.Close()
	if err := os.WriteFile(filepath.Join(filepath.Dir(in.self), "update.zip"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := in.run(t, "--no-pause", "--installed-version", "2.0.0")
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stderr, "up to date") {
		t.Errorf("expected up to date message:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(in.root, "a.txt")); !os.IsNotExist(err) {
		t.Error("archive applied although it is not newer")
	}

	code, _, _ = in.run(t, "--no-pause", "--installed-version", "2.0.0", "--force")
	if code != 0 {
		t.Fatalf("forced run exit code %d", code)
	}
	if _, err := os.Stat(filepath.Join(in.root, "a.txt")); err != nil {
		t.Error("--force did not apply the archive")
	}
}

func TestList(t *testing.T) {
	in := newInstall(t, member{"Chatterino.exe", "app"}, member{"Updater/updater.exe", "new"}, member{"layout.xml", "x"})

	code, stdout, stderr := in.run(t, "list")
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	for _, want := range []string{"Updater.new/updater.exe", "preserved", "3 entries"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("list output missing %q:\n%s", want, stdout)
		}
	}
	if _, err := os.Stat(filepath.Join(in.root, "Chatterino.exe")); !os.IsNotExist(err) {
		t.Error("list wrote files")
	}
}

func TestListJSONRejected(t *testing.T) {
	in := newInstall(t, member{"ok.txt", "x"}, member{"../evil.txt", "x"})

	code, stdout, _ := in.run(t, "list", "--json")
	if code != 1 {
		t.Errorf("exit code = %d, want 1 for a rejected entry", code)
	}
	var entries []listEntry
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(entries) != 2 || entries[0].Status != "write" || entries[1].Status != "rejected" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestVersion(t *testing.T) {
	in := newInstall(t)

	_, stdout, _ := in.run(t, "version", "--short")
	if strings.TrimSpace(stdout) != "1.2.3" {
		t.Errorf("version --short = %q", stdout)
	}

	_, stdout, _ = in.run(t, "version", "--json")
	var info map[string]string
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatal(err)
	}
	if info["commit"] != "abc" || info["date"] != "today" {
		t.Errorf("version --json = %v", info)
	}
}

func TestConfigSetGetValidate(t *testing.T) {
	in := newInstall(t)
	dir := t.TempDir()

	if code, _, stderr := in.run(t, "--config-dir", dir, "config", "set", "max_attempts", "5"); code != 0 {
		t.Fatalf("config set failed: %s", stderr)
	}
	if _, stdout, _ := in.run(t, "--config-dir", dir, "config", "get", "max_attempts"); strings.TrimSpace(stdout) != "5" {
		t.Errorf("config get max_attempts = %q", stdout)
	}
	if code, stdout, _ := in.run(t, "--config-dir", dir, "config", "validate"); code != 0 {
		t.Errorf("written settings do not validate:\n%s", stdout)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("unknown_key: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	code, stdout, _ := in.run(t, "config", "validate", bad)
	if code != 1 || !strings.Contains(stdout, "issue") {
		t.Errorf("validate bad file: code %d\n%s", code, stdout)
	}
}

func TestConfigPathFollowsSelf(t *testing.T) {
	in := newInstall(t)

	_, stdout, _ := in.run(t, "config", "path")
	want := filepath.Join(filepath.Dir(in.self), "updater.yaml")
	if strings.TrimSpace(stdout) != want {
		t.Errorf("config path = %q, want %q", stdout, want)
	}
}
