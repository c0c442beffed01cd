package scankit

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/yeka/zip"
)

func createZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ew, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ew.Write([]byte(entries[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func createEncryptedZip(t *testing.T, path, password string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		ew, err := w.Encrypt(name, password, zip.AES256Encryption)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ew.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

type tarEntry struct {
	name     string
	content  string
	linkname string // non-empty makes a symlink
}

func createTar(t *testing.T, path string, entries []tarEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	writeTarEntries(t, f, entries)
}

func createTarGz(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	var list []tarEntry
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		list = append(list, tarEntry{name: name, content: entries[name]})
	}
	writeTarEntries(t, gz, list)
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeTarEntries(t *testing.T, w io.Writer, entries []tarEntry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644}
		if e.linkname != "" {
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.linkname
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.content))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if e.linkname == "" {
			if _, err := tw.Write([]byte(e.content)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

func createGzip(t *testing.T, path, memberName, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	gz.Name = memberName
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

func extractTo(t *testing.T, archive string) (*ExtractionOutcome, error) {
	t.Helper()
	dest := t.TempDir()
	e := &Extractor{}
	return e.Extract(context.Background(), NewArchiveDescriptor(archive, ""), dest)
}

func TestExtractZipRoundTrip(t *testing.T) {
	entries := map[string]string{
		"readme.txt":      "hello",
		"data/points.csv": "1,2,3",
		"data/deep/x.bin": "xyz",
	}
	archive := filepath.Join(t.TempDir(), "Outdoor_01.zip")
	createZip(t, archive, entries)

	out, err := extractTo(t, archive)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if out.FileCount != len(entries) {
		t.Errorf("FileCount = %d, want %d", out.FileCount, len(entries))
	}
	for name, content := range entries {
		data, err := os.ReadFile(filepath.Join(out.Dest, filepath.FromSlash(name)))
		if err != nil {
			t.Errorf("missing extracted file %s: %v", name, err)
			continue
		}
		if string(data) != content {
			t.Errorf("%s content = %q, want %q", name, data, content)
		}
	}
}

func TestExtractRejectsTraversalEntries(t *testing.T) {
	entries := map[string]string{
		"../evil.txt":          "bad",
		"/abs.txt":             "bad",
		"nested/../../up.txt":  "bad",
		"nested/../inside.txt": "bad", // any parent segment is rejected, even one that cleans in-tree
		"ok.txt":               "good",
		"nested/also_ok.json":  "good",
	}
	archive := filepath.Join(t.TempDir(), "traversal.zip")
	createZip(t, archive, entries)

	dest := t.TempDir()
	e := &Extractor{}
	out, err := e.Extract(context.Background(), NewArchiveDescriptor(archive, ""), dest)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if out.Skipped != 4 {
		t.Errorf("Skipped = %d, want 4", out.Skipped)
	}
	if out.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", out.FileCount)
	}

	// Nothing may appear outside the destination directory.
	parent := filepath.Dir(dest)
	for _, escaped := range []string{"evil.txt", "abs.txt", "up.txt"} {
		if _, err := os.Stat(filepath.Join(parent, escaped)); !os.IsNotExist(err) {
			t.Errorf("file %s escaped the destination", escaped)
		}
	}
}

func TestSafeEntryPath(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		want string
	}{
		{"plain.txt", true, "plain.txt"},
		{"dir/file.txt", true, filepath.Join("dir", "file.txt")},
		{"dir/../sibling.txt", false, ""},
		{"../escape.txt", false, ""},
		{"/etc/passwd", false, ""},
		{"..\\win.txt", false, ""},
		{"C:\\Windows\\evil.exe", false, ""},
		{"a/../../b", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		got, ok := safeEntryPath(tt.name)
		if ok != tt.ok {
			t.Errorf("safeEntryPath(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("safeEntryPath(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractTarGzRoundTrip(t *testing.T) {
	entries := map[string]string{"a.txt": "alpha", "sub/b.txt": "beta"}
	archive := filepath.Join(t.TempDir(), "scan.tar.gz")
	createTarGz(t, archive, entries)

	out, err := extractTo(t, archive)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if out.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", out.FileCount)
	}
	data, err := os.ReadFile(filepath.Join(out.Dest, "sub", "b.txt"))
	if err != nil || string(data) != "beta" {
		t.Errorf("sub/b.txt = %q, %v", data, err)
	}
}

func TestExtractTarSkipsSymlinks(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "links.tar")
	createTar(t, archive, []tarEntry{
		{name: "real.txt", content: "data"},
		{name: "link", linkname: "/etc/passwd"},
	})

	out, err := extractTo(t, archive)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if out.FileCount != 1 || out.Skipped != 1 {
		t.Errorf("FileCount/Skipped = %d/%d, want 1/1", out.FileCount, out.Skipped)
	}
}

func TestExtractGzipSingleMember(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "cloud.pcd.gz")
	createGzip(t, archive, "cloud.pcd", "FIELDS x y\nDATA ascii\n1 2\n")

	out, err := extractTo(t, archive)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if out.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", out.FileCount)
	}
	if _, err := os.Stat(filepath.Join(out.Dest, "cloud.pcd")); err != nil {
		t.Errorf("member file missing: %v", err)
	}
}

func TestExtractCorruptArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "broken.zip")
	writeBytes(t, archive, []byte("PK\x03\x04 but nothing like a zip"))

	_, err := extractTo(t, archive)
	if !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("Extract() error = %v, want ErrCorruptArchive", err)
	}
	if !IsFormatError(err) {
		t.Error("IsFormatError() = false for a corrupt archive")
	}
}

// The library reports corruption through unexported error values, so the
// open failure must still land in the corrupt-container class rather
// than the passphrase one that brute force would chase.
func TestExtractCorrupt7z(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"no magic", []byte("this is not a seven zip archive")},
		{"truncated after magic", append([]byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}, 0x00, 0x04)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := filepath.Join(t.TempDir(), "broken.7z")
			writeBytes(t, archive, tt.data)

			_, err := extractTo(t, archive)
			if !errors.Is(err, ErrCorruptArchive) {
				t.Fatalf("Extract() error = %v, want ErrCorruptArchive", err)
			}
			if IsPassphraseError(err) {
				t.Error("corrupt container reported as a passphrase condition")
			}
		})
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "mystery.dat")
	writeBytes(t, archive, []byte("nothing recognizable here"))

	_, err := extractTo(t, archive)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Extract() error = %v, want ErrUnknownFormat", err)
	}
	if !IsFormatError(err) {
		t.Error("IsFormatError() = false for an unknown format")
	}
}

func TestListEntriesZip(t *testing.T) {
	entries := map[string]string{"a.txt": "1", "b/c.txt": "2", "d.pcd": "3"}
	archive := filepath.Join(t.TempDir(), "list.zip")
	createZip(t, archive, entries)

	e := &Extractor{}
	names, err := e.ListEntries(NewArchiveDescriptor(archive, ""))
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(names) != len(entries) {
		t.Errorf("got %d names, want %d: %v", len(names), len(entries), names)
	}
}

func TestEncryptedZipPassphraseHandling(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "secret.zip")
	createEncryptedZip(t, archive, "hunter2", map[string]string{"payload.txt": "classified"})
	e := &Extractor{}

	_, err := e.ListEntries(NewArchiveDescriptor(archive, ""))
	if !errors.Is(err, ErrPassphraseRequired) {
		t.Fatalf("ListEntries without passphrase: error = %v, want ErrPassphraseRequired", err)
	}

	_, err = e.ListEntries(NewArchiveDescriptor(archive, "wrong"))
	if !errors.Is(err, ErrPassphraseRejected) {
		t.Fatalf("ListEntries with wrong passphrase: error = %v, want ErrPassphraseRejected", err)
	}

	names, err := e.ListEntries(NewArchiveDescriptor(archive, "hunter2"))
	if err != nil {
		t.Fatalf("ListEntries with passphrase: error = %v", err)
	}
	if len(names) != 1 || names[0] != "payload.txt" {
		t.Errorf("names = %v", names)
	}

	dest := t.TempDir()
	out, err := e.Extract(context.Background(), NewArchiveDescriptor(archive, "hunter2"), dest)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "payload.txt"))
	if err != nil || string(data) != "classified" {
		t.Errorf("payload = %q, %v (outcome %+v)", data, err, out)
	}
}

func TestFindPassphrase(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "secret.zip")
	createEncryptedZip(t, archive, "correct-horse", map[string]string{"a.txt": "x"})
	e := &Extractor{}
	desc := NewArchiveDescriptor(archive, "")

	found, err := e.FindPassphrase(desc, []string{"guess1", "correct-horse", "guess3"})
	if err != nil {
		t.Fatalf("FindPassphrase() error = %v", err)
	}
	if found != "correct-horse" {
		t.Errorf("found = %q, want correct-horse", found)
	}

	_, err = e.FindPassphrase(desc, []string{"nope", "still nope"})
	if !errors.Is(err, ErrPassphraseNotFound) {
		t.Fatalf("FindPassphrase() error = %v, want ErrPassphraseNotFound", err)
	}
}

func TestFindPassphraseWritesNothing(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "secret.zip")
	createEncryptedZip(t, archive, "pw", map[string]string{"a.txt": "x"})

	e := &Extractor{}
	e.FindPassphrase(NewArchiveDescriptor(archive, ""), []string{"bad1", "bad2"})

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("brute force left files behind: %v", files)
	}
}

func TestExtractCancelled(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "scan.zip")
	createZip(t, archive, map[string]string{"a.txt": "1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &Extractor{}
	_, err := e.Extract(ctx, NewArchiveDescriptor(archive, ""), t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Extract() error = %v, want context.Canceled", err)
	}
}
