// pkg/testutil/zip.go
// DEPENDENCIES: None
// PURPOSE: Build zip payloads and fake self-extracting installers in memory

package testutil

import (
	"archive/zip"
	"bytes"
	"io/fs"
	"testing"
)

// ZipEntry describes one entry of a test archive. A zero Mode means a
// regular 0644 file; names ending in "/" become directories.
type ZipEntry struct {
	Name string
	Body string
	Mode fs.FileMode
}

// File is shorthand for a regular ZipEntry
func File(name, body string) ZipEntry {
	return ZipEntry{Name: name, Body: body}
}

// Symlink returns an entry whose mode marks it as a symbolic link to target
func Symlink(name, target string) ZipEntry {
	return ZipEntry{Name: name, Body: target, Mode: fs.ModeSymlink | 0777}
}

// BuildZip returns a zip archive holding entries in the given order
func BuildZip(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		header := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		mode := e.Mode
		if mode == 0 {
			mode = 0644
		}
		if len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/' {
			mode = fs.ModeDir | 0755
		}
		header.SetMode(mode)

		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("zip entry %s: %v", e.Name, err)
		}
		if mode.IsDir() {
			continue
		}
		if _, err := w.Write([]byte(e.Body)); err != nil {
			t.Fatalf("zip entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// InstallerStub is the executable prefix BuildInstaller puts before the
// zip payload. It deliberately has no zip signatures in it.
var InstallerStub = append([]byte("MZ\x90\x00"), bytes.Repeat([]byte{0xCC}, 4092)...)

// BuildInstaller returns bytes shaped like the vendor's self-extracting
// installer: an executable stub followed by a zip payload.
func BuildInstaller(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()
	payload := BuildZip(t, entries...)
	out := make([]byte, 0, len(InstallerStub)+len(payload))
	out = append(out, InstallerStub...)
	return append(out, payload...)
}

// DefaultInstaller is an installer carrying both framework builds
func DefaultInstaller(t testing.TB) []byte {
	t.Helper()
	return BuildInstaller(t,
		File("ReShade64.dll", "reshade-x64-binary"),
		File("ReShade32.dll", "reshade-x86-binary"),
		File("ReShade64.json", `{"file_format_version":"1.0.0"}`),
	)
}
