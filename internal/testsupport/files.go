package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relocator/internal/location"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// Track describes a TRACK element for WriteCatalog.
type Track struct {
	ID       string
	Location string
}

// OldLocation returns a location under a library root that no longer exists.
func OldLocation(filename string) string {
	return location.Encode("/Volumes/OldDrive/Music", filename)
}

// CatalogXML renders a minimal Rekordbox collection plus a playlist that
// references every track by key.
func CatalogXML(tracks ...Track) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n\n")
	b.WriteString("<DJ_PLAYLISTS Version=\"1.0.0\">\n")
	b.WriteString("  <PRODUCT Name=\"rekordbox\" Version=\"6.7.4\" Company=\"AlphaTheta\"/>\n")
	fmt.Fprintf(&b, "  <COLLECTION Entries=\"%d\">\n", len(tracks))
	for _, tr := range tracks {
		fmt.Fprintf(&b, "    <TRACK TrackID=\"%s\" Name=\"%s\" Location=\"%s\"/>\n", tr.ID, tr.ID, tr.Location)
	}
	b.WriteString("  </COLLECTION>\n  <PLAYLISTS>\n")
	fmt.Fprintf(&b, "    <NODE Name=\"Set\" Type=\"1\" KeyType=\"0\" Entries=\"%d\">\n", len(tracks))
	for _, tr := range tracks {
		fmt.Fprintf(&b, "      <TRACK Key=\"%s\"/>\n", tr.ID)
	}
	b.WriteString("    </NODE>\n  </PLAYLISTS>\n</DJ_PLAYLISTS>\n")
	return b.String()
}

// WriteCatalog writes CatalogXML(tracks...) to dir/rekordbox.xml and returns
// the path.
func WriteCatalog(t testing.TB, dir string, tracks ...Track) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, "rekordbox.xml")
	if err := os.WriteFile(path, []byte(CatalogXML(tracks...)), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}
