package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	entries := []Entry{
		{Filename: "a.png", Data: []byte("first")},
		{Filename: "b.mp4", Data: []byte("second")},
	}

	blob := Archive(entries)
	reader, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("files = %d, want 2", len(reader.File))
	}

	for i, entry := range entries {
		file := reader.File[i]
		if file.Name != entry.Filename {
			t.Fatalf("file[%d] name = %q, want %q", i, file.Name, entry.Filename)
		}
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("open %s: %v", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", file.Name, err)
		}
		if !bytes.Equal(data, entry.Data) {
			t.Fatalf("file %s data = %q, want %q", file.Name, data, entry.Data)
		}
	}
}

func TestArchiveEmpty(t *testing.T) {
	blob := Archive(nil)
	reader, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != 0 {
		t.Fatalf("files = %d, want 0", len(reader.File))
	}
}
