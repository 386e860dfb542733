package zip

import (
	"archive/zip"
	"bytes"
)

// Entry is one file inside a download-all archive.
type Entry struct {
	Filename string
	Data     []byte
}

// Archive packs the entries into an in-memory zip. Entries that fail to
// write are skipped rather than aborting the archive.
func Archive(entries []Entry) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		w, err := zw.Create(entry.Filename)
		if err != nil {
			continue
		}
		_, _ = w.Write(entry.Data)
	}
	_ = zw.Close()
	return buf.Bytes()
}
