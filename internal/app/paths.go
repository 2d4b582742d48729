package app

import "path/filepath"

const (
	statsFile   = "steelers_stats.json"
	metaFile    = "meta.txt"
	rawBlobFile = "raw_blob.txt"
	recordsFile = "records.json"
)

// Paths are the flat files shared between flows.
type Paths struct {
	Stats   string
	Meta    string
	RawBlob string
	Records string
}

// DataPaths returns the file locations under dir.
func DataPaths(dir string) Paths {
	return Paths{
		Stats:   filepath.Join(dir, statsFile),
		Meta:    filepath.Join(dir, metaFile),
		RawBlob: filepath.Join(dir, rawBlobFile),
		Records: filepath.Join(dir, recordsFile),
	}
}
