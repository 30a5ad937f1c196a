package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/lore/core"
)

// Key prefixes for the record store and its indexes
const (
	contentRecordPrefix = "ctrec"
	contentDatePrefix   = "ctrecd"
	contentURLPrefix    = "ctrecu"
	contentHashPrefix   = "ctrech"
	contentIDSeq        = "ctrecseq"
)

// makeContentRecordKey generates a key for a content record by ID.
func makeContentRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", contentRecordPrefix, id))
}

// makeContentDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeContentDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := contentDatePrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialContentDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialContentDateKey(timestamp time.Time) []byte {
	prefix := contentDatePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeContentURLKey generates a key for the normalized-URL index.
// The caller passes the already-normalized URL.
func makeContentURLKey(normalizedURL string) []byte {
	return []byte(contentURLPrefix + ":" + normalizedURL)
}

// makeContentHashKey generates a key for the content-hash index.
func makeContentHashKey(hash uint64) []byte {
	prefix := contentHashPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], hash)
	return buf
}
