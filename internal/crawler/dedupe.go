package crawler

import (
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/sha3"
)

// DuplicateDetector is the content hash index of a crawl: it maps the hash
// of every downloaded file to the URL that first produced it.
//
// Two different files with colliding hashes are treated as duplicates;
// no byte-level comparison is made.
type DuplicateDetector struct {
	hashes map[string]string
}

// NewDuplicateDetector creates an empty index.
func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{hashes: make(map[string]string)}
}

// NewHash returns the hash function used for content fingerprints.
func NewHash() hash.Hash {
	return sha3.New256()
}

// HashBytes returns the hex fingerprint of b.
func HashBytes(b []byte) string {
	h := NewHash()
	_, _ = h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the first URL recorded for sum.
func (d *DuplicateDetector) Lookup(sum string) (string, bool) {
	first, ok := d.hashes[sum]
	return first, ok
}

// Record stores sum for url unless it is already known. It returns the URL
// that owns the hash and whether sum was new.
func (d *DuplicateDetector) Record(sum, url string) (string, bool) {
	if first, ok := d.hashes[sum]; ok {
		return first, false
	}
	d.hashes[sum] = url
	return url, true
}

// Count returns the number of distinct hashes recorded.
func (d *DuplicateDetector) Count() int {
	return len(d.hashes)
}
