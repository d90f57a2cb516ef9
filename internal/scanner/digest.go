package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"sync"

	"github.com/spf13/afero"
)

// Files are read in fixed-size chunks so memory stays flat no matter how
// large the file is.
const chunkSize = 1 << 20

var (
	hashPool = sync.Pool{
		New: func() any {
			return sha256.New()
		},
	}
	bufPool = sync.Pool{
		New: func() any {
			buf := make([]byte, chunkSize)

			return &buf
		},
	}
)

// fileDigest returns the lowercase hex SHA-256 of the file content. It
// returns the empty string when path does not name a readable regular file
// or when reading fails partway; callers treat that as "no digest", never
// as an error.
func fileDigest(fs afero.Fs, path string) string {
	info, err := fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}

	f, err := fs.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := hashPool.Get().(hash.Hash)
	h.Reset()
	defer hashPool.Put(h)

	buf := bufPool.Get().(*[]byte)
	defer bufPool.Put(buf)

	if _, err := io.CopyBuffer(h, f, *buf); err != nil {
		return ""
	}

	return hex.EncodeToString(h.Sum(nil))
}
