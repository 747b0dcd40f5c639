package search

import (
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressedGrowth estimates how much larger a decompressed stream is than
// its file, for buffer sizing only.
const compressedGrowth = 4

var zstdDecoderPool sync.Pool

func getZstdDecoder(r io.Reader) (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		dec := v.(*zstd.Decoder)
		if err := dec.Reset(r); err != nil {
			return nil, err
		}
		return dec, nil
	}
	return zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
}

func putZstdDecoder(dec *zstd.Decoder) {
	// Drop the reference to the source before pooling.
	if err := dec.Reset(nil); err == nil {
		zstdDecoderPool.Put(dec)
	}
}

// isCompressed reports whether path has an extension handled by decompress.
func isCompressed(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".zst", ".lz4":
		return true
	}
	return false
}

// decompress wraps r in a decoder chosen by path's extension. The returned
// release func must be called once reading is finished. Paths with other
// extensions get r back unchanged.
func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	case ".zst":
		dec, err := getZstdDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, func() { putZstdDecoder(dec) }, nil
	case ".lz4":
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}
