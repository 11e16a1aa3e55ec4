package isp

import (
	"bytes"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
)

// GzipSize is the size content would have on the wire with gzip at best
// compression.
func GzipSize(content []byte) (int, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(content); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

func HumanSize(n int) string {
	return humanize.Bytes(uint64(n))
}
