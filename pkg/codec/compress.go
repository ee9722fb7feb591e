package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Compression is the record compression scheme code stored in CPR records.
type Compression int32

const (
	NoCompression    Compression = 0
	RLECompression   Compression = 1
	HuffCompression  Compression = 2 // retired, read rejected
	AHuffCompression Compression = 3 // retired, read rejected
	GzipCompression  Compression = 5
)

func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "No_compression"
	case RLECompression:
		return "RLE"
	case HuffCompression:
		return "Huffman"
	case AHuffCompression:
		return "Adaptive_Huffman"
	case GzipCompression:
		return "GZIP"
	}
	return fmt.Sprintf("COMPRESSION_<%d>", int32(c))
}

// GzipDeflate compresses data into a standard gzip container at the given
// level (0-9).
func GzipDeflate(data []byte, level int) ([]byte, error) {
	if level < gzip.NoCompression || level > gzip.BestCompression {
		return nil, fmt.Errorf("codec: gzip level %d out of range 0-9", level)
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GzipInflate decompresses a gzip container produced by GzipDeflate or any
// standard gzip writer.
func GzipInflate(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	return out, err
}

// RLEDecode expands CDF's zeros run-length scheme: a 0x00 byte is followed
// by a count byte n and expands to n+1 zero bytes; every other byte is
// literal.
func RLEDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b != 0 {
			out = append(out, b)
			continue
		}
		if i+1 >= len(data) {
			return nil, fmt.Errorf("codec: RLE stream truncated at zero marker")
		}
		i++
		run := int(data[i]) + 1
		for j := 0; j < run; j++ {
			out = append(out, 0)
		}
	}
	return out, nil
}

// RLEEncode is the inverse of RLEDecode. Runs longer than 256 zeros are
// split across multiple markers.
func RLEEncode(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] != 0 {
			out = append(out, data[i])
			i++
			continue
		}
		run := 0
		for i < len(data) && data[i] == 0 && run < 256 {
			run++
			i++
		}
		out = append(out, 0, byte(run-1))
	}
	return out
}

// Decompress expands one compressed block under the named scheme.
func Decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case NoCompression:
		return data, nil
	case GzipCompression:
		return GzipInflate(data)
	case RLECompression:
		return RLEDecode(data)
	}
	return nil, fmt.Errorf("codec: unsupported compression scheme %s", c)
}
