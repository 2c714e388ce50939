package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image/jpeg"
	"image/png"
	"os"
)

const jpegQuality = 95

// writePNG encodes the canvas and splices tEXt metadata chunks in after the
// IHDR chunk. The standard encoder has no metadata hook, so the chunks are
// assembled by hand.
func writePNG(path string, job Job) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, job.Image); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	out, err := injectPNGText(buf.Bytes(), metaPairs(job.Meta))
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// injectPNGText inserts one tEXt chunk per pair directly after IHDR.
// IHDR is always the first chunk: 8-byte signature, then length(4) +
// type(4) + 13 data bytes + CRC(4).
func injectPNGText(encoded []byte, pairs [][2]string) ([]byte, error) {
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(encoded) < ihdrEnd || string(encoded[12:16]) != "IHDR" {
		return nil, fmt.Errorf("malformed png stream")
	}

	var chunks bytes.Buffer
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		writePNGChunk(&chunks, "tEXt", append(append([]byte(p[0]), 0), []byte(p[1])...))
	}

	out := make([]byte, 0, len(encoded)+chunks.Len())
	out = append(out, encoded[:ihdrEnd]...)
	out = append(out, chunks.Bytes()...)
	out = append(out, encoded[ihdrEnd:]...)
	return out, nil
}

func writePNGChunk(buf *bytes.Buffer, typ string, data []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	buf.Write(length[:])
	buf.WriteString(typ)
	buf.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	buf.Write(sum[:])
}

// writeJPEG encodes the canvas and prepends a COM segment carrying the
// metadata pairs right after the SOI marker.
func writeJPEG(path string, job Job) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, job.Image, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	encoded := buf.Bytes()
	if len(encoded) < 2 || encoded[0] != 0xff || encoded[1] != 0xd8 {
		return fmt.Errorf("malformed jpeg stream")
	}

	var comment bytes.Buffer
	for _, p := range metaPairs(job.Meta) {
		if p[1] == "" {
			continue
		}
		fmt.Fprintf(&comment, "%s=%s\n", p[0], p[1])
	}
	seg := make([]byte, 4+comment.Len())
	seg[0] = 0xff
	seg[1] = 0xfe
	binary.BigEndian.PutUint16(seg[2:4], uint16(2+comment.Len()))
	copy(seg[4:], comment.Bytes())

	out := make([]byte, 0, len(encoded)+len(seg))
	out = append(out, encoded[:2]...)
	out = append(out, seg...)
	out = append(out, encoded[2:]...)
	return os.WriteFile(path, out, 0o644)
}
