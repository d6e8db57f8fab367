package maxtree

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc64"
	"io"

	"github.com/zhuyie/golzf"
)

// Snapshot codec (component F): caches a built Tree to a compact binary
// file so repeated runs over the same image skip re-flooding. Framed the
// way the teacher's RDB codec frames a dump — a fixed magic/version/dims
// header, then a payload section, then a trailing checksum — except here
// the payload is always exactly four parallel arrays (parent, area,
// volume, power) rather than an open-ended set of typed objects.
const (
	snapshotMagic   uint32 = 0x4d544f31 // "MTO1"
	snapshotVersion uint8  = 1

	payloadStored     uint8 = 0 // payload stored verbatim, not compressed
	payloadCompressed uint8 = 1 // payload LZF-compressed
)

var crc64Table = crc64.MakeTable(crc64.ISO)

// WriteSnapshot serializes t to w: magic, version, width, height, a
// stored/compressed flag, the uncompressed payload length, the stored body
// length, the body (the possibly compressed payload), and a CRC64 checksum
// of the uncompressed payload.
func WriteSnapshot(w io.Writer, t *Tree) error {
	bw := bufio.NewWriter(w)

	payload := encodePayload(t)

	checksum := crc64.Checksum(payload, crc64Table)

	compressed := make([]byte, len(payload))
	n, err := golzf.Compress(payload, compressed)
	flag := payloadCompressed
	body := compressed[:n]
	if err != nil {
		// Incompressible (or golzf declined); fall back to storing raw,
		// matching the teacher's own "string vs compressed string"
		// RDB encoding choice (diyredis/rdb.go's redisCompressedStr case).
		flag = payloadStored
		body = payload
	}

	if err := binary.Write(bw, binary.LittleEndian, snapshotMagic); err != nil {
		return err
	}
	if err := bw.WriteByte(snapshotVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, t.Image.Width); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, t.Image.Height); err != nil {
		return err
	}
	if err := bw.WriteByte(flag); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(body))); err != nil {
		return err
	}
	if _, err := bw.Write(body); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, checksum); err != nil {
		return err
	}

	return bw.Flush()
}

// ReadSnapshot reconstructs a Tree over img from a stream written by
// WriteSnapshot; the image itself is not stored in the stream, and the
// returned Tree's Connectivity is left zero. img must be the same image the tree was
// originally built from; ReadSnapshot checks only its dimensions, not its
// pixel contents, against the snapshot header.
func ReadSnapshot(r io.Reader, img Image) (*Tree, error) {
	br := bufio.NewReader(r)

	var magic uint32
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("maxtree: bad snapshot magic %#x", magic)
	}

	version, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("maxtree: unsupported snapshot version %d", version)
	}

	var width, height int16
	if err := binary.Read(br, binary.LittleEndian, &width); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &height); err != nil {
		return nil, err
	}
	if width != img.Width || height != img.Height {
		return nil, fmt.Errorf("maxtree: snapshot dims %dx%d do not match image %dx%d", width, height, img.Width, img.Height)
	}

	flag, err := br.ReadByte()
	if err != nil {
		return nil, err
	}

	var payloadLen, bodyLen uint32
	if err := binary.Read(br, binary.LittleEndian, &payloadLen); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &bodyLen); err != nil {
		return nil, err
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(br, body); err != nil {
		return nil, err
	}

	var payload []byte
	switch flag {
	case payloadStored:
		payload = body
	case payloadCompressed:
		payload = make([]byte, payloadLen)
		n, err := golzf.Decompress(body, payload)
		if err != nil {
			return nil, fmt.Errorf("maxtree: decompressing snapshot payload: %w", err)
		}
		payload = payload[:n]
	default:
		return nil, fmt.Errorf("maxtree: unknown snapshot payload flag %d", flag)
	}

	var wantChecksum uint64
	if err := binary.Read(br, binary.LittleEndian, &wantChecksum); err != nil {
		return nil, err
	}
	if got := crc64.Checksum(payload, crc64Table); got != wantChecksum {
		return nil, fmt.Errorf("maxtree: snapshot checksum mismatch: got %#x, want %#x", got, wantChecksum)
	}

	t, err := decodePayload(img, payload)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// encodePayload lays out Nodes and Attrs as four parallel little-endian
// arrays: parent (int32), area (int32), volume (float64), power (float64).
func encodePayload(t *Tree) []byte {
	n := len(t.Nodes)
	buf := make([]byte, n*4+n*4+n*8+n*8)

	off := 0
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[off:], uint32(t.Nodes[i].Parent))
		off += 4
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[off:], uint32(t.Nodes[i].Area))
		off += 4
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(buf[off:], doubleBits(t.Attrs[i].Volume))
		off += 8
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(buf[off:], doubleBits(t.Attrs[i].Power))
		off += 8
	}
	return buf
}

func decodePayload(img Image, payload []byte) (*Tree, error) {
	n := int(img.Size())
	want := n*4 + n*4 + n*8 + n*8
	if len(payload) != want {
		return nil, fmt.Errorf("maxtree: snapshot payload length %d, want %d for %d nodes", len(payload), want, n)
	}

	t := &Tree{
		Image: img,
		Nodes: make([]Node, n),
		Attrs: make([]Attributes, n),
	}

	off := 0
	for i := 0; i < n; i++ {
		t.Nodes[i].Parent = int32(binary.LittleEndian.Uint32(payload[off:]))
		off += 4
	}
	for i := 0; i < n; i++ {
		t.Nodes[i].Area = int32(binary.LittleEndian.Uint32(payload[off:]))
		off += 4
	}
	for i := 0; i < n; i++ {
		t.Attrs[i].Volume = doubleFromBits(binary.LittleEndian.Uint64(payload[off:]))
		off += 8
	}
	for i := 0; i < n; i++ {
		t.Attrs[i].Power = doubleFromBits(binary.LittleEndian.Uint64(payload[off:]))
		off += 8
	}

	for i := range t.Nodes {
		if t.Nodes[i].Parent == NoParent {
			t.Root = int32(i)
			break
		}
	}

	return t, nil
}
