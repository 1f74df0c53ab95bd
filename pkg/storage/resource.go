package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	kbinary "github.com/kelindar/binary"
)

var (
	ErrChecksumMismatch   = errors.New("resource checksum mismatch")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrInvalidHeader      = errors.New("invalid resource header")
	ErrUnsupportedVersion = errors.New("unsupported resource format version")
)

// Header prefixes every stored resource.
type Header struct {
	Magic    [4]byte
	Version  uint32
	Checksum uint32
}

func NewHeader(checksum uint32) Header {
	return Header{Magic: resourceMagic, Version: FORMAT_VERSION, Checksum: checksum}
}

func (h Header) put(b []byte) {
	copy(b[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.Checksum)
}

// ReadHeader parses the header of a stored resource without touching the body.
func ReadHeader(raw []byte) (Header, error) {
	if len(raw) < HEADER_SIZE {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(raw))
	}
	var h Header
	copy(h.Magic[:], raw[0:4])
	h.Version = binary.LittleEndian.Uint32(raw[4:8])
	h.Checksum = binary.LittleEndian.Uint32(raw[8:12])

	if h.Magic != resourceMagic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, h.Magic[:])
	}
	if h.Version != FORMAT_VERSION {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return h, nil
}

// EncodeBody serializes v without header or compression.
func EncodeBody(v any) ([]byte, error) {
	return kbinary.Marshal(v)
}

// EncodeResource produces header + compressed body. The body is the already
// serialized form returned by EncodeBody.
func EncodeResource(checksum uint32, body []byte) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, HEADER_SIZE, HEADER_SIZE+len(body)/2))
	NewHeader(checksum).put(out.Bytes()[:HEADER_SIZE])

	if err := CompressData(body, out); err != nil {
		return nil, fmt.Errorf("compress resource body: %w", err)
	}
	return out.Bytes(), nil
}

// OpenResource verifies the header and returns the decompressed body.
func OpenResource(raw []byte) (Header, []byte, error) {
	h, err := ReadHeader(raw)
	if err != nil {
		return Header{}, nil, err
	}

	body := new(bytes.Buffer)
	if err := DecompressData(raw[HEADER_SIZE:], body); err != nil {
		return Header{}, nil, fmt.Errorf("decompress resource body: %w", err)
	}
	return h, body.Bytes(), nil
}

// DecodeBody unmarshals a body produced by EncodeBody.
func DecodeBody(body []byte, v any) error {
	if err := kbinary.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode resource body: %w", err)
	}
	return nil
}

// DecodeResource verifies the header and unmarshals the body into v.
func DecodeResource(raw []byte, v any) (Header, error) {
	h, body, err := OpenResource(raw)
	if err != nil {
		return Header{}, err
	}
	return h, DecodeBody(body, v)
}

// ResourceReader returns the stored bytes of a resource.
type ResourceReader interface {
	ReadResource(name ResourceName) ([]byte, error)
}

type ResourceWriter interface {
	WriteResource(name ResourceName, raw []byte) error
}

type ResourceStore interface {
	ResourceReader
	ResourceWriter
}
