// Package codec expands compressed packet bodies.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Kind identifies the compression applied to a packet body.
type Kind uint8

// Compression kinds. The values match the on-disk record header.
const (
	None Kind = 0
	LZ4  Kind = 1
	Zstd Kind = 2
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Decompressor expands packet bodies.
//
// uncompressedSize is the expanded size the container declared for the body,
// negative if undeclared. Implementations must be safe for concurrent use.
type Decompressor interface {
	Decompress(kind Kind, src []byte, uncompressedSize int) ([]byte, error)
}

// Decompress errors.
var (
	ErrUnknownKind  = errors.New("unknown compression kind")
	ErrSizeMismatch = errors.New("uncompressed size mismatch")
)

// DecompressError is a failure inside an underlying compression codec.
type DecompressError struct {
	Kind Kind
	Err  error
}

func (e DecompressError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e DecompressError) Unwrap() error { return e.Err }

// Func expands src and returns the full expansion.
// sizeHint is the expected expanded size, negative when unknown.
type Func func(src []byte, sizeHint int) ([]byte, error)

// Registry maps compression kinds to codec functions.
type Registry struct {
	mu     sync.RWMutex
	codecs map[Kind]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[Kind]Func)}
}

// Register adds or replaces the codec for kind.
func (r *Registry) Register(kind Kind, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[kind] = fn
}

// Decompress implements Decompressor.
//
// The returned slice may alias src when kind is None.
func (r *Registry) Decompress(kind Kind, src []byte, uncompressedSize int) ([]byte, error) {
	r.mu.RLock()
	fn, exist := r.codecs[kind]
	r.mu.RUnlock()
	if !exist {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	out, err := fn(src, uncompressedSize)
	if err != nil {
		return nil, DecompressError{Kind: kind, Err: err}
	}
	if uncompressedSize >= 0 && len(out) != uncompressedSize {
		return nil, fmt.Errorf("%w: declared %d got %d",
			ErrSizeMismatch, uncompressedSize, len(out))
	}
	return out, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry with the built-in codecs.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.Register(None, decodeNone)
		defaultRegistry.Register(LZ4, decodeLZ4)
		defaultRegistry.Register(Zstd, decodeZstd)
	})
	return defaultRegistry
}

func decodeNone(src []byte, _ int) ([]byte, error) {
	return src, nil
}

// LZ4 bodies use the frame format, not raw blocks.
func decodeLZ4(src []byte, sizeHint int) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(src))

	var buf bytes.Buffer
	if sizeHint > 0 {
		buf.Grow(sizeHint)
	}
	if _, err := buf.ReadFrom(zr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	zstdOnce    sync.Once
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func decodeZstd(src []byte, sizeHint int) ([]byte, error) {
	// A single stateless decoder is shared, DecodeAll is concurrency-safe.
	zstdOnce.Do(func() {
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	if zstdErr != nil {
		return nil, zstdErr
	}

	var dst []byte
	if sizeHint > 0 {
		dst = make([]byte, 0, sizeHint)
	}
	return zstdDecoder.DecodeAll(src, dst)
}
