// Package zipstream reads ZIP archives sequentially, one local file header at a
// time, without random access to the central directory. Because a Reader only
// needs an io.Reader, a Reader can be wrapped around an entry of another Reader
// to walk archives stored inside archives.
package zipstream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

// Compression methods understood by Reader.
const (
	Store   uint16 = 0
	Deflate uint16 = 8
)

const (
	localHeaderSig    = 0x04034b50
	dataDescriptorSig = 0x08074b50
	localHeaderLen    = 30

	flagEncrypted      = 0x1
	flagDataDescriptor = 0x8

	zip64ExtraID = 0x0001
	uint32Max    = 0xffffffff

	bufSize = 32 * 1024
)

var (
	ErrFormat    = errors.New("zip: not a valid zip file")
	ErrAlgorithm = errors.New("zip: unsupported compression algorithm")
	ErrChecksum  = errors.New("zip: checksum error")
	ErrEncrypted = errors.New("zip: encrypted entries are not supported")
	ErrClosed    = errors.New("zip: reader closed")
)

// FormatError reports an archive whose structure or payload is invalid, as
// opposed to a failure of the underlying reader.
type FormatError struct {
	Name string // entry name, empty when unknown
	Err  error
}

func (e *FormatError) Error() string {
	if e.Name == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IsFormatError reports whether err was caused by malformed archive content.
func IsFormatError(err error) bool {
	var fe *FormatError
	if errors.As(err, &fe) {
		return true
	}
	var ce flate.CorruptInputError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, ErrFormat) || errors.Is(err, ErrAlgorithm) ||
		errors.Is(err, ErrChecksum) || errors.Is(err, ErrEncrypted)
}

// Header describes one entry as recorded in its local file header. When the
// entry uses a data descriptor, CRC32 and the sizes are filled in once the
// entry data has been read to the end.
type Header struct {
	Name             string
	Method           uint16
	Flags            uint16
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
	Modified         time.Time

	zip64 bool
}

// IsDir reports whether the entry is a directory marker.
func (h *Header) IsDir() bool { return strings.HasSuffix(h.Name, "/") }

func (h *Header) hasDataDescriptor() bool { return h.Flags&flagDataDescriptor != 0 }

// Reader iterates over the entries of a ZIP stream. Next advances to the next
// entry and Read returns the decompressed bytes of the current one.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	src     *countingReader
	hdr     *Header
	data    io.Reader
	raw     io.Reader // undecodable entry, only skippable
	inflate io.ReadCloser
	crc     hash.Hash32
	written uint64
	start   int64
	err     error
	closed  bool
}

// NewReader returns a Reader consuming r. Close releases the Reader's own
// resources and never closes r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		src: &countingReader{r: bufio.NewReaderSize(r, bufSize)},
		crc: crc32.NewIEEE(),
	}
}

// Next skips whatever is left of the current entry and returns the header of
// the next one. It returns io.EOF when the stream holds no further local file
// header, which is also what a stream that is not a ZIP archive at all yields.
func (z *Reader) Next() (*Header, error) {
	if z.closed {
		return nil, ErrClosed
	}
	if z.err != nil {
		return nil, z.err
	}
	if z.hdr != nil {
		if err := z.skipEntry(); err != nil {
			return nil, err
		}
	}
	hdr, err := z.readLocalHeader()
	if err != nil {
		z.err = err
		return nil, err
	}
	z.hdr = hdr
	z.startEntry()
	return hdr, nil
}

// Read reads decompressed data of the current entry. It returns io.EOF at the
// end of the entry, after the checksum and sizes have been verified. An entry
// compressed with a method other than Store or Deflate cannot be read; Read
// reports ErrAlgorithm and Next skips the entry.
func (z *Reader) Read(p []byte) (int, error) {
	if z.closed {
		return 0, ErrClosed
	}
	if z.err != nil {
		return 0, z.err
	}
	if z.raw != nil {
		return 0, &FormatError{Name: z.hdr.Name, Err: fmt.Errorf("%w: method %d", ErrAlgorithm, z.hdr.Method)}
	}
	if z.data == nil {
		return 0, io.EOF
	}
	n, err := z.data.Read(p)
	if n > 0 {
		z.crc.Write(p[:n])
		z.written += uint64(n)
	}
	switch {
	case err == io.EOF:
		z.data = nil
		if ferr := z.finishEntry(); ferr != nil {
			z.err = ferr
			return n, ferr
		}
		return n, io.EOF
	case err != nil:
		z.err = z.wrap(err)
		return n, z.err
	}
	return n, nil
}

// Close releases the decompressor. It is safe to call more than once.
func (z *Reader) Close() error {
	if z.closed {
		return nil
	}
	z.closed = true
	z.hdr, z.data, z.raw = nil, nil, nil
	if z.inflate != nil {
		// the decompressor reports its last read error on Close; that error
		// was already returned from Read
		_ = z.inflate.Close()
		z.inflate = nil
	}
	return nil
}

func (z *Reader) skipEntry() error {
	if z.raw != nil {
		if _, err := io.Copy(io.Discard, z.raw); err != nil {
			z.err = z.wrap(err)
			return z.err
		}
		z.raw = nil
	}
	if z.data != nil {
		if _, err := io.Copy(io.Discard, z); err != nil {
			return err
		}
	}
	z.hdr = nil
	return nil
}

func (z *Reader) readLocalHeader() (*Header, error) {
	var buf [localHeaderLen]byte
	if _, err := io.ReadFull(z.src, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	b := readBuf(buf[:])
	if b.uint32() != localHeaderSig {
		return nil, io.EOF
	}
	b.uint16() // version needed to extract
	h := &Header{}
	h.Flags = b.uint16()
	h.Method = b.uint16()
	modTime := b.uint16()
	modDate := b.uint16()
	h.CRC32 = b.uint32()
	h.CompressedSize = uint64(b.uint32())
	h.UncompressedSize = uint64(b.uint32())
	nameLen := int(b.uint16())
	extraLen := int(b.uint16())
	h.Modified = msDosTimeToTime(modDate, modTime)

	rest := make([]byte, nameLen+extraLen)
	if _, err := io.ReadFull(z.src, rest); err != nil {
		return nil, unexpected(err)
	}
	h.Name = string(rest[:nameLen])
	parseExtra(h, rest[nameLen:])

	if h.Flags&flagEncrypted != 0 {
		return nil, &FormatError{Name: h.Name, Err: ErrEncrypted}
	}
	switch h.Method {
	case Store:
		if h.hasDataDescriptor() {
			return nil, &FormatError{Name: h.Name, Err: fmt.Errorf("%w: only deflated entries can have a data descriptor", ErrFormat)}
		}
	case Deflate:
	default:
		// without sizes in the header the end of the entry cannot be found
		if h.hasDataDescriptor() {
			return nil, &FormatError{Name: h.Name, Err: fmt.Errorf("%w: method %d", ErrAlgorithm, h.Method)}
		}
	}
	return h, nil
}

// parseExtra picks the 64-bit sizes out of a ZIP64 extended information field.
func parseExtra(h *Header, extra []byte) {
	for len(extra) >= 4 {
		b := readBuf(extra)
		id := b.uint16()
		size := int(b.uint16())
		if size > len(b) {
			return
		}
		field := b[:size]
		extra = b[size:]
		if id != zip64ExtraID {
			continue
		}
		h.zip64 = true
		if h.UncompressedSize == uint32Max && len(field) >= 8 {
			h.UncompressedSize = field.uint64()
		}
		if h.CompressedSize == uint32Max && len(field) >= 8 {
			h.CompressedSize = field.uint64()
		}
	}
}

func (z *Reader) startEntry() {
	z.crc.Reset()
	z.written = 0
	z.start = z.src.n
	switch z.hdr.Method {
	case Store:
		z.data = &storedReader{r: z.src, remaining: int64(z.hdr.CompressedSize)}
	case Deflate:
		if z.inflate == nil {
			z.inflate = flate.NewReader(z.src)
		} else {
			_ = z.inflate.(flate.Resetter).Reset(z.src, nil)
		}
		z.data = z.inflate
	default:
		z.data = nil
		z.raw = &storedReader{r: z.src, remaining: int64(z.hdr.CompressedSize)}
	}
}

func (z *Reader) finishEntry() error {
	h := z.hdr
	compressed := uint64(z.src.n - z.start)
	if h.hasDataDescriptor() {
		if err := z.readDataDescriptor(compressed); err != nil {
			return err
		}
	}
	if h.CompressedSize != compressed {
		return &FormatError{Name: h.Name, Err: fmt.Errorf("%w: invalid compressed size (expected %d but got %d bytes)", ErrFormat, h.CompressedSize, compressed)}
	}
	if h.UncompressedSize != z.written {
		return &FormatError{Name: h.Name, Err: fmt.Errorf("%w: invalid entry size (expected %d but got %d bytes)", ErrFormat, h.UncompressedSize, z.written)}
	}
	if sum := z.crc.Sum32(); sum != h.CRC32 {
		return &FormatError{Name: h.Name, Err: fmt.Errorf("%w: expected %08x but got %08x", ErrChecksum, h.CRC32, sum)}
	}
	return nil
}

func (z *Reader) readDataDescriptor(compressed uint64) error {
	h := z.hdr
	var word [4]byte
	if _, err := io.ReadFull(z.src, word[:]); err != nil {
		return z.wrap(unexpected(err))
	}
	// the signature is optional
	crc := binary.LittleEndian.Uint32(word[:])
	if crc == dataDescriptorSig {
		if _, err := io.ReadFull(z.src, word[:]); err != nil {
			return z.wrap(unexpected(err))
		}
		crc = binary.LittleEndian.Uint32(word[:])
	}
	sizeLen := 4
	if h.zip64 || compressed > uint32Max || z.written > uint32Max {
		sizeLen = 8
	}
	sizes := make([]byte, 2*sizeLen)
	if _, err := io.ReadFull(z.src, sizes); err != nil {
		return z.wrap(unexpected(err))
	}
	b := readBuf(sizes)
	h.CRC32 = crc
	if sizeLen == 8 {
		h.CompressedSize = b.uint64()
		h.UncompressedSize = b.uint64()
	} else {
		h.CompressedSize = uint64(b.uint32())
		h.UncompressedSize = uint64(b.uint32())
	}
	return nil
}

func (z *Reader) wrap(err error) error {
	name := ""
	if z.hdr != nil {
		name = z.hdr.Name
	}
	var ce flate.CorruptInputError
	if errors.As(err, &ce) {
		return &FormatError{Name: name, Err: err}
	}
	return fmt.Errorf("zip: reading %s: %w", name, err)
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// countingReader tracks how many compressed bytes were consumed. It exposes
// ReadByte so the decompressor never reads past the end of an entry.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

type storedReader struct {
	r         io.Reader
	remaining int64
}

func (s *storedReader) Read(p []byte) (int, error) {
	if s.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > s.remaining {
		p = p[:s.remaining]
	}
	n, err := s.r.Read(p)
	s.remaining -= int64(n)
	if err == io.EOF {
		if s.remaining > 0 {
			return n, io.ErrUnexpectedEOF
		}
		err = nil
	}
	return n, err
}

type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func (b *readBuf) uint64() uint64 {
	v := binary.LittleEndian.Uint64(*b)
	*b = (*b)[8:]
	return v
}

func msDosTimeToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		int(dosDate>>9+1980),
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f*2),
		0,
		time.UTC,
	)
}
