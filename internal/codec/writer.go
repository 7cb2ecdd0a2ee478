package codec

import (
	"math"

	"github.com/cockroachdb/errors"
)

// A Writer is a write cursor over a fixed-capacity buffer. Opening a
// container yields a child Writer sharing the same buffer; the parent's
// offset is stale until Close copies the child's cursor back. Writers never
// grow the buffer: a write that does not fit fails with ErrBufferTooSmall
// and leaves the cursor where it was.
type Writer struct {
	buf []byte
	off int

	// declared item count for audit on Close; itemsUnbounded for the root
	// writer and for indefinite-length containers.
	expect int
	count  int
	indef  bool
}

const itemsUnbounded = -1

// NewWriter returns a root Writer over buf. The root is never closed; it
// accepts any number of top-level items.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf, expect: itemsUnbounded}
}

// Used reports the number of bytes written through this cursor.
func (w *Writer) Used() int {
	return w.off
}

func (w *Writer) ensure(n int) error {
	if w.off+n > len(w.buf) {
		return errors.WithStack(ErrBufferTooSmall)
	}
	return nil
}

// writeHead writes the shortest-form head for the given argument.
func (w *Writer) writeHead(major byte, arg uint64) error {
	switch {
	case arg <= addInfoDirect:
		if err := w.ensure(1); err != nil {
			return err
		}
		w.buf[w.off] = makeHead(major, byte(arg))
		w.off++
	case arg <= math.MaxUint8:
		if err := w.ensure(2); err != nil {
			return err
		}
		w.buf[w.off] = makeHead(major, addInfoUint8)
		w.buf[w.off+1] = byte(arg)
		w.off += 2
	case arg <= math.MaxUint16:
		if err := w.ensure(3); err != nil {
			return err
		}
		w.buf[w.off] = makeHead(major, addInfoUint16)
		w.buf[w.off+1] = byte(arg >> 8)
		w.buf[w.off+2] = byte(arg)
		w.off += 3
	case arg <= math.MaxUint32:
		if err := w.ensure(5); err != nil {
			return err
		}
		w.buf[w.off] = makeHead(major, addInfoUint32)
		w.buf[w.off+1] = byte(arg >> 24)
		w.buf[w.off+2] = byte(arg >> 16)
		w.buf[w.off+3] = byte(arg >> 8)
		w.buf[w.off+4] = byte(arg)
		w.off += 5
	default:
		if err := w.ensure(9); err != nil {
			return err
		}
		w.buf[w.off] = makeHead(major, addInfoUint64)
		w.buf[w.off+1] = byte(arg >> 56)
		w.buf[w.off+2] = byte(arg >> 48)
		w.buf[w.off+3] = byte(arg >> 40)
		w.buf[w.off+4] = byte(arg >> 32)
		w.buf[w.off+5] = byte(arg >> 24)
		w.buf[w.off+6] = byte(arg >> 16)
		w.buf[w.off+7] = byte(arg >> 8)
		w.buf[w.off+8] = byte(arg)
		w.off += 9
	}

	return nil
}

func (w *Writer) noteItem() {
	w.count++
}

// WriteUint writes an unsigned integer item.
func (w *Writer) WriteUint(x uint64) error {
	if err := w.writeHead(majorUint, x); err != nil {
		return err
	}
	w.noteItem()
	return nil
}

// WriteInt writes a signed integer item. Non-negative values are encoded as
// unsigned integers, as the format requires.
func (w *Writer) WriteInt(x int64) error {
	var err error
	if x >= 0 {
		err = w.writeHead(majorUint, uint64(x))
	} else {
		err = w.writeHead(majorNegInt, uint64(-1-x))
	}
	if err != nil {
		return err
	}
	w.noteItem()
	return nil
}

// WriteText writes a definite-length text string item.
func (w *Writer) WriteText(s string) error {
	if err := w.ensure(headSize(uint64(len(s))) + len(s)); err != nil {
		return err
	}
	// cannot fail past the ensure above
	_ = w.writeHead(majorText, uint64(len(s)))
	w.off += copy(w.buf[w.off:], s)
	w.noteItem()
	return nil
}

// WriteBytes writes a definite-length byte string item.
func (w *Writer) WriteBytes(p []byte) error {
	if err := w.ensure(headSize(uint64(len(p))) + len(p)); err != nil {
		return err
	}
	_ = w.writeHead(majorBytes, uint64(len(p)))
	w.off += copy(w.buf[w.off:], p)
	w.noteItem()
	return nil
}

// WriteBool writes a boolean item.
func (w *Writer) WriteBool(x bool) error {
	v := byte(simpleFalse)
	if x {
		v = simpleTrue
	}
	if err := w.ensure(1); err != nil {
		return err
	}
	w.buf[w.off] = makeHead(majorSimple, v)
	w.off++
	w.noteItem()
	return nil
}

// WriteNull writes a null item.
func (w *Writer) WriteNull() error {
	return w.writeSimple(simpleNull)
}

// WriteUndefined writes an undefined item.
func (w *Writer) WriteUndefined() error {
	return w.writeSimple(simpleUndefined)
}

func (w *Writer) writeSimple(v byte) error {
	if err := w.ensure(1); err != nil {
		return err
	}
	w.buf[w.off] = makeHead(majorSimple, v)
	w.off++
	w.noteItem()
	return nil
}

// WriteFloat32 writes a single-precision floating point item.
func (w *Writer) WriteFloat32(x float32) error {
	if err := w.ensure(5); err != nil {
		return err
	}
	bits := math.Float32bits(x)
	w.buf[w.off] = makeHead(majorSimple, simpleFloat32)
	w.buf[w.off+1] = byte(bits >> 24)
	w.buf[w.off+2] = byte(bits >> 16)
	w.buf[w.off+3] = byte(bits >> 8)
	w.buf[w.off+4] = byte(bits)
	w.off += 5
	w.noteItem()
	return nil
}

// WriteFloat64 writes a double-precision floating point item.
func (w *Writer) WriteFloat64(x float64) error {
	if err := w.ensure(9); err != nil {
		return err
	}
	bits := math.Float64bits(x)
	w.buf[w.off] = makeHead(majorSimple, simpleFloat64)
	w.buf[w.off+1] = byte(bits >> 56)
	w.buf[w.off+2] = byte(bits >> 48)
	w.buf[w.off+3] = byte(bits >> 40)
	w.buf[w.off+4] = byte(bits >> 32)
	w.buf[w.off+5] = byte(bits >> 24)
	w.buf[w.off+6] = byte(bits >> 16)
	w.buf[w.off+7] = byte(bits >> 8)
	w.buf[w.off+8] = byte(bits)
	w.off += 9
	w.noteItem()
	return nil
}

// OpenArray writes an array head and returns a child Writer positioned
// inside the container. n is the declared element count, or
// IndefiniteLength. The parent must not be written through until the child
// is passed to Close.
func (w *Writer) OpenArray(n int) (*Writer, error) {
	return w.open(majorArray, n, n)
}

// OpenMap writes a map head and returns a child Writer positioned inside
// the container. n is the declared entry count (each entry is a key item
// plus a value item), or IndefiniteLength.
func (w *Writer) OpenMap(n int) (*Writer, error) {
	if n == IndefiniteLength {
		return w.open(majorMap, n, n)
	}
	return w.open(majorMap, n, n*2)
}

func (w *Writer) open(major byte, declared, items int) (*Writer, error) {
	if declared == IndefiniteLength {
		if err := w.ensure(1); err != nil {
			return nil, err
		}
		w.buf[w.off] = makeHead(major, addInfoIndefinite)
		w.off++
		w.noteItem()
		return &Writer{buf: w.buf, off: w.off, expect: itemsUnbounded, indef: true}, nil
	}
	if declared < 0 || items < 0 {
		return nil, errors.Wrapf(ErrMalformed, "negative container size %d", declared)
	}
	if err := w.writeHead(major, uint64(declared)); err != nil {
		return nil, err
	}
	w.noteItem()
	return &Writer{buf: w.buf, off: w.off, expect: items}, nil
}

// Close finalizes a container opened through this Writer: it audits the
// child's item count against the declared size (or writes the break byte
// for an indefinite container) and advances this cursor past the
// container's contents.
func (w *Writer) Close(child *Writer) error {
	if child.indef {
		if child.off+1 > len(child.buf) {
			return errors.WithStack(ErrBufferTooSmall)
		}
		child.buf[child.off] = breakByte
		child.off++
	} else if child.expect != itemsUnbounded {
		switch {
		case child.count < child.expect:
			return errors.Wrapf(ErrTooFewItems, "wrote %d of %d items", child.count, child.expect)
		case child.count > child.expect:
			return errors.Wrapf(ErrTooManyItems, "wrote %d of %d items", child.count, child.expect)
		}
	}

	w.off = child.off
	return nil
}

// headSize returns the encoded size of a shortest-form head for arg.
func headSize(arg uint64) int {
	switch {
	case arg <= addInfoDirect:
		return 1
	case arg <= math.MaxUint8:
		return 2
	case arg <= math.MaxUint16:
		return 3
	case arg <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}
