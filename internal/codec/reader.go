package codec

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/x448/float16"
)

// A Reader is a read cursor over a borrowed buffer. Entering a container
// yields a child Reader sharing the same buffer; the parent's cursor stays
// on the container head until Leave advances it past the whole subtree.
// Typed reads advance the cursor on success and leave it untouched on
// failure.
type Reader struct {
	buf []byte
	off int

	// items left to read at this level; itemsUnbounded for the root reader
	// and for indefinite-length containers, which end at the buffer end or
	// at a break byte respectively.
	remaining int
	indef     bool
}

// NewReader returns a root Reader over buf. The buffer is borrowed for the
// duration of the parse and never written to.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, remaining: itemsUnbounded}
}

// AtEnd reports whether there are no further items at this level.
func (r *Reader) AtEnd() bool {
	if r.indef {
		return r.off >= len(r.buf) || r.buf[r.off] == breakByte
	}
	if r.remaining != itemsUnbounded {
		return r.remaining == 0
	}
	return r.off >= len(r.buf)
}

func (r *Reader) noteItem() {
	if r.remaining > 0 {
		r.remaining--
	}
}

// head decodes the head of the current item, failing when no item remains
// at this level.
func (r *Reader) head() (major, info byte, arg uint64, n int, err error) {
	if r.AtEnd() {
		return 0, 0, 0, 0, errors.Wrap(ErrTruncated, "no more items")
	}
	return readHead(r.buf, r.off)
}

func (r *Reader) typeAt() (major, info byte, ok bool) {
	major, info, _, _, err := r.head()
	if err != nil {
		return 0, 0, false
	}
	return major, info, true
}

// IsUint reports whether the current item is an unsigned integer.
func (r *Reader) IsUint() bool {
	m, _, ok := r.typeAt()
	return ok && m == majorUint
}

// IsInt reports whether the current item is an integer of either sign.
func (r *Reader) IsInt() bool {
	m, _, ok := r.typeAt()
	return ok && (m == majorUint || m == majorNegInt)
}

// IsText reports whether the current item is a text string.
func (r *Reader) IsText() bool {
	m, _, ok := r.typeAt()
	return ok && m == majorText
}

// IsBytes reports whether the current item is a byte string.
func (r *Reader) IsBytes() bool {
	m, _, ok := r.typeAt()
	return ok && m == majorBytes
}

// IsArray reports whether the current item is an array.
func (r *Reader) IsArray() bool {
	m, _, ok := r.typeAt()
	return ok && m == majorArray
}

// IsMap reports whether the current item is a map.
func (r *Reader) IsMap() bool {
	m, _, ok := r.typeAt()
	return ok && m == majorMap
}

// IsContainer reports whether the current item is an array or a map.
func (r *Reader) IsContainer() bool {
	m, _, ok := r.typeAt()
	return ok && (m == majorArray || m == majorMap)
}

// IsBool reports whether the current item is a boolean.
func (r *Reader) IsBool() bool {
	m, info, ok := r.typeAt()
	return ok && m == majorSimple && (info == simpleFalse || info == simpleTrue)
}

// IsNull reports whether the current item is null.
func (r *Reader) IsNull() bool {
	m, info, ok := r.typeAt()
	return ok && m == majorSimple && info == simpleNull
}

// IsUndefined reports whether the current item is undefined.
func (r *Reader) IsUndefined() bool {
	m, info, ok := r.typeAt()
	return ok && m == majorSimple && info == simpleUndefined
}

// IsFloat reports whether the current item is a half or single precision
// float. Half precision widens losslessly to float32 on read.
func (r *Reader) IsFloat() bool {
	m, info, ok := r.typeAt()
	return ok && m == majorSimple && (info == simpleFloat16 || info == simpleFloat32)
}

// IsDouble reports whether the current item is a double precision float.
func (r *Reader) IsDouble() bool {
	m, info, ok := r.typeAt()
	return ok && m == majorSimple && info == simpleFloat64
}

// Uint reads an unsigned integer item and advances.
func (r *Reader) Uint() (uint64, error) {
	major, _, arg, n, err := r.head()
	if err != nil {
		return 0, err
	}
	if major != majorUint {
		return 0, errors.WithStack(ErrUnexpectedType)
	}
	r.off += n
	r.noteItem()
	return arg, nil
}

// Int reads an integer item of either sign and advances.
func (r *Reader) Int() (int64, error) {
	major, _, arg, n, err := r.head()
	if err != nil {
		return 0, err
	}

	var x int64
	switch major {
	case majorUint:
		if arg > math.MaxInt64 {
			return 0, errors.WithStack(ErrOverflow)
		}
		x = int64(arg)
	case majorNegInt:
		if arg > math.MaxInt64 {
			return 0, errors.WithStack(ErrOverflow)
		}
		x = -1 - int64(arg)
	default:
		return 0, errors.WithStack(ErrUnexpectedType)
	}

	r.off += n
	r.noteItem()
	return x, nil
}

// TextLength returns the declared byte length of the current text string
// without advancing.
func (r *Reader) TextLength() (int, error) {
	return r.stringLength(majorText)
}

// BytesLength returns the declared length of the current byte string
// without advancing.
func (r *Reader) BytesLength() (int, error) {
	return r.stringLength(majorBytes)
}

func (r *Reader) stringLength(want byte) (int, error) {
	major, info, arg, _, err := r.head()
	if err != nil {
		return 0, err
	}
	if major != want {
		return 0, errors.WithStack(ErrUnexpectedType)
	}
	if info == addInfoIndefinite {
		return 0, errors.WithStack(ErrLengthUnknown)
	}
	return int(arg), nil
}

// Text reads a definite-length text string item and advances.
func (r *Reader) Text() (string, error) {
	p, err := r.readString(majorText)
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// Bytes reads a definite-length byte string item and advances. The result
// is a copy; it does not alias the input buffer.
func (r *Reader) Bytes() ([]byte, error) {
	p, err := r.readString(majorBytes)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), p...), nil
}

func (r *Reader) readString(want byte) ([]byte, error) {
	major, info, arg, n, err := r.head()
	if err != nil {
		return nil, err
	}
	if major != want {
		return nil, errors.WithStack(ErrUnexpectedType)
	}
	if info == addInfoIndefinite {
		return nil, errors.WithStack(ErrLengthUnknown)
	}
	end := r.off + n + int(arg)
	if int(arg) < 0 || end > len(r.buf) {
		return nil, errors.WithStack(ErrTruncated)
	}
	p := r.buf[r.off+n : end]
	r.off = end
	r.noteItem()
	return p, nil
}

// Bool reads a boolean item and advances.
func (r *Reader) Bool() (bool, error) {
	major, info, _, n, err := r.head()
	if err != nil {
		return false, err
	}
	if major != majorSimple || (info != simpleFalse && info != simpleTrue) {
		return false, errors.WithStack(ErrUnexpectedType)
	}
	r.off += n
	r.noteItem()
	return info == simpleTrue, nil
}

// Float32 reads a half or single precision float item and advances.
func (r *Reader) Float32() (float32, error) {
	major, info, arg, n, err := r.head()
	if err != nil {
		return 0, err
	}
	if major != majorSimple {
		return 0, errors.WithStack(ErrUnexpectedType)
	}

	var x float32
	switch info {
	case simpleFloat16:
		x = float16.Frombits(uint16(arg)).Float32()
	case simpleFloat32:
		x = math.Float32frombits(uint32(arg))
	default:
		return 0, errors.WithStack(ErrUnexpectedType)
	}

	r.off += n
	r.noteItem()
	return x, nil
}

// Float64 reads a double precision float item and advances.
func (r *Reader) Float64() (float64, error) {
	major, info, arg, n, err := r.head()
	if err != nil {
		return 0, err
	}
	if major != majorSimple || info != simpleFloat64 {
		return 0, errors.WithStack(ErrUnexpectedType)
	}
	r.off += n
	r.noteItem()
	return math.Float64frombits(arg), nil
}

// ArrayLength returns the declared element count of the current array
// without advancing.
func (r *Reader) ArrayLength() (int, error) {
	return r.containerLength(majorArray)
}

// MapLength returns the declared entry count of the current map without
// advancing.
func (r *Reader) MapLength() (int, error) {
	return r.containerLength(majorMap)
}

func (r *Reader) containerLength(want byte) (int, error) {
	major, info, arg, _, err := r.head()
	if err != nil {
		return 0, err
	}
	if major != want {
		return 0, errors.WithStack(ErrUnexpectedType)
	}
	if info == addInfoIndefinite {
		return 0, errors.WithStack(ErrLengthUnknown)
	}
	if arg > math.MaxInt32 {
		return 0, errors.WithStack(ErrOverflow)
	}
	return int(arg), nil
}

// Enter returns a child Reader positioned at the first item inside the
// container at the cursor. The parent cursor stays on the container head
// until the child is passed to Leave.
func (r *Reader) Enter() (*Reader, error) {
	major, info, arg, n, err := r.head()
	if err != nil {
		return nil, err
	}
	if major != majorArray && major != majorMap {
		return nil, errors.WithStack(ErrNotContainer)
	}

	child := &Reader{buf: r.buf, off: r.off + n}
	if info == addInfoIndefinite {
		child.remaining = itemsUnbounded
		child.indef = true
		return child, nil
	}

	if arg > math.MaxInt32 {
		return nil, errors.WithStack(ErrOverflow)
	}
	items := int(arg)
	if major == majorMap {
		items *= 2
	}
	child.remaining = items
	return child, nil
}

// Leave finalizes a child Reader produced by Enter, draining any items the
// child did not consume, and advances this cursor past the entire
// container.
func (r *Reader) Leave(child *Reader) error {
	for !child.AtEnd() {
		if err := child.Skip(); err != nil {
			return err
		}
	}
	if child.indef {
		if child.off >= len(child.buf) {
			return errors.WithStack(ErrTruncated)
		}
		// consume the break
		child.off++
	}

	r.off = child.off
	r.noteItem()
	return nil
}

// Skip advances past the current item, including the full subtree of a
// container.
func (r *Reader) Skip() error {
	if r.AtEnd() {
		return errors.Wrap(ErrTruncated, "no more items")
	}
	end, err := skipItem(r.buf, r.off, 0)
	if err != nil {
		return err
	}
	r.off = end
	r.noteItem()
	return nil
}
