package cbor

import (
	"github.com/cockroachdb/errors"

	"github.com/peters-r/TinyCBorWrapper/internal/codec"
)

// decodeState is shared by every context derived from one input buffer: the
// first failure, latched for the whole session, and the single context
// currently allowed to advance the cursor.
type decodeState struct {
	err    error
	active *Decoder
}

// A Decoder is a read context over a borrowed input buffer. Like the encode
// side, operations return a context for flat chaining and the first failure
// latches for the session.
//
// Enter returns a child context positioned at the first item inside the
// container at the cursor. While the child is active the parent must not be
// used; Leave (or Close) advances the parent past the whole container,
// whether or not every item inside was consumed.
type Decoder struct {
	st     *decodeState
	r      *codec.Reader
	parent *Decoder // nil for the root context
	done   bool
	dead   bool
}

// Err returns the first failure of the session, if any.
func (d *Decoder) Err() error {
	return d.st.err
}

func (d *Decoder) fail(err error) {
	if d.st.err == nil {
		d.st.err = err
	}
}

func (d *Decoder) usable() bool {
	if d.st.err != nil {
		return false
	}
	if d.st.active != d {
		d.fail(decodeError(ContextMisuse, errors.New("context is suspended or finalized")))
		return false
	}
	return true
}

// check is the form of usable used by operations that report their error
// directly in addition to latching it.
func (d *Decoder) check() error {
	if !d.usable() {
		return d.st.err
	}
	return nil
}

// fromCodec maps a low-level read failure onto the decode taxonomy.
func fromCodec(err error) *DecodeError {
	switch {
	case errors.Is(err, codec.ErrLengthUnknown):
		return decodeError(LengthUnknown, err)
	case errors.Is(err, codec.ErrUnexpectedType):
		return decodeError(TypeMismatch, err)
	case errors.Is(err, codec.ErrNotContainer):
		return decodeError(NotAContainer, err)
	default:
		return decodeError(CodecRejected, err)
	}
}

// Extract validates that the item at the cursor matches ref's kind, reads
// it, writes it through to the bound field and advances. On a kind mismatch
// the cursor does not move.
func (d *Decoder) Extract(ref Ref) *Decoder {
	if !d.usable() {
		return d
	}

	var v Value
	var err error
	switch ref.kind {
	case KindUint:
		if !d.r.IsUint() {
			d.failMismatch(ref.kind)
			return d
		}
		v.u, err = d.r.Uint()
	case KindInt:
		if !d.r.IsInt() {
			d.failMismatch(ref.kind)
			return d
		}
		v.i, err = d.r.Int()
	case KindText:
		if !d.r.IsText() {
			d.failMismatch(ref.kind)
			return d
		}
		v.s, err = d.r.Text()
	case KindBytes:
		if !d.r.IsBytes() {
			d.failMismatch(ref.kind)
			return d
		}
		v.p, err = d.r.Bytes()
	case KindBool:
		if !d.r.IsBool() {
			d.failMismatch(ref.kind)
			return d
		}
		v.t, err = d.r.Bool()
	case KindFloat:
		if !d.r.IsFloat() {
			d.failMismatch(ref.kind)
			return d
		}
		var f float32
		f, err = d.r.Float32()
		v.f = float64(f)
	case KindDouble:
		if !d.r.IsDouble() {
			d.failMismatch(ref.kind)
			return d
		}
		v.f, err = d.r.Float64()
	default:
		d.fail(decodeError(ContextMisuse, errors.Newf("cannot extract into %s wrapper", ref.kind)))
		return d
	}

	if err != nil {
		d.fail(fromCodec(err))
		return d
	}

	v.kind = ref.kind
	ref.set(v)
	return d
}

func (d *Decoder) failMismatch(want Kind) {
	d.fail(decodeError(TypeMismatch, errors.Newf("expected %s, found %s", want, d.peekKind())))
}

// peekKind describes the item at the cursor for error messages.
func (d *Decoder) peekKind() string {
	switch {
	case d.r.IsUint():
		return KindUint.String()
	case d.r.IsInt():
		return KindInt.String()
	case d.r.IsText():
		return KindText.String()
	case d.r.IsBytes():
		return KindBytes.String()
	case d.r.IsArray():
		return "array"
	case d.r.IsMap():
		return "map"
	case d.r.IsBool():
		return KindBool.String()
	case d.r.IsFloat():
		return KindFloat.String()
	case d.r.IsDouble():
		return KindDouble.String()
	case d.r.IsNull():
		return KindNull.String()
	case d.r.IsUndefined():
		return KindUndefined.String()
	}
	return "unknown"
}

// Skip advances past the current item without interpreting it, container
// subtrees included.
func (d *Decoder) Skip() *Decoder {
	if !d.usable() {
		return d
	}
	if err := d.r.Skip(); err != nil {
		d.fail(fromCodec(err))
	}
	return d
}

// Enter requires the cursor to be at a container and returns the child
// context positioned at its first item.
func (d *Decoder) Enter() *Decoder {
	child := &Decoder{st: d.st, parent: d, dead: true}
	if !d.usable() {
		return child
	}

	if !d.r.IsContainer() {
		d.fail(decodeError(NotAContainer, errors.Newf("expected a container, found %s", d.peekKind())))
	} else {
		r, err := d.r.Enter()
		if err != nil {
			d.fail(fromCodec(err))
		} else {
			child.r = r
			child.dead = false
		}
	}

	// Keep the caller's matching Leave paired with this Enter even on
	// failure.
	d.st.active = child
	return child
}

// Leave finalizes this context and returns the parent, whose cursor is
// advanced past the entire container regardless of how many items were
// consumed inside. On the root context Leave is a no-op returning the same
// context. A second Leave on an already finalized context has no further
// effect.
func (d *Decoder) Leave() *Decoder {
	if d.parent == nil {
		return d
	}
	d.finalize()
	return d.parent
}

// Close finalizes this context if it is still open, first unwinding any
// deeper contexts. Idempotent and safe under defer. The session error, if
// any, is returned.
func (d *Decoder) Close() error {
	if d.parent != nil {
		d.finalize()
	}
	return d.st.err
}

func (d *Decoder) finalize() {
	if d.done {
		return
	}
	d.done = true

	for a := d.st.active; a != nil && a != d; a = d.st.active {
		if !a.descendantOf(d) {
			break
		}
		a.finalize()
	}

	if !d.dead {
		if err := d.parent.r.Leave(d.r); err != nil {
			d.fail(fromCodec(err))
		}
	}

	if d.st.active == d {
		d.st.active = d.parent
	}
}

func (d *Decoder) descendantOf(anc *Decoder) bool {
	for p := d.parent; p != nil; p = p.parent {
		if p == anc {
			return true
		}
	}
	return false
}

// AtEnd reports whether no further items remain at this context's level.
func (d *Decoder) AtEnd() bool {
	if d.dead {
		return true
	}
	return d.r.AtEnd()
}

// IsMap reports whether the current item is a map.
func (d *Decoder) IsMap() bool { return d.is((*codec.Reader).IsMap) }

// IsArray reports whether the current item is an array.
func (d *Decoder) IsArray() bool { return d.is((*codec.Reader).IsArray) }

// IsContainer reports whether the current item is an array or a map.
func (d *Decoder) IsContainer() bool { return d.is((*codec.Reader).IsContainer) }

// IsText reports whether the current item is a text string.
func (d *Decoder) IsText() bool { return d.is((*codec.Reader).IsText) }

// IsBytes reports whether the current item is a byte string.
func (d *Decoder) IsBytes() bool { return d.is((*codec.Reader).IsBytes) }

// IsUint reports whether the current item is an unsigned integer.
func (d *Decoder) IsUint() bool { return d.is((*codec.Reader).IsUint) }

// IsInt reports whether the current item is an integer of either sign.
func (d *Decoder) IsInt() bool { return d.is((*codec.Reader).IsInt) }

// IsBool reports whether the current item is a boolean.
func (d *Decoder) IsBool() bool { return d.is((*codec.Reader).IsBool) }

// IsFloat reports whether the current item is a half or single precision
// float.
func (d *Decoder) IsFloat() bool { return d.is((*codec.Reader).IsFloat) }

// IsDouble reports whether the current item is a double precision float.
func (d *Decoder) IsDouble() bool { return d.is((*codec.Reader).IsDouble) }

// IsNull reports whether the current item is null.
func (d *Decoder) IsNull() bool { return d.is((*codec.Reader).IsNull) }

// IsUndefined reports whether the current item is undefined.
func (d *Decoder) IsUndefined() bool { return d.is((*codec.Reader).IsUndefined) }

func (d *Decoder) is(pred func(*codec.Reader) bool) bool {
	if d.st.err != nil || d.dead {
		return false
	}
	return pred(d.r)
}

// ArrayLength returns the declared element count of the array at the
// cursor. It fails with LengthUnknown for an indefinite-length array.
func (d *Decoder) ArrayLength() (int, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	n, err := d.r.ArrayLength()
	if err != nil {
		return 0, fromCodec(err)
	}
	return n, nil
}

// MapLength returns the declared entry count of the map at the cursor. It
// fails with LengthUnknown for an indefinite-length map.
func (d *Decoder) MapLength() (int, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	n, err := d.r.MapLength()
	if err != nil {
		return 0, fromCodec(err)
	}
	return n, nil
}

// Uint reads the unsigned integer at the cursor and advances.
func (d *Decoder) Uint() (uint64, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	x, err := d.r.Uint()
	if err != nil {
		e := fromCodec(err)
		d.fail(e)
		return 0, e
	}
	return x, nil
}

// Int reads the integer at the cursor, of either sign, and advances.
func (d *Decoder) Int() (int64, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	x, err := d.r.Int()
	if err != nil {
		e := fromCodec(err)
		d.fail(e)
		return 0, e
	}
	return x, nil
}

// Text reads the text string at the cursor and advances.
func (d *Decoder) Text() (string, error) {
	if err := d.check(); err != nil {
		return "", err
	}
	s, err := d.r.Text()
	if err != nil {
		e := fromCodec(err)
		d.fail(e)
		return "", e
	}
	return s, nil
}

// Bytes reads the byte string at the cursor and advances. The result does
// not alias the input buffer.
func (d *Decoder) Bytes() ([]byte, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	p, err := d.r.Bytes()
	if err != nil {
		e := fromCodec(err)
		d.fail(e)
		return nil, e
	}
	return p, nil
}

// Bool reads the boolean at the cursor and advances.
func (d *Decoder) Bool() (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	x, err := d.r.Bool()
	if err != nil {
		e := fromCodec(err)
		d.fail(e)
		return false, e
	}
	return x, nil
}

// Float reads the half or single precision float at the cursor and
// advances.
func (d *Decoder) Float() (float32, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	x, err := d.r.Float32()
	if err != nil {
		e := fromCodec(err)
		d.fail(e)
		return 0, e
	}
	return x, nil
}

// Double reads the double precision float at the cursor and advances.
func (d *Decoder) Double() (float64, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	x, err := d.r.Float64()
	if err != nil {
		e := fromCodec(err)
		d.fail(e)
		return 0, e
	}
	return x, nil
}

// A DecoderBuffer borrows the caller's encoded bytes for the duration of
// the parse and holds the root decode context over them.
type DecoderBuffer struct {
	Decoder
}

// NewDecoderBuffer returns the root context over buf. buf is borrowed, not
// copied; it must not change until decoding is finished.
func NewDecoderBuffer(buf []byte) *DecoderBuffer {
	b := &DecoderBuffer{}
	b.Decoder.st = &decodeState{active: &b.Decoder}
	b.Decoder.r = codec.NewReader(buf)
	return b
}

// Finish reports the terminal state of the decode: the session error if any
// operation failed, or ContextMisuse if nested contexts are still open.
func (b *DecoderBuffer) Finish() error {
	if b.st.err == nil && b.st.active != &b.Decoder {
		b.fail(decodeError(ContextMisuse, errors.New("open containers remain")))
	}
	return b.st.err
}
