package cbor

import (
	"github.com/cockroachdb/errors"

	"github.com/peters-r/TinyCBorWrapper/internal/codec"
)

// IndefiniteLength requests an indefinite-length container from BeginArray
// or BeginMap.
const IndefiniteLength = codec.IndefiniteLength

// encodeState is shared by every context derived from one buffer: the first
// failure, latched for the whole session, and the single context currently
// allowed to write.
type encodeState struct {
	err    error
	active *Encoder
}

// An Encoder is a write context over a shared output buffer. Operations
// return a context so record routines compose as flat call chains; after
// the first failure every later operation is a no-op and the session error
// is reported by Err or by the buffer owner.
//
// BeginArray and BeginMap return a child context scoped to the container.
// While the child is active the parent must not be used; the child hands
// control back through End (or Close), which finalizes the container
// exactly once.
type Encoder struct {
	st     *encodeState
	w      *codec.Writer
	parent *Encoder // nil for the root context
	done   bool     // container already finalized
	dead   bool     // no codec state behind this context; close is a no-op
}

// Err returns the first failure of the session, if any.
func (e *Encoder) Err() error {
	return e.st.err
}

func (e *Encoder) fail(err error) {
	if e.st.err == nil {
		e.st.err = err
	}
}

// usable reports whether e may perform an operation now. Using a suspended
// parent or a finalized context is a protocol violation and latches a
// ContextMisuse error.
func (e *Encoder) usable() bool {
	if e.st.err != nil {
		return false
	}
	if e.st.active != e {
		e.fail(encodeError(ContextMisuse, errors.New("context is suspended or finalized")))
		return false
	}
	return true
}

// Append writes one scalar item.
func (e *Encoder) Append(v Value) *Encoder {
	if !e.usable() {
		return e
	}

	var err error
	switch v.kind {
	case KindUint:
		err = e.w.WriteUint(v.u)
	case KindInt:
		err = e.w.WriteInt(v.i)
	case KindText:
		err = e.w.WriteText(v.s)
	case KindBytes:
		err = e.w.WriteBytes(v.p)
	case KindBool:
		err = e.w.WriteBool(v.t)
	case KindFloat:
		err = e.w.WriteFloat32(float32(v.f))
	case KindDouble:
		err = e.w.WriteFloat64(v.f)
	case KindNull:
		err = e.w.WriteNull()
	case KindUndefined:
		err = e.w.WriteUndefined()
	default:
		e.fail(encodeError(CodecRejected, errors.Newf("cannot append %s value", v.kind)))
		return e
	}

	if err != nil {
		e.fail(encodeError(CodecRejected, err))
	}
	return e
}

// AppendNull writes a null item.
func (e *Encoder) AppendNull() *Encoder {
	return e.Append(Null())
}

// AppendUndefined writes an undefined item.
func (e *Encoder) AppendUndefined() *Encoder {
	return e.Append(Undefined())
}

// BeginArray opens an array of n elements (or IndefiniteLength) and returns
// the child context scoped to it.
func (e *Encoder) BeginArray(n int) *Encoder {
	return e.begin(false, n)
}

// BeginMap opens a map of n entries (or IndefiniteLength) and returns the
// child context scoped to it.
func (e *Encoder) BeginMap(n int) *Encoder {
	return e.begin(true, n)
}

func (e *Encoder) begin(isMap bool, n int) *Encoder {
	child := &Encoder{st: e.st, parent: e, dead: true}
	if !e.usable() {
		return child
	}

	var w *codec.Writer
	var err error
	if isMap {
		w, err = e.w.OpenMap(n)
	} else {
		w, err = e.w.OpenArray(n)
	}
	if err != nil {
		e.fail(encodeError(CodecRejected, err))
	} else {
		child.w = w
		child.dead = false
	}

	// The child becomes active even when the open failed, so that the
	// caller's matching End still pairs with this Begin.
	e.st.active = child
	return child
}

// End finalizes this context's container and returns the parent context. On
// the root context End is a no-op returning the same context, so a record
// routine can end with a uniform End regardless of nesting. A second End on
// an already finalized context has no further effect.
func (e *Encoder) End() *Encoder {
	if e.parent == nil {
		return e
	}
	e.finalize()
	return e.parent
}

// Close finalizes this context's container if it is still open, first
// unwinding any deeper contexts that were never finalized. It is idempotent
// and safe under defer, which is how a record routine guarantees its
// containers are closed on an early error return. The session error, if
// any, is returned.
func (e *Encoder) Close() error {
	if e.parent != nil {
		e.finalize()
	}
	return e.st.err
}

func (e *Encoder) finalize() {
	if e.done {
		return
	}
	e.done = true

	// A deeper context still open means an error unwind skipped its End;
	// close innermost first.
	for a := e.st.active; a != nil && a != e; a = e.st.active {
		if !a.descendantOf(e) {
			break
		}
		a.finalize()
	}

	if !e.dead {
		if err := e.parent.w.Close(e.w); err != nil {
			e.fail(encodeError(CodecRejected, err))
		}
	}

	if e.st.active == e {
		e.st.active = e.parent
	}
}

func (e *Encoder) descendantOf(anc *Encoder) bool {
	for p := e.parent; p != nil; p = p.parent {
		if p == anc {
			return true
		}
	}
	return false
}

// DefaultBufferSize is the output buffer size used when the caller does not
// choose one.
const DefaultBufferSize = 4096

// An EncoderBuffer owns the output buffer and the root encode context over
// it. All nested contexts must be finalized before the result is read.
type EncoderBuffer struct {
	Encoder
	buf []byte
}

// NewEncoderBuffer allocates an output buffer of the given size, or
// DefaultBufferSize when size is not positive, and returns its root
// context.
func NewEncoderBuffer(size int) *EncoderBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}

	b := &EncoderBuffer{buf: make([]byte, size)}
	b.Encoder.st = &encodeState{active: &b.Encoder}
	b.Encoder.w = codec.NewWriter(b.buf)
	return b
}

// Bytes returns the encoded result. It fails with the session error if any
// operation failed, and with ContextMisuse if nested contexts are still
// open.
func (b *EncoderBuffer) Bytes() ([]byte, error) {
	if err := b.result(); err != nil {
		return nil, err
	}
	return b.buf[:b.w.Used()], nil
}

// Size returns the number of encoded bytes, under the same conditions as
// Bytes.
func (b *EncoderBuffer) Size() (int, error) {
	if err := b.result(); err != nil {
		return 0, err
	}
	return b.w.Used(), nil
}

func (b *EncoderBuffer) result() error {
	if b.st.err == nil && b.st.active != &b.Encoder {
		b.fail(encodeError(ContextMisuse, errors.New("open containers remain")))
	}
	return b.st.err
}
