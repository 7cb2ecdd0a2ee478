/*
Package cbor is a typed, composable streaming layer for encoding and
decoding self-describing binary records.

Callers describe a record as a flat chain of operations against a context;
the layer manages container nesting and guarantees every container opened
during the chain is closed exactly once, even when the chain fails partway
through. There is no reflection and no schema: each record type hand-writes
its field order once for encoding and once for decoding, and the two
routines must agree.

Encoding starts from an EncoderBuffer, which owns a pre-sized output buffer
and the root context over it:

	buf := cbor.NewEncoderBuffer(0)
	buf.BeginArray(2).
		Append(cbor.Text("hello")).
		Append(cbor.Uint(uint64(10))).
		End()
	out, err := buf.Bytes()

Decoding borrows the encoded bytes and walks them with a matching chain:

	var s string
	var n uint64
	d := cbor.NewDecoderBuffer(out)
	d.Enter().
		Extract(cbor.TextRef(&s)).
		Extract(cbor.UintRef(&n)).
		Leave()
	err := d.Finish()

Errors do not interrupt the chain: the first failure is latched for the
session, later operations are no-ops, and the caller observes a single
terminal error. A nested context that is abandoned without End or Leave is
finalized when one of its ancestors is closed, so `defer ctx.Close()` on an
inner context keeps the buffer consistent on every return path.
*/
package cbor
