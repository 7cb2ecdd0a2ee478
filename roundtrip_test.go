package cbor_test

import (
	"testing"

	fxcbor "github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	cbor "github.com/peters-r/TinyCBorWrapper"
)

func TestRecordRoundTrip(t *testing.T) {
	in := example{
		Bytes: []byte{1, 2, 3, 4, 5},
		Value: -20,
		Inner: exampleInner{Name: "Hello", Value: 10},
	}

	buf := cbor.NewEncoderBuffer(0)
	in.encodeTo(&buf.Encoder)
	out, err := buf.Bytes()
	require.NoError(t, err)

	var got example
	d := cbor.NewDecoderBuffer(out)
	got.decodeFrom(&d.Decoder)
	require.NoError(t, d.Finish())
	require.True(t, d.AtEnd())

	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	type record struct {
		U uint64
		I int64
		S string
		P []byte
		B bool
		F float32
		D float64
	}

	in := record{
		U: 1<<63 + 7,
		I: -1 << 40,
		S: "héllo wörld",
		P: []byte{0, 255, 128},
		B: true,
		F: -2.25,
		D: 6.02214076e23,
	}

	buf := cbor.NewEncoderBuffer(0)
	buf.BeginArray(7).
		Append(cbor.Uint(in.U)).
		Append(cbor.Int(in.I)).
		Append(cbor.Text(in.S)).
		Append(cbor.Bytes(in.P)).
		Append(cbor.Bool(in.B)).
		Append(cbor.Float(in.F)).
		Append(cbor.Double(in.D)).
		End()
	out, err := buf.Bytes()
	require.NoError(t, err)

	var got record
	d := cbor.NewDecoderBuffer(out)
	d.Enter().
		Extract(cbor.UintRef(&got.U)).
		Extract(cbor.IntRef(&got.I)).
		Extract(cbor.TextRef(&got.S)).
		Extract(cbor.BytesRef(&got.P)).
		Extract(cbor.BoolRef(&got.B)).
		Extract(cbor.FloatRef(&got.F)).
		Extract(cbor.DoubleRef(&got.D)).
		Leave()
	require.NoError(t, d.Finish())

	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// The encoded output must be readable by an independent implementation.
func TestInteropEncodeThenForeignDecode(t *testing.T) {
	in := example{
		Bytes: []byte{1, 2, 3, 4, 5},
		Value: -20,
		Inner: exampleInner{Name: "Hello", Value: 10},
	}

	buf := cbor.NewEncoderBuffer(0)
	in.encodeTo(&buf.Encoder)
	out, err := buf.Bytes()
	require.NoError(t, err)

	require.NoError(t, fxcbor.Wellformed(out))

	var got any
	require.NoError(t, fxcbor.Unmarshal(out, &got))

	want := []any{
		[]byte{1, 2, 3, 4, 5},
		int64(-20),
		map[any]any{
			"name":  "Hello",
			"value": uint64(10),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("foreign decode mismatch (-want +got):\n%s", diff)
	}
}

// And the reverse: bytes produced by an independent implementation must be
// readable by this layer.
func TestInteropForeignEncodeThenDecode(t *testing.T) {
	out, err := fxcbor.Marshal([]any{uint64(10), "Hello", true})
	require.NoError(t, err)

	var (
		u uint64
		s string
		b bool
	)
	d := cbor.NewDecoderBuffer(out)
	d.Enter().
		Extract(cbor.UintRef(&u)).
		Extract(cbor.TextRef(&s)).
		Extract(cbor.BoolRef(&b)).
		Leave()
	require.NoError(t, d.Finish())

	require.Equal(t, uint64(10), u)
	require.Equal(t, "Hello", s)
	require.True(t, b)
}

// Implicit finalization must produce well-formed output: even when inner
// contexts are abandoned, the closing bytes are written before the result
// is read.
func TestImplicitCloseProducesWellformedOutput(t *testing.T) {
	buf := cbor.NewEncoderBuffer(0)

	arr := buf.BeginArray(2)
	arr.Append(cbor.Uint(uint64(1)))
	inner := arr.BeginMap(cbor.IndefiniteLength)
	inner.Append(cbor.Text("k")).Append(cbor.Uint(uint64(2)))
	// neither inner nor arr sees an explicit End
	require.NoError(t, arr.Close())

	out, err := buf.Bytes()
	require.NoError(t, err)
	require.NoError(t, fxcbor.Wellformed(out))

	var got any
	require.NoError(t, fxcbor.Unmarshal(out, &got))
	want := []any{uint64(1), map[any]any{"k": uint64(2)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}
