package cbor_test

import (
	"fmt"

	cbor "github.com/peters-r/TinyCBorWrapper"
)

type exampleInner struct {
	Name  string
	Value uint32
}

type example struct {
	Bytes []byte
	Value int32
	Inner exampleInner
}

func (x *exampleInner) encodeTo(e *cbor.Encoder) *cbor.Encoder {
	return e.BeginMap(2).
		Append(cbor.Text("name")).Append(cbor.Text(x.Name)).
		Append(cbor.Text("value")).Append(cbor.Uint(x.Value)).
		End()
}

func (x *exampleInner) decodeFrom(d *cbor.Decoder) *cbor.Decoder {
	return d.Enter().
		Skip().Extract(cbor.TextRef(&x.Name)).
		Skip().Extract(cbor.UintRef(&x.Value)).
		Leave()
}

func (x *example) encodeTo(e *cbor.Encoder) *cbor.Encoder {
	arr := e.BeginArray(3).
		Append(cbor.Bytes(x.Bytes)).
		Append(cbor.Int(x.Value))
	return x.Inner.encodeTo(arr).End()
}

func (x *example) decodeFrom(d *cbor.Decoder) *cbor.Decoder {
	arr := d.Enter().
		Extract(cbor.BytesRef(&x.Bytes)).
		Extract(cbor.IntRef(&x.Value))
	return x.Inner.decodeFrom(arr).Leave()
}

// A record type writes one encode routine and one matching decode routine;
// both compose as flat chains and any nesting is handled by the contexts
// they hand back.
func Example() {
	in := example{
		Bytes: []byte{1, 2, 3, 4, 5},
		Value: -20,
		Inner: exampleInner{Name: "Hello", Value: 10},
	}

	buf := cbor.NewEncoderBuffer(0)
	in.encodeTo(&buf.Encoder)
	out, err := buf.Bytes()
	if err != nil {
		fmt.Println("encode:", err)
		return
	}

	var got example
	d := cbor.NewDecoderBuffer(out)
	got.decodeFrom(&d.Decoder)
	if err := d.Finish(); err != nil {
		fmt.Println("decode:", err)
		return
	}

	fmt.Printf("bytes: %v\n", got.Bytes)
	fmt.Printf("value: %d\n", got.Value)
	fmt.Printf("inner.name: %s\n", got.Inner.Name)
	fmt.Printf("inner.value: %d\n", got.Inner.Value)
	// Output:
	// bytes: [1 2 3 4 5]
	// value: -20
	// inner.name: Hello
	// inner.value: 10
}
