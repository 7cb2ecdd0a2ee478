package cbor

// Kind is the logical category of a value handled by the streaming layer.
// It drives both encode dispatch and decode validation: an extract only
// succeeds when the wrapper's kind matches the item at the cursor.
type Kind uint8

// List of supported kinds.
const (
	// KindInvalid denotes the zero Value; appending or extracting it is
	// always an error.
	KindInvalid Kind = iota
	KindUint
	KindInt
	KindText
	KindBytes
	KindBool
	KindFloat
	KindDouble
	KindNull
	KindUndefined
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	}

	return "invalid"
}
