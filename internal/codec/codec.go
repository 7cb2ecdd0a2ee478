// Package codec implements the byte-level CBOR encoding primitives used by
// the streaming layer: head (major type + argument) encoding and decoding,
// bounds-checked cursor writes and reads, and container open/close/enter/leave
// bookkeeping. It deals in bytes and offsets only; typed-wrapper dispatch and
// the nested-context protocol live in the parent package.
package codec

import (
	"github.com/cockroachdb/errors"
)

// CBOR major types (3 bits).
const (
	majorUint   = 0
	majorNegInt = 1
	majorBytes  = 2
	majorText   = 3
	majorArray  = 4
	majorMap    = 5
	majorTag    = 6
	majorSimple = 7
)

// Additional-info values (5 bits).
const (
	addInfoDirect     = 23 // highest value encoded in the head byte itself
	addInfoUint8      = 24
	addInfoUint16     = 25
	addInfoUint32     = 26
	addInfoUint64     = 27
	addInfoIndefinite = 31
)

// Simple values in major type 7.
const (
	simpleFalse     = 20
	simpleTrue      = 21
	simpleNull      = 22
	simpleUndefined = 23
	simpleFloat16   = 25
	simpleFloat32   = 26
	simpleFloat64   = 27
)

const breakByte = 0xff

// IndefiniteLength is the container size passed to OpenArray/OpenMap to
// request an indefinite-length container, closed by a break byte.
const IndefiniteLength = -1

// maxDepth bounds recursion when skipping nested items, so a malicious
// input cannot exhaust the stack.
const maxDepth = 1000

var (
	// ErrBufferTooSmall is returned by writes that do not fit in the
	// remaining capacity of the output buffer.
	ErrBufferTooSmall = errors.New("codec: buffer too small")

	// ErrTruncated is returned when a read runs past the end of the input
	// or past the end of the enclosing container.
	ErrTruncated = errors.New("codec: truncated input")

	// ErrMalformed is returned for input bytes that are not valid CBOR
	// (reserved additional info, stray break, excessive nesting).
	ErrMalformed = errors.New("codec: malformed input")

	// ErrUnexpectedType is returned when a typed read finds a different
	// major type at the cursor.
	ErrUnexpectedType = errors.New("codec: unexpected type")

	// ErrNotContainer is returned by Enter when the cursor is not at an
	// array or map.
	ErrNotContainer = errors.New("codec: not a container")

	// ErrLengthUnknown is returned when a declared length is requested
	// from an indefinite-length item.
	ErrLengthUnknown = errors.New("codec: length not declared")

	// ErrOverflow is returned when an integer does not fit the requested
	// native width.
	ErrOverflow = errors.New("codec: integer overflow")

	// ErrTooFewItems and ErrTooManyItems are returned by Close when the
	// number of items written disagrees with the declared container size.
	ErrTooFewItems  = errors.New("codec: too few items in container")
	ErrTooManyItems = errors.New("codec: too many items in container")
)

func makeHead(major, info byte) byte {
	return major<<5 | info
}

func majorOf(b byte) byte {
	return b >> 5
}

func infoOf(b byte) byte {
	return b & 0x1f
}

// readHead decodes the head of the item starting at b[off]: its major type,
// raw additional info, argument value and total head size in bytes. For an
// indefinite-length head (info 31) the argument is zero and the caller must
// look at info. Floating-point items store their payload in the argument.
func readHead(b []byte, off int) (major, info byte, arg uint64, n int, err error) {
	if off >= len(b) {
		return 0, 0, 0, 0, errors.WithStack(ErrTruncated)
	}

	h := b[off]
	major = majorOf(h)
	info = infoOf(h)

	switch {
	case info <= addInfoDirect:
		return major, info, uint64(info), 1, nil
	case info == addInfoUint8:
		n = 2
	case info == addInfoUint16:
		n = 3
	case info == addInfoUint32:
		n = 5
	case info == addInfoUint64:
		n = 9
	case info == addInfoIndefinite:
		return major, info, 0, 1, nil
	default:
		// 28, 29 and 30 are reserved.
		return 0, 0, 0, 0, errors.Wrapf(ErrMalformed, "reserved additional info %d", info)
	}

	if off+n > len(b) {
		return 0, 0, 0, 0, errors.WithStack(ErrTruncated)
	}
	for _, c := range b[off+1 : off+n] {
		arg = arg<<8 | uint64(c)
	}

	return major, info, arg, n, nil
}

// skipItem returns the offset of the first byte past the item starting at
// b[off], walking whole subtrees for containers and chunked strings.
func skipItem(b []byte, off, depth int) (int, error) {
	if depth > maxDepth {
		return 0, errors.Wrap(ErrMalformed, "nesting too deep")
	}

	major, info, arg, n, err := readHead(b, off)
	if err != nil {
		return 0, err
	}

	switch major {
	case majorUint, majorNegInt:
		return off + n, nil

	case majorBytes, majorText:
		if info == addInfoIndefinite {
			return skipChunks(b, off+n, major)
		}
		end := off + n + int(arg)
		if int(arg) < 0 || end > len(b) {
			return 0, errors.WithStack(ErrTruncated)
		}
		return end, nil

	case majorArray, majorMap:
		pos := off + n
		if info == addInfoIndefinite {
			for {
				if pos >= len(b) {
					return 0, errors.WithStack(ErrTruncated)
				}
				if b[pos] == breakByte {
					return pos + 1, nil
				}
				pos, err = skipItem(b, pos, depth+1)
				if err != nil {
					return 0, err
				}
			}
		}
		count := arg
		if major == majorMap {
			count *= 2
		}
		for i := uint64(0); i < count; i++ {
			pos, err = skipItem(b, pos, depth+1)
			if err != nil {
				return 0, err
			}
		}
		return pos, nil

	case majorTag:
		// Tags are not part of the supported kind set but foreign input
		// may contain them; step over the tagged item.
		return skipItem(b, off+n, depth+1)

	default: // majorSimple
		if info == addInfoIndefinite {
			return 0, errors.Wrap(ErrMalformed, "unexpected break")
		}
		return off + n, nil
	}
}

// skipChunks walks the chunks of an indefinite-length string until the
// closing break. Every chunk must be a definite-length string of the same
// major type.
func skipChunks(b []byte, pos int, major byte) (int, error) {
	for {
		if pos >= len(b) {
			return 0, errors.WithStack(ErrTruncated)
		}
		if b[pos] == breakByte {
			return pos + 1, nil
		}
		m, info, arg, n, err := readHead(b, pos)
		if err != nil {
			return 0, err
		}
		if m != major || info == addInfoIndefinite {
			return 0, errors.Wrap(ErrMalformed, "invalid string chunk")
		}
		pos += n + int(arg)
		if pos > len(b) {
			return 0, errors.WithStack(ErrTruncated)
		}
	}
}
