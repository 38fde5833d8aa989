package serializer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// ErrMalformedValue is returned when a serialized value is truncated or
// carries an unknown tag.
var ErrMalformedValue = errors.New("malformed value")

// NewBinarySerializer creates a new serializer for the little-endian wire
// format of response values
func NewBinarySerializer() IValueSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IValueSerializer using the wire format
type binarySerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IValueSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(v common.Value) ([]byte, error) {
	return AppendValue(make([]byte, 0, EncodedSize(v)), v), nil
}

func (b binarySerializerImpl) Deserialize(data []byte) (common.Value, error) {
	v, n, err := DecodeValue(data)
	if err != nil {
		return common.Value{}, err
	}
	if n != len(data) {
		return common.Value{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedValue, len(data)-n)
	}
	return v, nil
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Sizes of the fixed parts of a serialized value
const (
	tagSize   = 1
	lenSize   = 4
	int64Size = 8
	errHead   = tagSize + 4 + lenSize // tag, code, message length
	arrHead   = tagSize + lenSize     // tag, element count
	strHead   = tagSize + lenSize     // tag, byte length
)

// EncodedSize returns the number of bytes AppendValue writes for v.
func EncodedSize(v common.Value) int {
	switch v.Tag {
	case common.TagErr:
		return errHead + len(v.Err.Msg)
	case common.TagStr:
		return strHead + len(v.Str)
	case common.TagInt, common.TagDbl:
		return tagSize + int64Size
	case common.TagArr:
		n := arrHead
		for _, elem := range v.Arr {
			n += EncodedSize(elem)
		}
		return n
	default:
		return tagSize
	}
}

// StrSize returns the encoded size of a STR value with n payload bytes.
func StrSize(n int) int { return strHead + n }

// DblSize returns the encoded size of a DBL value.
func DblSize() int { return tagSize + int64Size }

// ArrHeaderSize returns the encoded size of an empty ARR value.
func ArrHeaderSize() int { return arrHead }

// AppendValue appends the wire encoding of v to dst and returns the
// extended slice.
func AppendValue(dst []byte, v common.Value) []byte {
	dst = append(dst, byte(v.Tag))
	switch v.Tag {
	case common.TagErr:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(int32(v.Err.Code)))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.Err.Msg)))
		dst = append(dst, v.Err.Msg...)
	case common.TagStr:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.Str)))
		dst = append(dst, v.Str...)
	case common.TagInt:
		dst = binary.LittleEndian.AppendUint64(dst, uint64(v.Int))
	case common.TagDbl:
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.Dbl))
	case common.TagArr:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.Arr)))
		for _, elem := range v.Arr {
			dst = AppendValue(dst, elem)
		}
	}
	return dst
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// DecodeValue decodes one value from the start of data and returns it with
// the number of bytes consumed.
func DecodeValue(data []byte) (common.Value, int, error) {
	if len(data) < tagSize {
		return common.Value{}, 0, fmt.Errorf("%w: missing tag", ErrMalformedValue)
	}
	tag := common.Tag(data[0])
	pos := tagSize

	switch tag {
	case common.TagNil:
		return common.NewNilValue(), pos, nil

	case common.TagErr:
		if len(data) < errHead {
			return common.Value{}, 0, fmt.Errorf("%w: truncated error header", ErrMalformedValue)
		}
		code := int32(binary.LittleEndian.Uint32(data[pos:]))
		msgLen := int(binary.LittleEndian.Uint32(data[pos+4:]))
		pos = errHead
		if len(data)-pos < msgLen {
			return common.Value{}, 0, fmt.Errorf("%w: truncated error message", ErrMalformedValue)
		}
		msg := string(data[pos : pos+msgLen])
		return common.NewErrValue(common.NewCommandError(common.ErrorCode(code), msg)), pos + msgLen, nil

	case common.TagStr:
		if len(data) < strHead {
			return common.Value{}, 0, fmt.Errorf("%w: truncated string header", ErrMalformedValue)
		}
		strLen := int(binary.LittleEndian.Uint32(data[pos:]))
		pos = strHead
		if len(data)-pos < strLen {
			return common.Value{}, 0, fmt.Errorf("%w: truncated string", ErrMalformedValue)
		}
		str := make([]byte, strLen)
		copy(str, data[pos:pos+strLen])
		return common.NewStrValue(str), pos + strLen, nil

	case common.TagInt, common.TagDbl:
		if len(data) < tagSize+int64Size {
			return common.Value{}, 0, fmt.Errorf("%w: truncated number", ErrMalformedValue)
		}
		bits := binary.LittleEndian.Uint64(data[pos:])
		if tag == common.TagInt {
			return common.NewIntValue(int64(bits)), tagSize + int64Size, nil
		}
		return common.NewDblValue(math.Float64frombits(bits)), tagSize + int64Size, nil

	case common.TagArr:
		if len(data) < arrHead {
			return common.Value{}, 0, fmt.Errorf("%w: truncated array header", ErrMalformedValue)
		}
		n := int(binary.LittleEndian.Uint32(data[pos:]))
		pos = arrHead
		// every element takes at least one byte
		if n > len(data)-pos {
			return common.Value{}, 0, fmt.Errorf("%w: array length %d exceeds data", ErrMalformedValue, n)
		}
		elems := make([]common.Value, 0, n)
		for i := 0; i < n; i++ {
			elem, used, err := DecodeValue(data[pos:])
			if err != nil {
				return common.Value{}, 0, err
			}
			elems = append(elems, elem)
			pos += used
		}
		return common.NewArrValue(elems...), pos, nil

	default:
		return common.Value{}, 0, fmt.Errorf("%w: unknown tag %d", ErrMalformedValue, tag)
	}
}
