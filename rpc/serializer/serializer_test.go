package serializer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IValueSerializer{
	"JSON":   NewJSONSerializer,
	"Binary": NewBinarySerializer,
}

// testValues creates a set of values covering every tag
func testValues() map[string]common.Value {
	return map[string]common.Value{
		"Nil":         common.NewNilValue(),
		"EmptyString": common.NewStrValue([]byte{}),
		"String":      common.NewStringValue("hello"),
		"BinaryStr":   common.NewStrValue([]byte{0, 1, 2, 255}),
		"Int":         common.NewIntValue(-42),
		"MaxInt":      common.NewIntValue(math.MaxInt64),
		"Dbl":         common.NewDblValue(2.5),
		"NegInf":      common.NewDblValue(math.Inf(-1)),
		"Err":         common.NewErrValue(common.ErrExpectZSet),
		"EmptyArr":    common.NewArrValue(),
		"ZQueryReply": common.NewArrValue(
			common.NewStringValue("a"), common.NewDblValue(1),
			common.NewStringValue("b"), common.NewDblValue(2),
		),
		"Nested": common.NewArrValue(
			common.NewNilValue(),
			common.NewArrValue(common.NewIntValue(1), common.NewErrValue(common.ErrExpectInt)),
		),
	}
}

// TestSerializerRoundTrip tests that values can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	for serName, factory := range testSerializers {
		t.Run(serName, func(t *testing.T) {
			s := factory()
			for name, v := range testValues() {
				t.Run(name, func(t *testing.T) {
					data, err := s.Serialize(v)
					if err != nil {
						t.Fatalf("Serialize failed: %v", err)
					}
					got, err := s.Deserialize(data)
					if err != nil {
						t.Fatalf("Deserialize failed: %v", err)
					}
					if !reflect.DeepEqual(got, v) {
						t.Errorf("Round trip mismatch:\nwant %#v\ngot  %#v", v, got)
					}
				})
			}
		})
	}
}

// TestBinaryLayout pins the byte layout of every tag
func TestBinaryLayout(t *testing.T) {
	cases := []struct {
		name string
		v    common.Value
		want []byte
	}{
		{"Nil", common.NewNilValue(), []byte{0}},
		{"Err", common.NewErrValue(common.NewCommandError(common.ErrCodeType, "x")),
			[]byte{1, 3, 0, 0, 0, 1, 0, 0, 0, 'x'}},
		{"Str", common.NewStringValue("ab"), []byte{2, 2, 0, 0, 0, 'a', 'b'}},
		{"Int", common.NewIntValue(1), []byte{3, 1, 0, 0, 0, 0, 0, 0, 0}},
		{"Dbl", common.NewDblValue(1), []byte{4, 0, 0, 0, 0, 0, 0, 0xf0, 0x3f}},
		{"Arr", common.NewArrValue(common.NewNilValue()), []byte{5, 1, 0, 0, 0, 0}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := AppendValue(nil, c.v)
			if !bytes.Equal(got, c.want) {
				t.Errorf("Expected %v, got %v", c.want, got)
			}
			if EncodedSize(c.v) != len(got) {
				t.Errorf("EncodedSize %d does not match encoding length %d", EncodedSize(c.v), len(got))
			}
		})
	}
}

// TestDecodeMalformed tests that truncated and unknown data is rejected
func TestDecodeMalformed(t *testing.T) {
	full := AppendValue(nil, testValues()["Nested"])

	for cut := 0; cut < len(full); cut++ {
		if _, _, err := DecodeValue(full[:cut]); !errors.Is(err, ErrMalformedValue) {
			t.Fatalf("Expected malformed error for %d of %d bytes, got %v", cut, len(full), err)
		}
	}

	if _, _, err := DecodeValue([]byte{9}); !errors.Is(err, ErrMalformedValue) {
		t.Errorf("Expected malformed error for unknown tag, got %v", err)
	}

	// huge array count with no elements behind it
	if _, _, err := DecodeValue([]byte{5, 0xff, 0xff, 0xff, 0xff}); !errors.Is(err, ErrMalformedValue) {
		t.Errorf("Expected malformed error for oversized array count, got %v", err)
	}

	if _, err := NewBinarySerializer().Deserialize(append(full, 0)); !errors.Is(err, ErrMalformedValue) {
		t.Errorf("Expected malformed error for trailing data, got %v", err)
	}
}

// TestRequestRoundTrip tests request framing and parsing
func TestRequestRoundTrip(t *testing.T) {
	args := StringArgs("zquery", "zset", "1.5", "", "0", "10")
	frame := AppendRequest(nil, args)

	n, ok := FrameLength(frame)
	if !ok || int(n) != len(frame)-common.HeaderSize {
		t.Fatalf("Bad frame length %d for %d bytes", n, len(frame))
	}
	if int(n) != RequestBodySize(args) {
		t.Errorf("RequestBodySize %d does not match %d", RequestBodySize(args), n)
	}

	got, err := ParseRequest(frame[common.HeaderSize:], 16)
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if !reflect.DeepEqual(got, args) {
		t.Errorf("Expected %q, got %q", args, got)
	}

	if _, ok := FrameLength([]byte{1, 2, 3}); ok {
		t.Errorf("FrameLength should need four bytes")
	}
}

// TestParseRequestMalformed tests every rejection path of ParseRequest
func TestParseRequestMalformed(t *testing.T) {
	body := AppendRequest(nil, StringArgs("set", "k", "v"))[common.HeaderSize:]

	tooMany := binary.LittleEndian.AppendUint32(nil, 5)

	cases := map[string][]byte{
		"Empty":         {},
		"ShortCount":    {1, 0},
		"TooManyArgs":   tooMany,
		"Truncated":     body[:len(body)-1],
		"TrailingBytes": append(append([]byte{}, body...), 'x'),
		"TruncatedLen":  {1, 0, 0, 0, 1, 0},
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRequest(data, 4); !errors.Is(err, ErrMalformedRequest) {
				t.Errorf("Expected malformed request error, got %v", err)
			}
		})
	}

	// zero arguments is a valid (if unknown) command
	args, err := ParseRequest([]byte{0, 0, 0, 0}, 4)
	if err != nil || len(args) != 0 {
		t.Errorf("Expected empty argument list, got %v, %v", args, err)
	}
}

// TestAppendResponse tests the response frame header
func TestAppendResponse(t *testing.T) {
	frame := AppendResponse(nil, common.NewIntValue(7))
	n, _ := FrameLength(frame)
	if int(n) != len(frame)-common.HeaderSize || n != 9 {
		t.Errorf("Unexpected response frame %v", frame)
	}
}

// TestJSONBinaryString tests that strings which are not valid UTF-8 survive
// the json encoding byte for byte
func TestJSONBinaryString(t *testing.T) {
	s := NewJSONSerializer()
	raw := []byte{0, 1, 2, 0xff, 0xfe}

	data, err := s.Serialize(common.NewStrValue(raw))
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !bytes.Contains(data, []byte(`"bytes":"AAEC//4="`)) {
		t.Errorf("Expected base64 bytes field, got %s", data)
	}
	if bytes.Contains(data, []byte(`"str"`)) {
		t.Errorf("Expected no str field for binary data, got %s", data)
	}

	got, err := s.Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if !bytes.Equal(got.Str, raw) {
		t.Errorf("Expected %v, got %v", raw, got.Str)
	}

	// valid UTF-8 stays readable
	data, err = s.Serialize(common.NewStringValue("héllo"))
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !bytes.Contains(data, []byte(`"str":"héllo"`)) {
		t.Errorf("Expected plain str field, got %s", data)
	}
}
