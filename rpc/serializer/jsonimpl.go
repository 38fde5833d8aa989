package serializer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding. It is
// used by the command line tools for machine readable output.
func NewJSONSerializer() IValueSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IValueSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// jsonValue is the json shape of a common.Value. Strings that are not
// valid UTF-8 go into Bytes, which encoding/json writes as base64.
type jsonValue struct {
	Type  string          `json:"type"`
	Str   *string         `json:"str,omitempty"`
	Bytes []byte          `json:"bytes,omitempty"`
	Int   *int64          `json:"int,omitempty"`
	Dbl   json.RawMessage `json:"dbl,omitempty"`
	Code  int32           `json:"code,omitempty"`
	Msg   string          `json:"msg,omitempty"`
	Items []jsonValue     `json:"items,omitempty"`
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IValueSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(v common.Value) ([]byte, error) {
	jv, err := toJSON(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jv)
}

func (j jsonSerializerImpl) Deserialize(b []byte) (common.Value, error) {
	var jv jsonValue
	if err := json.Unmarshal(b, &jv); err != nil {
		return common.Value{}, err
	}
	return fromJSON(jv)
}

// --------------------------------------------------------------------------
// Conversion
// --------------------------------------------------------------------------

func toJSON(v common.Value) (jsonValue, error) {
	jv := jsonValue{Type: v.Tag.String()}
	switch v.Tag {
	case common.TagNil:
	case common.TagErr:
		jv.Code = int32(v.Err.Code)
		jv.Msg = v.Err.Msg
	case common.TagStr:
		if !utf8.Valid(v.Str) {
			jv.Bytes = v.Str
			break
		}
		s := string(v.Str)
		jv.Str = &s
	case common.TagInt:
		i := v.Int
		jv.Int = &i
	case common.TagDbl:
		// json has no representation for infinities
		if math.IsInf(v.Dbl, 0) || math.IsNaN(v.Dbl) {
			jv.Dbl = json.RawMessage(fmt.Sprintf("%q", fmt.Sprint(v.Dbl)))
		} else {
			raw, err := json.Marshal(v.Dbl)
			if err != nil {
				return jsonValue{}, err
			}
			jv.Dbl = raw
		}
	case common.TagArr:
		jv.Items = make([]jsonValue, 0, len(v.Arr))
		for _, elem := range v.Arr {
			item, err := toJSON(elem)
			if err != nil {
				return jsonValue{}, err
			}
			jv.Items = append(jv.Items, item)
		}
	default:
		return jsonValue{}, fmt.Errorf("%w: unknown tag %d", ErrMalformedValue, v.Tag)
	}
	return jv, nil
}

func fromJSON(jv jsonValue) (common.Value, error) {
	switch jv.Type {
	case "nil":
		return common.NewNilValue(), nil
	case "err":
		return common.NewErrValue(common.NewCommandError(common.ErrorCode(jv.Code), jv.Msg)), nil
	case "str":
		if jv.Bytes != nil {
			return common.NewStrValue(jv.Bytes), nil
		}
		if jv.Str == nil {
			return common.NewStrValue([]byte{}), nil
		}
		return common.NewStringValue(*jv.Str), nil
	case "int":
		if jv.Int == nil {
			return common.NewIntValue(0), nil
		}
		return common.NewIntValue(*jv.Int), nil
	case "dbl":
		var f float64
		if err := json.Unmarshal(jv.Dbl, &f); err != nil {
			var s string
			if err2 := json.Unmarshal(jv.Dbl, &s); err2 != nil {
				return common.Value{}, err
			}
			parsed, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return common.Value{}, err
			}
			f = parsed
		}
		return common.NewDblValue(f), nil
	case "arr":
		items := make([]common.Value, 0, len(jv.Items))
		for _, item := range jv.Items {
			v, err := fromJSON(item)
			if err != nil {
				return common.Value{}, err
			}
			items = append(items, v)
		}
		return common.NewArrValue(items...), nil
	default:
		return common.Value{}, fmt.Errorf("%w: unknown type %q", ErrMalformedValue, jv.Type)
	}
}
