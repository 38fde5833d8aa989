package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Protocol Limits
// --------------------------------------------------------------------------

const (
	// DefaultMaxMessageSize is the default limit for a frame body (request or
	// response) without its 4 byte length prefix.
	DefaultMaxMessageSize = 4096
	// HeaderSize is the size of the little-endian length prefix of a frame.
	HeaderSize = 4
)

// --------------------------------------------------------------------------
// Value Tags
// --------------------------------------------------------------------------

// Tag identifies the type of a serialized response value.
type Tag uint8

const (
	TagNil Tag = 0 // no payload
	TagErr Tag = 1 // [i32 code][u32 len][msg]
	TagStr Tag = 2 // [u32 len][bytes]
	TagInt Tag = 3 // [i64]
	TagDbl Tag = 4 // [f64]
	TagArr Tag = 5 // [u32 n] followed by n values
)

func (t Tag) String() string {
	switch t {
	case TagNil:
		return "nil"
	case TagErr:
		return "err"
	case TagStr:
		return "str"
	case TagInt:
		return "int"
	case TagDbl:
		return "dbl"
	case TagArr:
		return "arr"
	default:
		return "tag(" + strconv.Itoa(int(t)) + ")"
	}
}

// --------------------------------------------------------------------------
// Command Errors
// --------------------------------------------------------------------------

// ErrorCode is the numeric code carried by an ERR value.
type ErrorCode int32

const (
	ErrCodeUnknown ErrorCode = 1 // unknown command or wrong arity
	ErrCodeTooBig  ErrorCode = 2 // reply exceeds the message size limit
	ErrCodeType    ErrorCode = 3 // key holds the wrong kind of value
	ErrCodeArg     ErrorCode = 4 // argument could not be parsed
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnknown:
		return "ERR_UNKNOWN"
	case ErrCodeTooBig:
		return "ERR_2BIG"
	case ErrCodeType:
		return "ERR_TYPE"
	case ErrCodeArg:
		return "ERR_ARG"
	default:
		return "ERR_" + strconv.Itoa(int(c))
	}
}

// CommandError is a command level failure. It is sent to the client as an
// ERR value and does not affect the connection.
type CommandError struct {
	Code ErrorCode
	Msg  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is lets errors.Is match on the code alone.
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	return ok && t.Code == e.Code
}

// NewCommandError creates a new CommandError
func NewCommandError(code ErrorCode, msg string) *CommandError {
	return &CommandError{Code: code, Msg: msg}
}

// The error replies the server sends, with the texts clients see.
var (
	ErrUnknownCommand = NewCommandError(ErrCodeUnknown, "Unknown cmd")
	ErrTooBig         = NewCommandError(ErrCodeTooBig, "response is too big")
	ErrExpectZSet     = NewCommandError(ErrCodeType, "expect zset")
	ErrExpectString   = NewCommandError(ErrCodeType, "expect string")
	ErrExpectFloat    = NewCommandError(ErrCodeArg, "expect fp number")
	ErrExpectInt      = NewCommandError(ErrCodeArg, "expect int")
)

// --------------------------------------------------------------------------
// Value
// --------------------------------------------------------------------------

// Value is a single response value. Which field is used depends on Tag.
type Value struct {
	Tag Tag
	Str []byte        // TagStr
	Int int64         // TagInt
	Dbl float64       // TagDbl
	Err *CommandError // TagErr
	Arr []Value       // TagArr
}

// --------------------------------------------------------------------------
// Value Factory Functions
// --------------------------------------------------------------------------

// NewNilValue creates a NIL value
func NewNilValue() Value {
	return Value{Tag: TagNil}
}

// NewStrValue creates a STR value
func NewStrValue(s []byte) Value {
	return Value{Tag: TagStr, Str: s}
}

// NewStringValue creates a STR value from a string
func NewStringValue(s string) Value {
	return Value{Tag: TagStr, Str: []byte(s)}
}

// NewIntValue creates an INT value
func NewIntValue(i int64) Value {
	return Value{Tag: TagInt, Int: i}
}

// NewBoolValue creates an INT value of 1 or 0
func NewBoolValue(b bool) Value {
	if b {
		return NewIntValue(1)
	}
	return NewIntValue(0)
}

// NewDblValue creates a DBL value
func NewDblValue(f float64) Value {
	return Value{Tag: TagDbl, Dbl: f}
}

// NewErrValue creates an ERR value from a command error
func NewErrValue(err *CommandError) Value {
	return Value{Tag: TagErr, Err: err}
}

// NewArrValue creates an ARR value
func NewArrValue(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{Tag: TagArr, Arr: values}
}

// --------------------------------------------------------------------------
// Value Helpers
// --------------------------------------------------------------------------

// IsNil reports whether v is NIL.
func (v Value) IsNil() bool { return v.Tag == TagNil }

// AsError returns the carried error for ERR values and nil otherwise.
func (v Value) AsError() error {
	if v.Tag == TagErr && v.Err != nil {
		return v.Err
	}
	return nil
}

// String renders the value the way the command line client prints it.
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb, "")
	return sb.String()
}

func (v Value) format(sb *strings.Builder, indent string) {
	switch v.Tag {
	case TagNil:
		sb.WriteString("(nil)")
	case TagErr:
		sb.WriteString(fmt.Sprintf("(err) %d %s", v.Err.Code, v.Err.Msg))
	case TagStr:
		sb.WriteString(strconv.Quote(string(v.Str)))
	case TagInt:
		sb.WriteString("(int) ")
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case TagDbl:
		sb.WriteString("(dbl) ")
		sb.WriteString(strconv.FormatFloat(v.Dbl, 'g', -1, 64))
	case TagArr:
		if len(v.Arr) == 0 {
			sb.WriteString("(arr) empty")
			return
		}
		sb.WriteString(fmt.Sprintf("(arr) len=%d", len(v.Arr)))
		for i, elem := range v.Arr {
			sb.WriteString("\n")
			sb.WriteString(indent)
			sb.WriteString(fmt.Sprintf("%d) ", i+1))
			elem.format(sb, indent+"   ")
		}
	default:
		sb.WriteString(v.Tag.String())
	}
}
