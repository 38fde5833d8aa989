package store

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ZMember is one (name, score) pair returned by ZQuery.
type ZMember struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// IStore is the generic interface for interacting with an rKV keyspace.
// Both the embedded store (lstore) and the network client (rpc/client)
// implement it. Failures are reported as *Error.
type IStore interface {
	// Get returns the string value of key. The boolean return value indicates whether the key was found.
	Get(key string) (value []byte, found bool, err error)
	// Set stores a string value. A sorted set stored under key is replaced.
	Set(key string, value []byte) (err error)
	// Del deletes key of any type and reports whether it existed.
	Del(key string) (deleted bool, err error)
	// Keys returns every key in unspecified order.
	Keys() (keys []string, err error)
	// ZAdd adds a member to the sorted set at key, creating the set if needed.
	// It returns true if the member was new and false if only its score changed.
	ZAdd(key string, score float64, name string) (added bool, err error)
	// ZRem removes a member from the sorted set at key and reports whether it was present.
	// A missing key is not an error.
	ZRem(key, name string) (removed bool, err error)
	// ZScore returns the score of a member. found is false if the key or member does not exist.
	ZScore(key, name string) (score float64, found bool, err error)
	// ZQuery returns up to limit members starting at the first member >= (score, name),
	// moved by offset positions. A missing key yields an empty result.
	ZQuery(key string, score float64, name string, offset, limit int64) (members []ZMember, err error)
	// Close releases resources held by the store.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Is lets errors.Is match on the return code alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

// RetCode classifies store errors. Codes 1 to 4 are the error codes of the
// wire protocol, so a client can forward them unchanged.
type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: Command executed successfully.
	RetCUnknownCommand                 // 1: Unknown command or wrong number of arguments.
	RetCTooBig                         // 2: Reply exceeds the maximum message size.
	RetCWrongType                      // 3: Key holds the wrong kind of value.
	RetCInvalidArgument                // 4: Argument could not be parsed.
	RetCInternalError                  // 5: Command failed due to an internal or transport error.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCUnknownCommand:
		return "UnknownCommand"
	case RetCTooBig:
		return "TooBig"
	case RetCWrongType:
		return "WrongType"
	case RetCInvalidArgument:
		return "InvalidArgument"
	case RetCInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Sentinel errors for use with errors.Is.
var (
	ErrWrongType = NewError(RetCWrongType, "operation against a key holding the wrong kind of value")
	ErrTooBig    = NewError(RetCTooBig, "response is too big")
)
