// Package serializer implements the encodings of the rKV protocol.
//
// Every frame on the wire starts with a little-endian u32 length of the body
// that follows. A request body is an argument list
//
//	[u32 nargs] { [u32 len][bytes] } * nargs
//
// and a response body is exactly one tagged value:
//
//	NIL  [0]
//	ERR  [1][i32 code][u32 len][msg]
//	STR  [2][u32 len][bytes]
//	INT  [3][i64]
//	DBL  [4][f64]
//	ARR  [5][u32 n] followed by n values
//
// Key Components:
//
//   - Request codec: AppendRequest builds a request frame, ParseRequest
//     validates and splits a request body without copying the arguments.
//
//   - binarySerializerImpl: the wire format of response values. The free
//     functions AppendValue, DecodeValue and EncodedSize expose the same
//     encoding for the server, which appends replies straight into the
//     connection's write buffer, and for size accounting while a reply is
//     being built.
//
//   - jsonSerializerImpl: a json rendering of values for the command line
//     tools (`--output json`). It is not used on the wire.
//
// Thread Safety:
//
//	All serializers and codec functions are stateless and safe for
//	concurrent use.
package serializer
