package serializer

import "github.com/ValentinKolb/rKV/rpc/common"

// IValueSerializer is the interface for all response value serializers
type IValueSerializer interface {
	// Serialize serializes a Value into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(v common.Value) ([]byte, error)
	// Deserialize deserializes a byte array into a Value
	// It returns an error if the data is not a single, complete value
	Deserialize(b []byte) (common.Value, error)
}
