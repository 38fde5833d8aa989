package client

import (
	"strconv"

	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/serializer"
	"github.com/ValentinKolb/rKV/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a client config and a transport as parameters.
// It connects the transport and returns a store that implements
// store.IStore on top of it.
func NewRPCStore(config common.ClientConfig, transport transport.IRPCClientTransport) (*RPCStore, error) {
	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	Logger.Debugf("Created RPC store for %v", config.Transport.Endpoints)
	return &RPCStore{
		config:    config,
		transport: transport,
	}, nil
}

// RPCStore is a store.IStore backed by an rKV server
type RPCStore struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

var _ store.IStore = (*RPCStore)(nil)

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (s *RPCStore) Get(key string) ([]byte, bool, error) {
	v, err := s.call("get", getArgs(key))
	if err != nil {
		return nil, false, err
	}
	if err := expect("get", v, common.TagStr, common.TagNil); err != nil {
		return nil, false, err
	}
	if v.IsNil() {
		return nil, false, nil
	}
	return v.Str, true, nil
}

func (s *RPCStore) Set(key string, value []byte) error {
	v, err := s.call("set", setArgs(key, value))
	if err != nil {
		return err
	}
	return expect("set", v, common.TagNil)
}

func (s *RPCStore) Del(key string) (bool, error) {
	v, err := s.call("del", delArgs(key))
	if err != nil {
		return false, err
	}
	if err := expect("del", v, common.TagInt); err != nil {
		return false, err
	}
	return v.Int == 1, nil
}

func (s *RPCStore) Keys() ([]string, error) {
	v, err := s.call("keys", keysArgs())
	if err != nil {
		return nil, err
	}
	if err := expect("keys", v, common.TagArr); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(v.Arr))
	for _, k := range v.Arr {
		if k.Tag != common.TagStr {
			return nil, unexpected("keys", k)
		}
		keys = append(keys, string(k.Str))
	}
	return keys, nil
}

func (s *RPCStore) ZAdd(key string, score float64, name string) (bool, error) {
	v, err := s.call("zadd", zaddArgs(key, score, name))
	if err != nil {
		return false, err
	}
	if err := expect("zadd", v, common.TagInt); err != nil {
		return false, err
	}
	return v.Int == 1, nil
}

func (s *RPCStore) ZRem(key, name string) (bool, error) {
	v, err := s.call("zrem", zremArgs(key, name))
	if err != nil {
		return false, err
	}
	if err := expect("zrem", v, common.TagInt, common.TagNil); err != nil {
		return false, err
	}
	return v.Tag == common.TagInt && v.Int == 1, nil
}

func (s *RPCStore) ZScore(key, name string) (float64, bool, error) {
	v, err := s.call("zscore", zscoreArgs(key, name))
	if err != nil {
		return 0, false, err
	}
	if err := expect("zscore", v, common.TagDbl, common.TagNil); err != nil {
		return 0, false, err
	}
	if v.IsNil() {
		return 0, false, nil
	}
	return v.Dbl, true, nil
}

func (s *RPCStore) ZQuery(key string, score float64, name string, offset, limit int64) ([]store.ZMember, error) {
	v, err := s.call("zquery", zqueryArgs(key, score, name, offset, limit))
	if err != nil {
		return nil, err
	}
	return decodeMembers(v)
}

func (s *RPCStore) Close() error {
	return s.transport.Close()
}

// --------------------------------------------------------------------------
// Raw access
// --------------------------------------------------------------------------

// Do sends an arbitrary command and returns the raw reply. ERR replies are
// returned as values, not as errors; use Value.AsError to inspect them.
func (s *RPCStore) Do(args ...string) (common.Value, error) {
	v, err := s.transport.Send(serializer.StringArgs(args...))
	if err != nil {
		return common.Value{}, transportError("do", err)
	}
	return v, nil
}

// Pipeline starts a batch of commands that is sent in one round trip
func (s *RPCStore) Pipeline() *Pipeline {
	return &Pipeline{store: s}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCStore) call(cmd string, args [][]byte) (common.Value, error) {
	v, err := s.transport.Send(args)
	if err != nil {
		return common.Value{}, transportError(cmd, err)
	}
	return v, nil
}

// decodeMembers converts a flat [name, score, ...] reply
func decodeMembers(v common.Value) ([]store.ZMember, error) {
	if err := expect("zquery", v, common.TagArr); err != nil {
		return nil, err
	}
	if len(v.Arr)%2 != 0 {
		return nil, unexpected("zquery", v)
	}
	members := make([]store.ZMember, 0, len(v.Arr)/2)
	for i := 0; i < len(v.Arr); i += 2 {
		name, score := v.Arr[i], v.Arr[i+1]
		if name.Tag != common.TagStr || score.Tag != common.TagDbl {
			return nil, unexpected("zquery", v)
		}
		members = append(members, store.ZMember{Name: string(name.Str), Score: score.Dbl})
	}
	return members, nil
}

func formatScore(score float64) []byte {
	return strconv.AppendFloat(nil, score, 'g', -1, 64)
}

func formatInt(i int64) []byte {
	return strconv.AppendInt(nil, i, 10)
}

func getArgs(key string) [][]byte {
	return [][]byte{[]byte("get"), []byte(key)}
}

func setArgs(key string, value []byte) [][]byte {
	return [][]byte{[]byte("set"), []byte(key), value}
}

func delArgs(key string) [][]byte {
	return [][]byte{[]byte("del"), []byte(key)}
}

func keysArgs() [][]byte {
	return [][]byte{[]byte("keys")}
}

func zaddArgs(key string, score float64, name string) [][]byte {
	return [][]byte{[]byte("zadd"), []byte(key), formatScore(score), []byte(name)}
}

func zremArgs(key, name string) [][]byte {
	return [][]byte{[]byte("zrem"), []byte(key), []byte(name)}
}

func zscoreArgs(key, name string) [][]byte {
	return [][]byte{[]byte("zscore"), []byte(key), []byte(name)}
}

func zqueryArgs(key string, score float64, name string, offset, limit int64) [][]byte {
	return [][]byte{[]byte("zquery"), []byte(key), formatScore(score), []byte(name), formatInt(offset), formatInt(limit)}
}
