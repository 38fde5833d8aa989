package client

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/serializer"
)

// Pipeline queues commands and sends them in a single round trip. The
// server executes them in order and the replies come back in the same
// order.
//
// A Pipeline is not safe for concurrent use.
type Pipeline struct {
	store    *RPCStore
	requests [][][]byte
}

// Len returns the number of queued commands
func (p *Pipeline) Len() int { return len(p.requests) }

// Do queues an arbitrary command
func (p *Pipeline) Do(args ...string) *Pipeline {
	return p.add(serializer.StringArgs(args...))
}

func (p *Pipeline) Get(key string) *Pipeline { return p.add(getArgs(key)) }

func (p *Pipeline) Set(key string, value []byte) *Pipeline { return p.add(setArgs(key, value)) }

func (p *Pipeline) Del(key string) *Pipeline { return p.add(delArgs(key)) }

func (p *Pipeline) Keys() *Pipeline { return p.add(keysArgs()) }

func (p *Pipeline) ZAdd(key string, score float64, name string) *Pipeline {
	return p.add(zaddArgs(key, score, name))
}

func (p *Pipeline) ZRem(key, name string) *Pipeline { return p.add(zremArgs(key, name)) }

func (p *Pipeline) ZScore(key, name string) *Pipeline { return p.add(zscoreArgs(key, name)) }

func (p *Pipeline) ZQuery(key string, score float64, name string, offset, limit int64) *Pipeline {
	return p.add(zqueryArgs(key, score, name, offset, limit))
}

// Exec sends all queued commands and returns their raw replies. ERR
// replies are part of the result; the error covers transport failures only.
// The pipeline is empty afterwards.
func (p *Pipeline) Exec() ([]common.Value, error) {
	requests := p.requests
	p.requests = nil
	if len(requests) == 0 {
		return []common.Value{}, nil
	}
	replies, err := p.store.transport.SendBatch(requests)
	if err != nil {
		return nil, transportError("pipeline", err)
	}
	return replies, nil
}

// Members decodes a ZQUERY reply returned by Exec
func Members(v common.Value) ([]store.ZMember, error) {
	return decodeMembers(v)
}

func (p *Pipeline) add(args [][]byte) *Pipeline {
	p.requests = append(p.requests, args)
	return p
}
