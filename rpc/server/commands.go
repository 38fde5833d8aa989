package server

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/serializer"
)

// --------------------------------------------------------------------------
// Command Table
// --------------------------------------------------------------------------

// handlerFunc executes one command. args excludes the command name.
type handlerFunc func(p *Processor, args [][]byte) common.Value

// command describes one entry of the command table
type command struct {
	name    string
	arity   int // number of arguments after the command name
	handler handlerFunc
}

// commandTable lists every command the server understands, keyed by the
// lower-cased name.
var commandTable = map[string]command{
	"get":    {name: "get", arity: 1, handler: doGet},
	"set":    {name: "set", arity: 2, handler: doSet},
	"del":    {name: "del", arity: 1, handler: doDel},
	"keys":   {name: "keys", arity: 0, handler: doKeys},
	"zadd":   {name: "zadd", arity: 3, handler: doZAdd},
	"zrem":   {name: "zrem", arity: 2, handler: doZRem},
	"zscore": {name: "zscore", arity: 2, handler: doZScore},
	"zquery": {name: "zquery", arity: 5, handler: doZQuery},
}

// CommandNames returns the names of all supported commands.
func CommandNames() []string {
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	return names
}

// --------------------------------------------------------------------------
// Processor
// --------------------------------------------------------------------------

// Processor maps parsed requests onto the database and produces the reply
// values.
//
// Thread-safety: Processor is not safe for concurrent use. The transport
// calls Handle from its event loop goroutine only.
type Processor struct {
	db             *db.Database
	maxMessageSize int
	metrics        *Metrics
}

// NewProcessor creates a command processor on top of database. Replies whose
// encoding exceeds maxMessageSize are replaced by a "too big" error. metrics
// may be nil.
func NewProcessor(database *db.Database, maxMessageSize int, metrics *Metrics) *Processor {
	return &Processor{
		db:             database,
		maxMessageSize: maxMessageSize,
		metrics:        metrics,
	}
}

// Handle executes one request and returns its reply. It never fails; every
// problem is reported as an ERR value.
func (p *Processor) Handle(args [][]byte) common.Value {
	reply, name := p.dispatch(args)

	size := serializer.EncodedSize(reply)
	if size > p.maxMessageSize {
		reply = common.NewErrValue(common.ErrTooBig)
		size = serializer.EncodedSize(reply)
	}

	p.metrics.observe(name, reply, size, p.db.Len())
	return reply
}

func (p *Processor) dispatch(args [][]byte) (common.Value, string) {
	if len(args) == 0 {
		return common.NewErrValue(common.ErrUnknownCommand), ""
	}

	cmd, ok := commandTable[strings.ToLower(string(args[0]))]
	if !ok || len(args)-1 != cmd.arity {
		Logger.Debugf("unknown command %q with %d arguments", args[0], len(args)-1)
		return common.NewErrValue(common.ErrUnknownCommand), ""
	}
	return cmd.handler(p, args[1:]), cmd.name
}

// --------------------------------------------------------------------------
// String Commands
// --------------------------------------------------------------------------

// get key
func doGet(p *Processor, args [][]byte) common.Value {
	val, found, err := p.db.Get(string(args[0]))
	if errors.Is(err, db.ErrWrongType) {
		return common.NewErrValue(common.ErrExpectString)
	}
	if err != nil {
		return errorValue(err)
	}
	if !found {
		return common.NewNilValue()
	}
	return common.NewStringValue(val)
}

// set key value
func doSet(p *Processor, args [][]byte) common.Value {
	p.db.Set(string(args[0]), string(args[1]))
	return common.NewNilValue()
}

// del key
func doDel(p *Processor, args [][]byte) common.Value {
	return common.NewBoolValue(p.db.Del(string(args[0])))
}

// keys
func doKeys(p *Processor, _ [][]byte) common.Value {
	size := serializer.ArrHeaderSize()
	keys := make([]common.Value, 0, min(p.db.Len(), 1024))
	p.db.Keys(func(key string) bool {
		size += serializer.StrSize(len(key))
		if size > p.maxMessageSize {
			return false
		}
		keys = append(keys, common.NewStringValue(key))
		return true
	})
	if size > p.maxMessageSize {
		return common.NewErrValue(common.ErrTooBig)
	}
	return common.NewArrValue(keys...)
}

// --------------------------------------------------------------------------
// Sorted Set Commands
// --------------------------------------------------------------------------

// zadd zset score name
func doZAdd(p *Processor, args [][]byte) common.Value {
	score, ok := parseScore(args[1])
	if !ok {
		return common.NewErrValue(common.ErrExpectFloat)
	}
	added, err := p.db.ZAdd(string(args[0]), score, string(args[2]))
	if err != nil {
		return errorValue(err)
	}
	return common.NewBoolValue(added)
}

// zrem zset name
func doZRem(p *Processor, args [][]byte) common.Value {
	removed, err := p.db.ZRem(string(args[0]), string(args[1]))
	if err != nil {
		return errorValue(err)
	}
	return common.NewBoolValue(removed)
}

// zscore zset name
func doZScore(p *Processor, args [][]byte) common.Value {
	score, found, err := p.db.ZScore(string(args[0]), string(args[1]))
	if err != nil {
		return errorValue(err)
	}
	if !found {
		return common.NewNilValue()
	}
	return common.NewDblValue(score)
}

// zquery zset score name offset limit
//
// The reply is a flat array [name1, score1, name2, score2, ...] holding at
// most limit pairs.
func doZQuery(p *Processor, args [][]byte) common.Value {
	score, ok := parseScore(args[1])
	if !ok {
		return common.NewErrValue(common.ErrExpectFloat)
	}
	offset, ok := parseInt(args[3])
	if !ok {
		return common.NewErrValue(common.ErrExpectInt)
	}
	limit, ok := parseInt(args[4])
	if !ok {
		return common.NewErrValue(common.ErrExpectInt)
	}

	size := serializer.ArrHeaderSize()
	out := make([]common.Value, 0, 2*min(max(limit, 0), 64))
	err := p.db.ZQuery(string(args[0]), score, string(args[2]), offset, limit, func(name string, sc float64) bool {
		size += serializer.StrSize(len(name)) + serializer.DblSize()
		if size > p.maxMessageSize {
			return false
		}
		out = append(out, common.NewStringValue(name), common.NewDblValue(sc))
		return true
	})
	if errors.Is(err, db.ErrWrongType) {
		return common.NewErrValue(common.ErrExpectZSet)
	}
	if err != nil {
		return errorValue(err)
	}
	if size > p.maxMessageSize {
		return common.NewErrValue(common.ErrTooBig)
	}
	return common.NewArrValue(out...)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// errorValue maps database errors onto reply values. A missing sorted set
// is a NIL reply, not an error.
func errorValue(err error) common.Value {
	switch {
	case errors.Is(err, db.ErrNoSuchKey):
		return common.NewNilValue()
	case errors.Is(err, db.ErrWrongType):
		return common.NewErrValue(common.ErrExpectZSet)
	default:
		Logger.Errorf("unexpected database error: %v", err)
		return common.NewErrValue(common.NewCommandError(common.ErrCodeUnknown, err.Error()))
	}
}

// parseScore parses a float argument. NaN is rejected since it has no
// place in the sort order; overflow saturates to an infinity.
func parseScore(b []byte) (float64, bool) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// parseInt parses a base 10 integer argument.
func parseInt(b []byte) (int64, bool) {
	i, err := strconv.ParseInt(string(b), 10, 64)
	return i, err == nil
}
