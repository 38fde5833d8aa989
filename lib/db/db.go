package db

import (
	"errors"

	"github.com/ValentinKolb/rKV/lib/db/hashindex"
	"github.com/ValentinKolb/rKV/lib/db/util"
	"github.com/ValentinKolb/rKV/lib/db/zset"
)

var (
	// ErrWrongType is returned when a command addresses an entry of the other kind.
	ErrWrongType = errors.New("wrong entry type")
	// ErrNoSuchKey is returned by sorted set commands whose key does not exist.
	ErrNoSuchKey = errors.New("no such key")
)

// --------------------------------------------------------------------------
// Entry
// --------------------------------------------------------------------------

// Kind tags the payload of an Entry.
type Kind uint8

const (
	KindString Kind = iota // Value holds the payload
	KindZSet               // ZSet holds the payload
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindZSet:
		return "zset"
	default:
		return "unknown"
	}
}

// Entry is one top level record of the database. Exactly one of Value and
// ZSet is meaningful, as selected by Kind.
type Entry struct {
	Key   string
	Kind  Kind
	Value string
	ZSet  *zset.ZSet

	node hashindex.Node[*Entry]
}

func newEntry(key string) *Entry {
	e := &Entry{Key: key}
	e.node.Init(util.HashString(key), e)
	return e
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// Database is the keyspace: a single hash index of entries.
//
// Thread-safety: Database is not safe for concurrent use. The server runs
// every command on the event loop goroutine, which is the only writer and
// the only reader.
type Database struct {
	index hashindex.Index[*Entry]
}

// New creates an empty database.
func New() *Database {
	return &Database{}
}

// Len returns the number of keys.
func (d *Database) Len() int {
	return d.index.Len()
}

// Lookup returns the entry for key or nil.
func (d *Database) Lookup(key string) *Entry {
	n := d.index.Lookup(util.HashString(key), keyEq(key))
	if n == nil {
		return nil
	}
	return n.Item
}

// --------------------------------------------------------------------------
// String Commands
// --------------------------------------------------------------------------

// Get returns the string value of key. found is false if the key does not
// exist; ErrWrongType is returned if the key holds a sorted set.
func (d *Database) Get(key string) (value string, found bool, err error) {
	e := d.Lookup(key)
	if e == nil {
		return "", false, nil
	}
	if e.Kind != KindString {
		return "", false, ErrWrongType
	}
	return e.Value, true, nil
}

// Set stores a string value under key. An existing sorted set under the
// same key is dropped and the entry becomes a string entry.
func (d *Database) Set(key, value string) {
	e := d.Lookup(key)
	if e == nil {
		e = newEntry(key)
		d.index.Insert(&e.node)
	}
	e.Kind = KindString
	e.Value = value
	e.ZSet = nil
}

// Del removes key of any kind and reports whether it existed.
func (d *Database) Del(key string) bool {
	n := d.index.Delete(util.HashString(key), keyEq(key))
	return n != nil
}

// Keys calls fn for every key until fn returns false. The iteration order
// is unspecified.
func (d *Database) Keys(fn func(key string) bool) {
	d.index.Scan(func(e *Entry) bool {
		return fn(e.Key)
	})
}

// --------------------------------------------------------------------------
// Sorted Set Commands
// --------------------------------------------------------------------------

// ZAdd adds name with score to the sorted set at key, creating the set if
// needed. It returns true if name was inserted and false if only its score
// was updated.
func (d *Database) ZAdd(key string, score float64, name string) (bool, error) {
	e := d.Lookup(key)
	if e == nil {
		e = newEntry(key)
		e.Kind = KindZSet
		e.ZSet = zset.New()
		d.index.Insert(&e.node)
	} else if e.Kind != KindZSet {
		return false, ErrWrongType
	}
	return e.ZSet.Add(name, score), nil
}

// ZRem removes name from the sorted set at key and reports whether it was
// a member. ErrNoSuchKey is returned if the key does not exist.
func (d *Database) ZRem(key, name string) (bool, error) {
	set, err := d.zset(key)
	if err != nil {
		return false, err
	}
	return set.Remove(name) != nil, nil
}

// ZScore returns the score of name in the sorted set at key. found is false
// if the member does not exist; ErrNoSuchKey is returned if the key does not
// exist.
func (d *Database) ZScore(key, name string) (score float64, found bool, err error) {
	set, err := d.zset(key)
	if err != nil {
		return 0, false, err
	}
	node := set.Lookup(name)
	if node == nil {
		return 0, false, nil
	}
	return node.Score, true, nil
}

// ZQuery seeks the first member >= (score, name) in the sorted set at key,
// moves offset positions from there and calls fn for at most limit
// members in order, stopping early when fn returns false. A missing key
// behaves like an empty set.
func (d *Database) ZQuery(key string, score float64, name string, offset, limit int64, fn func(name string, score float64) bool) error {
	set, err := d.zset(key)
	if errors.Is(err, ErrNoSuchKey) {
		return nil
	}
	if err != nil {
		return err
	}
	if limit <= 0 {
		return nil
	}

	node := set.Query(score, name, offset)
	for n := int64(0); node != nil && n < limit; n++ {
		if !fn(node.Name, node.Score) {
			return nil
		}
		node = node.Offset(1)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (d *Database) zset(key string) (*zset.ZSet, error) {
	e := d.Lookup(key)
	if e == nil {
		return nil, ErrNoSuchKey
	}
	if e.Kind != KindZSet {
		return nil, ErrWrongType
	}
	return e.ZSet, nil
}

func keyEq(key string) func(*Entry) bool {
	return func(e *Entry) bool { return e.Key == key }
}
