// Package util provides the hash function shared by the database indexes.
//
// Keys and sorted set member names are hashed with xxhash via HashString.
package util
