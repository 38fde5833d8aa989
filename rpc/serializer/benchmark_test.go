package serializer

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// benchmarkValues returns a set of values for targeted benchmarking
func benchmarkValues() map[string]common.Value {
	members := make([]common.Value, 0, 200)
	for i := 0; i < 100; i++ {
		members = append(members, common.NewStringValue(fmt.Sprintf("member-%d", i)), common.NewDblValue(float64(i)))
	}

	return map[string]common.Value{
		"Nil":         common.NewNilValue(),
		"SmallString": common.NewStringValue("v"),
		"LargeString": common.NewStrValue(make([]byte, 4000)),
		"Int":         common.NewIntValue(1),
		"Err":         common.NewErrValue(common.ErrUnknownCommand),
		"ZQuery100":   common.NewArrValue(members...),
	}
}

func BenchmarkSerialize(b *testing.B) {
	for serName, factory := range testSerializers {
		s := factory()
		for name, v := range benchmarkValues() {
			b.Run(serName+"/"+name, func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := s.Serialize(v); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkDeserialize(b *testing.B) {
	for serName, factory := range testSerializers {
		s := factory()
		for name, v := range benchmarkValues() {
			data, err := s.Serialize(v)
			if err != nil {
				b.Fatal(err)
			}
			b.Run(serName+"/"+name, func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := s.Deserialize(data); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkParseRequest(b *testing.B) {
	body := AppendRequest(nil, StringArgs("zquery", "leaderboard", "100.5", "alice", "0", "10"))[common.HeaderSize:]
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseRequest(body, 16); err != nil {
			b.Fatal(err)
		}
	}
}
