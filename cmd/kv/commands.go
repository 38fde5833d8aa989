package kv

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Gets the string value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, found, err := rpcStore.Get(args[0])
			if err != nil {
				return err
			}
			if !found {
				return printValue(cmd, common.NewNilValue())
			}
			return printValue(cmd, common.NewStrValue(value))
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the string value of a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Set(args[0], []byte(args[1])); err != nil {
				return err
			}
			return printValue(cmd, common.NewNilValue())
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key of any type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := rpcStore.Del(args[0])
			if err != nil {
				return err
			}
			return printValue(cmd, common.NewBoolValue(deleted))
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := rpcStore.Keys()
			if err != nil {
				return err
			}
			values := make([]common.Value, len(keys))
			for i, k := range keys {
				values[i] = common.NewStringValue(k)
			}
			return printValue(cmd, common.NewArrValue(values...))
		},
	}
	zaddCmd = &cobra.Command{
		Use:   "zadd [key] [score] [name]",
		Short: "Adds a member to a sorted set or updates its score",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := parseScore(args[1])
			if err != nil {
				return err
			}
			added, err := rpcStore.ZAdd(args[0], score, args[2])
			if err != nil {
				return err
			}
			return printValue(cmd, common.NewBoolValue(added))
		},
	}
	zremCmd = &cobra.Command{
		Use:   "zrem [key] [name]",
		Short: "Removes a member from a sorted set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := rpcStore.ZRem(args[0], args[1])
			if err != nil {
				return err
			}
			return printValue(cmd, common.NewBoolValue(removed))
		},
	}
	zscoreCmd = &cobra.Command{
		Use:   "zscore [key] [name]",
		Short: "Gets the score of a sorted set member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, found, err := rpcStore.ZScore(args[0], args[1])
			if err != nil {
				return err
			}
			if !found {
				return printValue(cmd, common.NewNilValue())
			}
			return printValue(cmd, common.NewDblValue(score))
		},
	}
	zqueryCmd = &cobra.Command{
		Use:   "zquery [key] [score] [name] [offset] [limit]",
		Short: "Lists sorted set members starting at the first member >= (score, name)",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := parseScore(args[1])
			if err != nil {
				return err
			}
			offset, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				return fmt.Errorf("offset must be an integer: %w", err)
			}
			limit, err := strconv.ParseInt(args[4], 10, 64)
			if err != nil {
				return fmt.Errorf("limit must be an integer: %w", err)
			}
			members, err := rpcStore.ZQuery(args[0], score, args[2], offset, limit)
			if err != nil {
				return err
			}
			return printValue(cmd, membersValue(members))
		},
	}
)

func parseScore(s string) (float64, error) {
	score, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("score must be a number: %w", err)
	}
	return score, nil
}

// membersValue flattens members into [name, score, ...] like the server does
func membersValue(members []store.ZMember) common.Value {
	values := make([]common.Value, 0, 2*len(members))
	for _, m := range members {
		values = append(values, common.NewStringValue(m.Name), common.NewDblValue(m.Score))
	}
	return common.NewArrValue(values...)
}
