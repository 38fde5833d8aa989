package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/client"
	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
)

var (
	// ReplCmd starts an interactive shell against an rKV server
	ReplCmd = &cobra.Command{
		Use:   "repl",
		Short: "Interactive shell for an rKV server",
		Long: `Reads commands line by line and prints the raw reply. Arguments are
separated by whitespace, double quotes group an argument and support Go
escape sequences (e.g. set greeting "hello world\n").`,
		Args: cobra.NoArgs,
		RunE: run,
	}

	completer = readline.NewPrefixCompleter(
		readline.PcItem("help"),

		readline.PcItem("get"),
		readline.PcItem("set"),
		readline.PcItem("del"),
		readline.PcItem("keys"),

		readline.PcItem("zadd"),
		readline.PcItem("zrem"),
		readline.PcItem("zscore"),
		readline.PcItem("zquery"),

		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
)

const helpText = `commands:
  get <key>                                   string value of key
  set <key> <value>                           store a string value
  del <key>                                   delete a key (1 if it existed)
  keys                                        list all keys
  zadd <key> <score> <name>                   add or update a member (1 if new)
  zrem <key> <name>                           remove a member
  zscore <key> <name>                         score of a member
  zquery <key> <score> <name> <offset> <limit> members from (score, name) on
  exit | quit                                 leave the shell`

func init() {
	cobra.OnInitialize(util.InitEnv)
	util.SetupRPCClientFlags(ReplCmd)

	key := "history-file"
	ReplCmd.Flags().String(key, defaultHistoryFile(), util.WrapString("File the command history is kept in (empty disables history)"))
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rkv_history")
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func run(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := util.ReadConfigFile(); err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}
	config := util.GetClientConfig()
	rpcStore, err := client.NewRPCStore(*config, t)
	if err != nil {
		return err
	}
	defer rpcStore.Close()

	historyFile, _ := cmd.Flags().GetString("history-file")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("rkv %s> ", strings.Join(config.Transport.Endpoints, ",")),
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	rl.CaptureExitSignal()

	return loop(rl, rpcStore, cmd.OutOrStdout())
}

// loop reads lines until EOF or exit and prints one reply per line
func loop(rl *readline.Instance, rpcStore *client.RPCStore, out io.Writer) error {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args, err := SplitArgs(line)
		if err != nil {
			fmt.Fprintf(out, "(error) %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch strings.ToLower(args[0]) {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprintln(out, helpText)
			continue
		}

		v, err := rpcStore.Do(args...)
		if err != nil {
			fmt.Fprintf(out, "(error) %v\n", err)
			continue
		}
		fmt.Fprintln(out, v.String())
	}
}
