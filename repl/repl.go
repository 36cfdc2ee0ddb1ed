package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ergochat/readline"

	"github.com/OleksandrMizov/CRDT/replica"
)

// REPL drives a handful of in-memory replicas from the console:
// create them, write registers, shuttle deltas between them, watch
// convergence happen.
type REPL struct {
	replicas map[string]*replica.Replica
	current  string
	rl       *readline.Instance
}

var ErrNoReplica = errors.New("no replica selected, try `new`")
var ErrQuit = errors.New("quit")

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("new"),
	readline.PcItem("use"),
	readline.PcItem("list"),

	readline.PcItem("write"),
	readline.PcItem("read"),
	readline.PcItem("reset"),
	readline.PcItem("ctx"),

	readline.PcItem("sync"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func (repl *REPL) Open() (err error) {
	repl.replicas = make(map[string]*replica.Replica)
	repl.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "◌ ",
		HistoryFile:     ".crdt_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	repl.rl.CaptureExitSignal()
	return
}

func (repl *REPL) Close() error {
	if repl.rl != nil {
		_ = repl.rl.Close()
		repl.rl = nil
	}
	return nil
}

func (repl *REPL) REPL() error {
	line, err := repl.rl.Readline()
	if err == readline.ErrInterrupt && len(line) != 0 {
		return nil
	}
	if err != nil {
		return err
	}

	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	cmd := line
	arg := ""
	if ws := strings.IndexAny(line, " \t"); ws > 0 {
		cmd = line[:ws]
		arg = strings.TrimSpace(line[ws:])
	}

	switch cmd {
	case "help":
		fmt.Println("new <replica> | use <replica> | list | write <reg> <json> | read <reg> | reset <reg> | ctx | sync <a> <b> | quit")
		return nil
	case "new":
		return repl.CommandNew(arg)
	case "use":
		return repl.CommandUse(arg)
	case "list":
		return repl.CommandList()
	case "write":
		return repl.CommandWrite(arg)
	case "read":
		return repl.CommandRead(arg)
	case "reset":
		return repl.CommandReset(arg)
	case "ctx":
		return repl.CommandContext()
	case "sync":
		return repl.CommandSync(arg)
	case "exit", "quit":
		return ErrQuit
	}
	fmt.Printf("unknown command %q, try `help`\n", cmd)
	return nil
}

func main() {
	repl := REPL{}
	if err := repl.Open(); err != nil {
		fmt.Println(err.Error())
		return
	}
	defer repl.Close()
	for {
		err := repl.REPL()
		if err == ErrQuit || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			fmt.Println(err.Error())
		}
	}
}
