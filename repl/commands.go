package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/OleksandrMizov/CRDT/replica"
)

var HelpNew = errors.New("new n1")

func (repl *REPL) CommandNew(arg string) error {
	if arg == "" || strings.ContainsRune(arg, ':') {
		return HelpNew
	}
	if _, ok := repl.replicas[arg]; ok {
		return fmt.Errorf("replica %q already exists", arg)
	}
	repl.replicas[arg] = replica.New(arg, nil)
	repl.current = arg
	fmt.Printf("replica %s created\n", arg)
	return nil
}

var HelpUse = errors.New("use n1")

func (repl *REPL) CommandUse(arg string) error {
	if _, ok := repl.replicas[arg]; !ok {
		return HelpUse
	}
	repl.current = arg
	fmt.Printf("using %s\n", arg)
	return nil
}

func (repl *REPL) CommandList() error {
	for name, r := range repl.replicas {
		marker := " "
		if name == repl.current {
			marker = "*"
		}
		fmt.Printf("%s %s: %s\n", marker, name, strings.Join(r.Registers(), " "))
	}
	return nil
}

var HelpWrite = errors.New("write color \"blue\"")

func (repl *REPL) CommandWrite(arg string) error {
	r, err := repl.selected()
	if err != nil {
		return err
	}
	name := arg
	val := ""
	if ws := strings.IndexAny(arg, " \t"); ws > 0 {
		name = arg[:ws]
		val = strings.TrimSpace(arg[ws:])
	}
	if name == "" || val == "" || !json.Valid([]byte(val)) {
		return HelpWrite
	}
	return r.Write(name, json.RawMessage(val))
}

var HelpRead = errors.New("read color")

func (repl *REPL) CommandRead(arg string) error {
	r, err := repl.selected()
	if err != nil {
		return err
	}
	if arg == "" {
		return HelpRead
	}
	vals := r.Read(arg)
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	fmt.Printf("{%s}\n", strings.Join(out, " "))
	return nil
}

var HelpReset = errors.New("reset color")

func (repl *REPL) CommandReset(arg string) error {
	r, err := repl.selected()
	if err != nil {
		return err
	}
	if arg == "" {
		return HelpReset
	}
	return r.Reset(arg)
}

func (repl *REPL) CommandContext() error {
	r, err := repl.selected()
	if err != nil {
		return err
	}
	fmt.Println(r.Context().String())
	return nil
}

var HelpSync = errors.New("sync n1 n2")

// CommandSync shuttles the queued deltas both ways.
func (repl *REPL) CommandSync(arg string) error {
	parts := strings.Fields(arg)
	if len(parts) != 2 {
		return HelpSync
	}
	a, ok := repl.replicas[parts[0]]
	if !ok {
		return HelpSync
	}
	b, ok := repl.replicas[parts[1]]
	if !ok {
		return HelpSync
	}
	recs, err := a.Feed()
	if err != nil {
		return err
	}
	if err = b.Drain(recs); err != nil {
		return err
	}
	recs, err = b.Feed()
	if err != nil {
		return err
	}
	if err = a.Drain(recs); err != nil {
		return err
	}
	fmt.Printf("synced %s and %s\n", parts[0], parts[1])
	return nil
}

func (repl *REPL) selected() (*replica.Replica, error) {
	r, ok := repl.replicas[repl.current]
	if !ok {
		return nil, ErrNoReplica
	}
	return r, nil
}
