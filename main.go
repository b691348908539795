package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kvforge/lsmstore/engine"
	"github.com/kvforge/lsmstore/envkit"
)

// DB is the minimal store interface the command loop below drives;
// engine.Engine satisfies it.
type DB interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Close() error
}

// Command identifies which operation a line of input requests.
type Command int

const (
	CommandUnknown Command = iota
	CommandInsert
	CommandUpdate
	CommandDelete
	CommandGet
)

func parseCommand(word string) Command {
	switch strings.ToUpper(word) {
	case "PUT", "INSERT":
		return CommandInsert
	case "UPDATE":
		return CommandUpdate
	case "DELETE", "DEL":
		return CommandDelete
	case "GET":
		return CommandGet
	default:
		return CommandUnknown
	}
}

func run(db DB, in *bufio.Scanner, out *bufio.Writer) {
	defer out.Flush()

	for in.Scan() {
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}

		switch parseCommand(fields[0]) {
		case CommandInsert, CommandUpdate:
			if len(fields) < 3 {
				fmt.Fprintln(out, "err: usage: PUT <key> <value>")
				continue
			}
			if err := db.Put([]byte(fields[1]), []byte(strings.Join(fields[2:], " "))); err != nil {
				fmt.Fprintln(out, "err:", err)
				continue
			}
			fmt.Fprintln(out, "ok")

		case CommandDelete:
			if len(fields) < 2 {
				fmt.Fprintln(out, "err: usage: DELETE <key>")
				continue
			}
			if err := db.Delete([]byte(fields[1])); err != nil {
				fmt.Fprintln(out, "err:", err)
				continue
			}
			fmt.Fprintln(out, "ok")

		case CommandGet:
			if len(fields) < 2 {
				fmt.Fprintln(out, "err: usage: GET <key>")
				continue
			}
			v, err := db.Get([]byte(fields[1]))
			if err != nil {
				fmt.Fprintln(out, "not found")
				continue
			}
			fmt.Fprintln(out, string(v))

		default:
			fmt.Fprintln(out, "err: unknown command", fields[0])
		}
	}
}

func main() {
	dir := "lsmstore-data"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	db, err := engine.Open(engine.Options{
		Dir:              dir,
		CacheCapacity:    16 << 20,
		FilterBitsPerKey: 10,
		SegmentBlocks:    16,
		FS:               envkit.NewReal(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "lsmstore:", err)
		os.Exit(1)
	}
	defer db.Close()

	run(db, bufio.NewScanner(os.Stdin), bufio.NewWriter(os.Stdout))
}
