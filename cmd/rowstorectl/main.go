// rowstorectl is a CLI for exercising a rowstore table from a schema
// file.
//
// Usage:
//
//	rowstorectl new --schema <file>          Validate a schema and open a REPL on an empty table
//	rowstorectl bench --schema <file> <n>    Insert n synthetic rows and report throughput
//
// Commands (in REPL):
//
//	insert <col=value>...          Insert a row
//	get <id>                       Look up a row by id column value
//	del <id>                       Tombstone a row by id column value
//	scan                           List every live row
//	count                          Show live and allocated row counts
//	export <file>                  Write a compressed snapshot
//	help                           Show this help
//	exit / quit / q                Exit
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/rowstore/internal/schemaconfig"
	"github.com/calvinalkan/rowstore/internal/snapshot"
	"github.com/calvinalkan/rowstore/pkg/rowstore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "new":
		return runNew(args[1:])
	case "bench":
		return runBench(args[1:])
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Println("usage: rowstorectl new --schema <file>")
	fmt.Println("       rowstorectl bench --schema <file> <n>")
}

func openSchema(fs *flag.FlagSet, args []string) (*rowstore.Table, error) {
	schemaPath := fs.String("schema", "", "path to a JSONC table schema")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *schemaPath == "" {
		return nil, fmt.Errorf("--schema is required")
	}

	schema, err := schemaconfig.Load(*schemaPath)
	if err != nil {
		return nil, err
	}

	return schemaconfig.BuildTable(schema)
}

func runNew(args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	table, err := openSchema(fs, args)
	if err != nil {
		return err
	}

	return (&repl{table: table}).run()
}

func runBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	table, err := openSchema(fs, args)
	if err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) != 1 {
		return fmt.Errorf("usage: rowstorectl bench --schema <file> <n>")
	}
	n, err := strconv.Atoi(remaining[0])
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid row count %q", remaining[0])
	}

	start := time.Now()
	for i := 0; i < n; i++ {
		id := uuid.New().String()
		if _, err := table.Insert(map[string]any{"id": id}); err != nil {
			return fmt.Errorf("insert %d: %w", i, err)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("inserted %d rows in %v (%.0f rows/s, allocated=%d live=%d)\n",
		n, elapsed, float64(n)/elapsed.Seconds(), table.AllocatedCount(), table.RowCount())
	return nil
}

type repl struct {
	table *rowstore.Table
	liner *liner.State
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)

	fmt.Printf("rowstorectl (columns=%d)\n", r.table.ColumnCount())
	fmt.Println("Type 'help' for available commands.")

	for {
		line, err := r.liner.Prompt("rowstore> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			return nil
		case "help", "?":
			r.printHelp()
		case "insert":
			r.cmdInsert(args)
		case "get":
			r.cmdGet(args)
		case "del", "delete":
			r.cmdDelete(args)
		case "scan", "ls":
			r.cmdScan()
		case "count":
			r.cmdCount()
		case "export":
			r.cmdExport(args)
		default:
			fmt.Printf("unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (r *repl) printHelp() {
	fmt.Println("insert <col=value>...   insert a row")
	fmt.Println("get <id>                look up a row by id")
	fmt.Println("del <id>                tombstone a row by id")
	fmt.Println("scan                    list every live row")
	fmt.Println("count                   show row counts")
	fmt.Println("export <file>           write a compressed snapshot")
	fmt.Println("exit                    quit")
}

func (r *repl) cmdInsert(args []string) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Printf("bad argument %q, expected col=value\n", arg)
			return
		}
		values[name] = value
	}

	ref, err := r.table.Insert(values)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("inserted row index=%d generation=%d\n", ref.Index(), ref.Generation())
}

func (r *repl) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <id>")
		return
	}
	ref, ok := r.table.LookupByID(args[0])
	if !ok {
		fmt.Println("not found")
		return
	}
	row, ok, err := r.table.ReadRow(ref)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("not found")
		return
	}
	fmt.Printf("%v\n", row)
}

func (r *repl) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: del <id>")
		return
	}
	ref, ok := r.table.LookupByID(args[0])
	if !ok {
		fmt.Println("not found")
		return
	}
	if r.table.Tombstone(ref) {
		fmt.Println("deleted")
	} else {
		fmt.Println("already gone")
	}
}

func (r *repl) cmdScan() {
	for _, ref := range r.table.ScanAll() {
		row, ok, err := r.table.ReadRow(ref)
		if err != nil || !ok {
			continue
		}
		fmt.Printf("%v\n", row)
	}
}

func (r *repl) cmdCount() {
	fmt.Printf("live=%d allocated=%d\n", r.table.RowCount(), r.table.AllocatedCount())
}

func (r *repl) cmdExport(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: export <file>")
		return
	}
	if err := snapshot.Export(r.table, args[0]); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("exported to %s\n", args[0])
}
