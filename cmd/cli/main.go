package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"treestore/pkg/client"
	"treestore/pkg/common"

	flag "github.com/spf13/pflag"
)

const Prompt = "tree> "

func main() {
	serverAddr := flag.String("addr", "localhost:9090", "TreeStore TCP Server Address")
	flag.Parse()

	fmt.Printf("TreeStore CLI (Target: %s)\n", *serverAddr)
	fmt.Println("Connecting...")

	cli, err := client.Dial(*serverAddr)
	if err != nil {
		fmt.Printf("Connection failed: %v\n", err)
		fmt.Println("Tip: Ensure the server is running (e.g. go run ./cmd/server).")
		return
	}
	defer cli.Close()
	fmt.Println("Connected! Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "all", "ls":
			handleList(cli.All)
		case "roots":
			handleList(cli.Roots)
		case "get":
			handleGet(cli, parts)
		case "children", "kids":
			handleByID(cli.Children, "children", parts)
		case "descendants", "desc":
			handleByID(cli.Descendants, "desc", parts)
		case "ancestors", "anc":
			handleByID(cli.Ancestors, "anc", parts)
		case "help":
			printHelp()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Printf("Unknown command: '%s'. Type 'help'.\n", cmd)
		}
	}
}

func parseID(parts []string, usage string) (common.Identifier, bool) {
	if len(parts) < 2 {
		fmt.Printf("Usage: %s <id>   (7 is an integer id, \"7\" or abc a string id)\n", usage)
		return common.Identifier{}, false
	}
	id, err := common.ParseIdentifier(strings.Join(parts[1:], " "), "")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return common.Identifier{}, false
	}
	return id, true
}

func handleGet(cli *client.Client, parts []string) {
	id, ok := parseID(parts, "get")
	if !ok {
		return
	}

	start := time.Now()
	rec, err := cli.Get(id)
	duration := time.Since(start)

	switch {
	case errors.Is(err, client.ErrNotFound):
		fmt.Printf("(null) (%v)\n", duration)
	case err != nil:
		fmt.Printf("Error: %v\n", err)
	default:
		fmt.Printf("%s (%v)\n", rec, duration)
	}
}

func handleByID(query func(common.Identifier) ([]common.Record, error), usage string, parts []string) {
	id, ok := parseID(parts, usage)
	if !ok {
		return
	}
	handleList(func() ([]common.Record, error) { return query(id) })
}

func handleList(query func() ([]common.Record, error)) {
	start := time.Now()
	records, err := query()
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Found %d records (%v):\n", len(records), duration)
	for i := range records {
		if i >= 20 {
			fmt.Printf("... and %d more\n", len(records)-20)
			break
		}
		fmt.Printf("  %s\n", &records[i])
	}
}

func printHelp() {
	fmt.Println(`
Commands:
  all                    List every record in input order
  roots                  List root-like records
  get <id>               Retrieve record
  children <id>          Direct children
  desc <id>              All descendants
  anc <id>               Ancestors, nearest first
  exit                   Exit CLI

Ids: 7 is an integer id; "7" or abc is a string id.
	`)
}
