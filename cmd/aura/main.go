// Command aura is the AuraDB client: a thin wrapper over the session
// protocol offering a one-shot "exec" and an interactive "shell".
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/auradb/aura/internal/session"
)

var flagHost = flag.String("host", "127.0.0.1:7654", "server address")

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: aura [-host addr] <shell|exec> [query]")
		os.Exit(2)
	}

	switch args[0] {
	case "shell":
		runShell(*flagHost)
	case "exec":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: aura exec '<query>'")
			os.Exit(2)
		}
		runExec(*flagHost, strings.Join(args[1:], " "))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", args[0])
		os.Exit(2)
	}
}

func runExec(addr, query string) {
	client, err := session.Connect(addr)
	if err != nil {
		log.Fatalf("connect to %s: %v", addr, err)
	}
	defer client.Close()

	res, err := client.SendQuery(query)
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}
	fmt.Println(res)
}

func runShell(addr string) {
	client, err := session.Connect(addr)
	if err != nil {
		log.Fatalf("connect to %s: %v", addr, err)
	}
	defer client.Close()

	fmt.Printf("connected to %s. type .exit to quit.\n", addr)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("aura> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ".exit" {
			break
		}

		res, err := client.SendQuery(line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(res)
	}
}
