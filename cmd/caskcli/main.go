package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"caskdb/rpc"

	"github.com/sirupsen/logrus"
)

const usage = `commands:
  put <key> <value>   write a value
  get <key>           read a value
  delete <key>        delete a key (alias: del)
  keys                list all keys
  stat                show storage statistics
  exit                quit
keys and values may be quoted: put "my key" 'my value'`

func main() {
	addr := flag.String("addr", "localhost:1234", "caskd rpc address")
	flag.Parse()

	client, err := rpc.Dial(*addr)
	if err != nil {
		logrus.WithError(err).Fatal("connect")
	}
	defer client.Close()

	fmt.Printf("Connected to %s\n", *addr)
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")
	repl(client, os.Stdin, os.Stdout)
}

func repl(client *rpc.Client, in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "> ")

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			if err != nil {
				return
			}
			continue
		case "exit", "quit":
			return
		case "help":
			fmt.Fprintln(out, usage)
			continue
		}

		cmd, perr := rpc.ParseCommand(line)
		if perr != nil {
			fmt.Fprintln(out, "parse error:", perr)
			continue
		}
		resp, rerr := cmd.Execute(client)
		if rerr != nil {
			fmt.Fprintln(out, "error:", rerr)
			continue
		}
		fmt.Fprintln(out, resp)

		if err != nil {
			return
		}
	}
}
