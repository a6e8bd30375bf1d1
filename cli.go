package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
)

// runCLI is the command dispatcher task: it owns the operator input
// stream, reads lines with history via liner, and hands each one to
// Router.dispatch. It exits when ctx is cancelled or stdin closes.
func runCLI(ctx context.Context, r *Router) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			text, err := line.Prompt("> ")
			if err != nil {
				if err != io.EOF && err != liner.ErrPromptAborted {
					fmt.Fprintln(os.Stderr, "cli: ", err)
				}
				return
			}
			lines <- text
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			line.AppendHistory(text)

			cmd, err := parseCommand(text)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				continue
			}
			out, err := r.dispatch(cmd)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				continue
			}
			fmt.Println(out)
			if cmd.name == "crash" {
				return
			}
		}
	}
}
