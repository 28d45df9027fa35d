// Package listener owns the interactive terminal: a readline prompt
// that background conversations can print above without clobbering
// whatever the user is typing.
package listener

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

var rl *readline.Instance
var mu sync.Mutex

func Init() error {
	var err error
	rl, err = readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "",
		EOFPrompt:       "",
	})
	return err
}

func Close() {
	if rl != nil {
		_ = rl.Close()
	}
}

func SetPrompt(p string) {
	mu.Lock()
	defer mu.Unlock()
	if rl != nil {
		rl.SetPrompt(p)
	}
}

// GetInput blocks for the next line. EOF and interrupts surface as an
// empty string so the caller's loop can decide what to do.
func GetInput() string {
	if rl == nil {
		return ""
	}
	line, err := rl.Readline()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// AsyncPrintln prints a line above the prompt and redraws it. Safe to
// call from any goroutine.
func AsyncPrintln(s string) {
	mu.Lock()
	defer mu.Unlock()
	if rl == nil {
		fmt.Println(s)
		return
	}
	_, _ = rl.Write([]byte("\r\n" + s + "\r\n"))
	rl.Refresh()
}
