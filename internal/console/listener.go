package console

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

var rl *readline.Instance
var mu sync.Mutex

func initListener() error {
	var err error
	rl, err = readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "",
		EOFPrompt:       "",
	})
	return err
}

func closeListener() {
	if rl != nil {
		_ = rl.Close()
	}
}

func getInput() string {
	line, err := rl.Readline()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// printLine writes above the prompt without corrupting the input line.
func printLine(s string) {
	mu.Lock()
	defer mu.Unlock()
	if rl == nil {
		fmt.Println(s)
		return
	}
	_, _ = rl.Write([]byte("\r\n" + s + "\r\n"))
	rl.Refresh()
}

func clearScreen() {
	mu.Lock()
	defer mu.Unlock()
	if rl == nil {
		return
	}
	_, _ = rl.Write([]byte("\033[2J\033[H"))
	rl.Refresh()
}
