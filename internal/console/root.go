package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"blockmate/internal/display"
	"blockmate/internal/logger"
	"blockmate/internal/pipeline"
)

const helpText = `Type a natural-language instruction and the bot will act on it.
Examples: "walk 3 steps forward", "mine some stone", "前に3歩歩いて"

Reserved commands:
  status        show executor status
  history       show recent commands
  preview <i>   show the plan for instruction <i> without executing it
  consult <g>   ask for a next-step suggestion toward goal <g>
  stop          emergency stop (clears any pending movement)
  clear         clear the screen
  help          this message
  exit / quit   leave`

// Run starts the interactive loop against an already-connected executor.
func Run(exec *pipeline.Executor) error {
	rootCmd := &cobra.Command{
		Use:   "agent",
		Short: "An LLM-driven game bot controller",
		Long:  `Translates natural-language instructions into bot actions and dispatches them sequentially to the game.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(exec)
		},
	}
	return rootCmd.Execute()
}

func runLoop(exec *pipeline.Executor) error {
	if err := initListener(); err != nil {
		return fmt.Errorf("could not init terminal input: %w", err)
	}
	defer closeListener()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		exec.EmergencyStop()
		fmt.Println("\nGoodbye!")
		os.Exit(0)
	}()

	printLine("Connected. Tell me what to do (type 'help' for commands).")

	for {
		input := getInput()
		if input == "" {
			continue
		}
		if !handleInput(exec, input) {
			break
		}
	}
	return nil
}

// handleInput runs one console line. Returns false to leave the loop.
// Reserved words short-circuit to administrative actions; everything else is
// treated as a natural-language instruction.
func handleInput(exec *pipeline.Executor, input string) (keep bool) {
	keep = true

	// No single command may take the loop down.
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Printf("[console] panic on %q: %v", input, rec)
			printLine(fmt.Sprintf("[ERROR] command failed unexpectedly: %v", rec))
		}
	}()

	lower := strings.ToLower(input)
	switch {
	case lower == "exit" || lower == "quit":
		fmt.Println("Goodbye!")
		return false

	case lower == "help":
		printLine(helpText)
		return true

	case lower == "clear":
		clearScreen()
		return true

	case lower == "status":
		printLine(display.FormatStatus(exec.Status()))
		return true

	case lower == "history":
		printLine(display.FormatHistory(exec.History(10)))
		return true

	case lower == "stop":
		exec.EmergencyStop()
		printLine("Emergency stop: execution halted, movement goal cleared.")
		return true

	case strings.HasPrefix(lower, "preview "):
		instruction := strings.TrimSpace(input[len("preview "):])
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		plan, err := exec.Preview(ctx, instruction)
		if err != nil {
			printLine(fmt.Sprintf("[Preview FAILED] %v", err))
		} else {
			printLine(display.FormatPlan(plan))
		}
		return true

	case strings.HasPrefix(lower, "consult "):
		goal := strings.TrimSpace(input[len("consult "):])
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		suggestion, err := exec.ConsultNextAction(ctx, goal)
		if err != nil {
			printLine(fmt.Sprintf("[Consult FAILED] %v", err))
		} else {
			printLine("Suggestion: " + suggestion)
		}
		return true
	}

	cm, err := exec.ExecuteCommand(context.Background(), input)
	if err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			printLine("Busy: a command is already executing. Try again when it finishes (or 'stop').")
		} else {
			printLine(fmt.Sprintf("[Command FAILED] %v", err))
		}
		return true
	}

	printLine(display.FormatResult(cm))
	return true
}
