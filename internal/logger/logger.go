package logger

import (
	"io"
	"log"
	"os"
)

var Log *log.Logger

// Init opens (or creates) the log file and points the package logger at it.
// Called once at startup before any collaborator is constructed.
func Init(logFilePath string) error {
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}

	Log = log.New(file, "", log.LstdFlags)
	Log.Println("Logger initialized.")
	return nil
}

// InitDiscard wires the package logger to a sink so package code can log
// unconditionally in tests without a file on disk.
func InitDiscard() {
	Log = log.New(io.Discard, "", log.LstdFlags)
}
