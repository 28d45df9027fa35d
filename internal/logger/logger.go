package logger

import (
	"log"
	"os"
)

var Log *log.Logger

func Init(logFilePath string) error {
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}

	Log = log.New(file, "", log.LstdFlags)
	Log.Println("Logger initialized.")
	return nil
}

// Printf logs through the shared logger; a no-op before Init (tests).
func Printf(format string, args ...any) {
	if Log != nil {
		Log.Printf(format, args...)
	}
}
