package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/Jacobbrewer1/wardenbot/pkg/logging"
)

func main() {
	a, err := InitializeApp()
	if err != nil {
		log.Fatalln(err)
	}

	if err := parseConfig(a.Log()); err != nil {
		a.Error("Error parsing configuration", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}

	a.Info("Starting application")
	if err := a.Run(); err != nil {
		a.Error("Error running application", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}
}

// newLoggingConfig creates the logger configuration at the level set in the environment.
func newLoggingConfig(name logging.Name) (*logging.Config, error) {
	return logging.NewConfig(name).WithLevel(logLevel())
}
