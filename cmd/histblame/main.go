package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/histblame/internal/config"
	"github.com/rohankatakam/histblame/internal/errors"
	"github.com/rohankatakam/histblame/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logging.Logger
	log     logrus.FieldLogger
	cfg     *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var e *errors.Error
		if verbose && stderrors.As(err, &e) {
			fmt.Fprint(os.Stderr, e.DetailedString())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 when the configuration needs fixing, 1 for any other failure
func exitCode(err error) int {
	typ, ok := errors.TypeOf(err)
	if ok && (typ == errors.ErrorTypeConfig || typ == errors.ErrorTypeValidation) {
		return 2
	}
	return 1
}
