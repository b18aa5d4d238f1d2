package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
)

func main() {
	// a missing .env is normal
	_ = godotenv.Load()

	os.Exit(run(os.Args[1:]))
}

func run(args []string) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			exitCode = ExitCodeError
		}
	}()

	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	defer c.close()

	// Ctrl-C abandons any polling in progress
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(c)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(c.errOut, errorText(err))
		return exitCodeFor(err)
	}
	return ExitCodeSuccess
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}

var errNotLoggedIn = fterrors.Newf(fterrors.ErrNotLoggedIn, "You are not logged in. Run: fittrack login")
