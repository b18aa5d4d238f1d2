package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jrsteele09/go-fittrack-client/internal/app"
	"github.com/jrsteele09/go-fittrack-client/internal/config"
	"github.com/jrsteele09/go-fittrack-client/session"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// cli holds what every command shares: streams, the lazily built app and global flags
type cli struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	noBanner   bool
	appOptions []app.Option

	cfg         config.Config
	app         *app.App
	invalidated atomic.Bool
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{in: in, reader: bufio.NewReader(in), out: out, errOut: errOut}
}

// application builds the app on first use
func (c *cli) application(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	opts := append([]app.Option{app.OnInvalidate(c.onInvalidate)}, c.appOptions...)
	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "[cli.application]")
	}
	c.app = a
	return a, nil
}

// config loads the configuration once, from --config or $FITTRACK_CONFIG
func (c *cli) config() (config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configPath
	if path == "" {
		path = os.Getenv("FITTRACK_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *cli) onInvalidate(inv session.Invalidation) {
	if c.invalidated.Swap(true) {
		return
	}
	fmt.Fprintf(c.errOut, "%s Your session has expired. Please log in again: fittrack login\n", text.FgYellow.Sprint("!"))
	if inv.Err != nil {
		fmt.Fprintf(c.errOut, "%s Saved credentials could not be removed. Run: fittrack logout\n", text.FgYellow.Sprint("!"))
	}
}

func (c *cli) close() {
	if c.app != nil {
		_ = c.app.Close()
	}
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *cli) success(format string, args ...any) {
	fmt.Fprintf(c.out, "%s %s\n", text.FgGreen.Sprint("✓"), fmt.Sprintf(format, args...))
}

// prompt reads one line, using def when the answer is empty
func (c *cli) prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(c.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(c.out, "%s: ", label)
	}
	line, err := c.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", errors.Wrapf(err, "reading %s", strings.ToLower(label))
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// password reads without echo when stdin is a terminal
func (c *cli) password(label string) (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(c.out, "%s: ", label)
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return "", errors.Wrap(err, "reading password")
		}
		return string(data), nil
	}
	return c.prompt(label, "")
}
