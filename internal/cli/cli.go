package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/yegor-usoltsev/chownmap/internal/fsys"
	"github.com/yegor-usoltsev/chownmap/internal/mapfile"
	"github.com/yegor-usoltsev/chownmap/internal/scaffold"
	"github.com/yegor-usoltsev/chownmap/internal/validate"
	"github.com/yegor-usoltsev/chownmap/internal/version"
	"github.com/yegor-usoltsev/chownmap/internal/walk"
)

const (
	exitFailure        = 1
	exitUsage          = 2
	exitSymlinkRefused = 3
	exitInterrupted    = 130
)

type root struct {
	Version kong.VersionFlag `name:"version" help:"Print version and exit."`

	Run      runCmd      `cmd:"" help:"Remap file ownership under directories through a mapping file."`
	Validate validateCmd `cmd:"" help:"Check mapping files and report every problem."`
	Sample   sampleCmd   `cmd:"" help:"Print a sample mapping file."`
}

type runCmd struct {
	Map            string   `name:"map" short:"m" required:"" help:"Mapping file (INI, or YAML for .yaml/.yml)."`
	IgnoreUID      bool     `name:"ignore-uid" help:"Leave user identifiers unchanged."`
	IgnoreGID      bool     `name:"ignore-gid" help:"Leave group identifiers unchanged."`
	DryRun         bool     `name:"dry-run" help:"Walk and report without changing anything (same as --ignore-uid --ignore-gid)."`
	FollowSymlinks bool     `name:"follow-symlinks" short:"s" help:"Descend into directories reached through symlinks. Loops are not detected."`
	Workers        int      `name:"workers" short:"j" default:"0" help:"Expand directories on N parallel workers (0 walks serially)."`
	MaxDepth       int      `name:"max-depth" default:"0" help:"Do not list directories more than N levels below a root (0 means no limit)."`
	Verbose        int      `name:"verbose" short:"v" type:"counter" help:"Print visited paths; repeat to also print changes."`
	Dirs           []string `arg:"" name:"dir" help:"Directories to remap."`
}

func (c *runCmd) config() walk.Config {
	return walk.Config{
		IgnoreUID:      c.IgnoreUID || c.DryRun,
		IgnoreGID:      c.IgnoreGID || c.DryRun,
		FollowSymlinks: c.FollowSymlinks,
		Workers:        c.Workers,
		MaxDepth:       c.MaxDepth,
		Verbose:        c.Verbose,
	}
}

func (c *runCmd) Run(ctx context.Context) error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: --workers %d", errNegative, c.Workers)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: --max-depth %d", errNegative, c.MaxDepth)
	}
	m, err := mapfile.Load(c.Map)
	if err != nil {
		return fmt.Errorf("load mapping: %w", err)
	}
	roots, err := absPaths(c.Dirs)
	if err != nil {
		return err
	}

	cfg := c.config()
	if cfg.DryRun() {
		log.Printf("dry-run: no ownership will be changed")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := walk.New(fsys.OS{}, m, cfg, nil)
	if st := w.Walk(ctx, roots...); st != walk.StatusOK {
		return &statusError{status: st}
	}
	return nil
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("abs %s: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

type validateCmd struct {
	Files []string `arg:"" name:"file" help:"Mapping files to check."`
}

func (c *validateCmd) Run(ctx context.Context) error {
	if err := validate.Files(ctx, c.Files); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	log.Printf("validate: %d mapping file(s) ok", len(c.Files))
	return nil
}

type sampleCmd struct {
	Format string `name:"format" short:"f" help:"Sample format: ini or yaml (default from --output extension, else ini)."`
	Output string `name:"output" short:"o" help:"Write to this file instead of stdout. Existing files are not overwritten."`
}

func (c *sampleCmd) Run(_ context.Context) error {
	if err := scaffold.WriteSample(os.Stdout, c.Output, c.Format); err != nil {
		return fmt.Errorf("sample: %w", err)
	}
	if c.Output != "" {
		log.Printf("sample written: %s", c.Output)
	}
	return nil
}

func Run(args []string) int {
	if len(args) == 0 {
		args = []string{"--help"}
	}

	var cli root
	k, err := kong.New(
		&cli,
		kong.Name("chownmap"),
		kong.Description("Remap file owner and group identifiers through an explicit old to new table."),
		kong.UsageOnError(),
		kong.Writers(os.Stdout, os.Stderr),
		kong.Vars{"version": version.String()},
	)
	if err != nil {
		log.Printf("init cli: %v", err)
		return exitFailure
	}

	kctx, err := k.Parse(args)
	if err != nil {
		return parseExitCode(err)
	}

	// Run methods take the context.Context interface.
	kctx.BindTo(context.Background(), (*context.Context)(nil))
	if err := kctx.Run(); err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				log.Printf("validate: %s", e.Error())
			}
			return exitFailure
		}
		var serr *statusError
		if errors.As(err, &serr) {
			log.Printf("run: %v", serr)
			return serr.ExitCode()
		}
		log.Printf("command failed: %v", err)
		return exitFailure
	}

	return 0
}

var errNegative = errors.New("must not be negative")

// statusError carries a non-OK walk status to the exit code.
type statusError struct {
	status walk.Status
}

func (e *statusError) Error() string {
	return e.status.String()
}

func (e *statusError) ExitCode() int {
	switch e.status {
	case walk.StatusSymlinkRefused:
		return exitSymlinkRefused
	case walk.StatusCanceled:
		return exitInterrupted
	default:
		return exitFailure
	}
}

func parseExitCode(err error) int {
	var ec interface{ ExitCode() int }
	if errors.As(err, &ec) {
		code := ec.ExitCode()
		if code == 0 {
			return 0
		}
		log.Printf("parse args: %v", err)
		return code
	}
	// If this isn't an ExitCoder error, treat it as a usage error.
	log.Printf("parse args: %v", err)
	return exitUsage
}
