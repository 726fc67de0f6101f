package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xbst/config"
	"github.com/benz9527/xbst/lib/id"
	"github.com/benz9527/xbst/lib/sched"
	"github.com/benz9527/xbst/lib/tree"
	"github.com/benz9527/xbst/observability"
	"github.com/benz9527/xbst/render"
	"github.com/benz9527/xbst/xlog"
)

const (
	msgTaskFinished = "current task is finished"
	msgNoMoreTasks  = "there are no more tasks to complete"
)

var errShellQuit = errors.New("[shell] quit")

// Shell is the line oriented console host of one tree session. It reads
// commands, drives the scheduler and renders the tree after each command.
// A Shell is driven by a single goroutine, configuration reloads are
// handed over through a channel and applied between commands.
type Shell struct {
	in        *bufio.Scanner
	out       io.Writer
	prompt    string
	logger    xlog.XLogger
	style     render.Style
	stepwise  bool
	cfg       func() config.Config
	reloads   <-chan config.Config
	treeStats *observability.TreeStats
	idGen     id.Gen
	statsOn   bool
	sessions  int
	sched     *sched.Scheduler[int]
}

type ShellOption func(*Shell)

func WithShellPrompt(prompt string) ShellOption {
	return func(sh *Shell) {
		sh.prompt = prompt
	}
}

func WithShellLogger(logger xlog.XLogger) ShellOption {
	return func(sh *Shell) {
		if logger != nil {
			sh.logger = logger
		}
	}
}

func WithShellStyle(style render.Style) ShellOption {
	return func(sh *Shell) {
		sh.style = style
	}
}

func WithShellStepwise(stepwise bool) ShellOption {
	return func(sh *Shell) {
		sh.stepwise = stepwise
	}
}

// WithShellConfig exposes the effective configuration to the config
// command and applies the reloads received from ch.
func WithShellConfig(cfg func() config.Config, ch <-chan config.Config) ShellOption {
	return func(sh *Shell) {
		sh.cfg = cfg
		sh.reloads = ch
	}
}

func WithShellStats(treeStats *observability.TreeStats) ShellOption {
	return func(sh *Shell) {
		sh.treeStats = treeStats
		sh.statsOn = true
	}
}

func New(in io.Reader, out io.Writer, opts ...ShellOption) (*Shell, error) {
	sh := &Shell{
		in:       bufio.NewScanner(in),
		out:      out,
		logger:   xlog.NewNopXLogger(),
		stepwise: config.DefaultEngineStepwise,
	}
	for _, o := range opts {
		o(sh)
	}
	sh.idGen = id.MonotonicNonZeroID()
	if err := sh.reset(); err != nil {
		return nil, err
	}
	return sh, nil
}

// reset starts a new session, pending tasks are dropped with the old tree.
func (sh *Shell) reset() error {
	bst := tree.NewOrderedBST[int](func() []tree.BSTOpt[int] {
		if sh.stepwise {
			return []tree.BSTOpt[int]{tree.WithBSTStepwise[int]()}
		}
		return nil
	}()...)
	opts := []sched.SchedulerOption[int]{
		sched.WithSchedulerLogger[int](sh.logger.Named("sched")),
		sched.WithSchedulerIDGen[int](sh.idGen),
		sched.WithSchedulerObserver[int](sh.observe),
	}
	sh.sessions++
	if sh.statsOn {
		opts = append(opts,
			sched.WithSchedulerStats[int](),
			sched.WithSchedulerName[int](fmt.Sprintf("session-%d", sh.sessions)),
		)
	}
	s, err := sched.NewScheduler[int](bst, opts...)
	if err != nil {
		return err
	}
	sh.sched = s
	sh.recordStats()
	return nil
}

func (sh *Shell) observe(evt sched.Event, _ *sched.Task[int]) {
	if evt == sched.EventPushed {
		return
	}
	sh.recordStats()
}

func (sh *Shell) recordStats() {
	bst := sh.sched.Tree()
	sh.treeStats.Record(bst.Len(), bst.Height(), bst.NumberOfLeaves())
}

func (sh *Shell) Scheduler() *sched.Scheduler[int] {
	return sh.sched
}

func (sh *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(sh.out, format, args...)
}

// Run processes commands until quit, the end of the input or ctx is done.
// Lines are read on their own goroutine, so a cancelled ctx stops an idle
// console. That goroutine stays blocked in the reader until the input
// yields or is closed.
func (sh *Shell) Run(ctx context.Context) error {
	lines, scanErr := sh.readLines(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sh.applyReloads()
		if sh.prompt != "" {
			sh.printf("%s", sh.prompt)
		}

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-scanErr:
				return err
			default:
			}
			return ctx.Err()
		}
		if err := sh.Exec(line); err != nil {
			if errors.Is(err, errShellQuit) {
				return nil
			}
			return err
		}
	}
}

// readLines owns the scanner. The error channel is filled before lines is
// closed when the input ends.
func (sh *Shell) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines, scanErr := make(chan string), make(chan error, 1)
	go func() {
		defer close(lines)
		for sh.in.Scan() {
			select {
			case lines <- sh.in.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sh.in.Err()
	}()
	return lines, scanErr
}

func (sh *Shell) applyReloads() {
	for {
		select {
		case cfg, ok := <-sh.reloads:
			if !ok {
				sh.reloads = nil
				return
			}
			sh.apply(cfg)
		default:
			return
		}
	}
}

func (sh *Shell) apply(cfg config.Config) {
	sh.style.Color = cfg.Render.Color
	sh.setTracing(cfg.Engine.Stepwise)
	if lvl, err := zapcore.ParseLevel(strings.ToLower(cfg.Logging.Level)); err == nil {
		sh.logger.IncreaseLogLevel(lvl)
	}
	sh.logger.Info("configuration reloaded",
		zap.Bool("stepwise", cfg.Engine.Stepwise),
		zap.String("level", cfg.Logging.Level),
	)
}

func (sh *Shell) setTracing(on bool) {
	sh.stepwise = on
	sh.sched.Tree().SetStepwise(on)
}
