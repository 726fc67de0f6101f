package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/benz9527/xbst/config"
	"github.com/benz9527/xbst/lib/sched"
	"github.com/benz9527/xbst/lib/tree"
	"github.com/benz9527/xbst/render"
)

const helpText = `commands:
  insert|i <key>     insert a key
  delete|r <key>     delete a key
  search|s <key>     search a key
  step|space         advance the current task by one step
  trace|t [on|off]   toggle or set step by step tracing
  new|n              start over with an empty tree
  show               print the tree
  tasks              print the pending tasks
  config             print the effective configuration
  quit|q             leave
`

// Exec runs one command line. Only output failures and quit are returned,
// command mistakes are reported to the user.
func (sh *Shell) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "insert", "i":
		return sh.push(sched.KindInsert, cmd, args)
	case "delete", "r":
		return sh.push(sched.KindDelete, cmd, args)
	case "search", "s":
		return sh.push(sched.KindSearch, cmd, args)
	case "step", "space":
		return sh.step()
	case "trace", "t":
		return sh.trace(args)
	case "new", "n":
		if err := sh.reset(); err != nil {
			return err
		}
		sh.logger.Info("new tree", zap.Bool("stepwise", sh.stepwise))
		return sh.show(nil)
	case "show":
		return sh.show(sh.sched.Current())
	case "tasks":
		return render.Tasks(sh.out, sh.sched.Tasks(), sh.style)
	case "config":
		cfg := config.Default()
		if sh.cfg != nil {
			cfg = sh.cfg()
		}
		return cfg.Dump(sh.out)
	case "help", "h", "?":
		sh.printf("%s", helpText)
	case "quit", "q", "exit":
		return errShellQuit
	default:
		sh.printf("unknown command %q, type help\n", fields[0])
	}
	return nil
}

func (sh *Shell) push(kind sched.Kind, cmd string, args []string) error {
	if len(args) != 1 {
		sh.printf("usage: %s <key>\n", cmd)
		return nil
	}
	key, err := strconv.Atoi(args[0])
	if err != nil {
		sh.printf("invalid key %q\n", args[0])
		return nil
	}

	traced := sh.sched.Tree().Stepwise()
	var task *sched.Task[int]
	switch kind {
	case sched.KindInsert:
		task, err = sh.sched.PushInsert(key, traced)
	case sched.KindDelete:
		task, err = sh.sched.PushDelete(key, traced)
	case sched.KindSearch:
		task, err = sh.sched.PushSearch(key, traced)
	default:
	}
	if !traced {
		sh.report(task, err)
	}
	return sh.show(task)
}

func (sh *Shell) step() error {
	task := sh.sched.Current()
	state, err := sh.sched.AdvanceCurrent()
	switch state {
	case sched.NoTasks:
		sh.printf("%s\n", msgNoMoreTasks)
		return nil
	case sched.TaskFinished:
		sh.printf("%s\n", msgTaskFinished)
		sh.report(task, err)
	default:
	}
	return sh.show(task)
}

func (sh *Shell) trace(args []string) error {
	on := !sh.sched.Tree().Stepwise()
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on":
			on = true
		case "off":
			on = false
		default:
			sh.printf("usage: trace [on|off]\n")
			return nil
		}
	}
	sh.setTracing(on)
	sh.printf("%s\n", render.Caption(sh.sched.Current(), on))
	return nil
}

// report prints the outcome of a finished task.
func (sh *Shell) report(task *sched.Task[int], err error) {
	if task == nil {
		return
	}
	switch {
	case errors.Is(err, tree.ErrBSTEmpty):
		sh.printf("%s\n", sh.style.Paint("the tree is empty", color.FgRed))
	case errors.Is(err, tree.ErrBSTKeyNotFound):
		sh.printf("%s\n", sh.style.Paint(fmt.Sprintf("key %d not found", task.Key()), color.FgRed))
	case err != nil:
		sh.printf("%s\n", sh.style.Paint(fmt.Sprintf("error: %v", err), color.FgRed))
	case task.Kind() == sched.KindInsert:
		sh.printf("inserted %d\n", task.Key())
	case task.Kind() == sched.KindDelete:
		sh.printf("deleted %d\n", task.Key())
	case task.Kind() == sched.KindSearch:
		sh.printf("found %d\n", task.Key())
	default:
	}
}

// show prints the tree with the progress of task highlighted.
func (sh *Shell) show(task *sched.Task[int]) error {
	if err := render.Levels(sh.out, sh.sched.Tree(), render.HighlightOf(task), sh.style); err != nil {
		return err
	}
	sh.printf("%s\n", render.Caption(sh.sched.Current(), sh.sched.Tree().Stepwise()))
	return nil
}
