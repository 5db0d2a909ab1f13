package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/chat"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/modules"
)

// repl reads user lines and prints replies until the exit command or EOF.
type repl struct {
	manager *chat.Manager
	router  *modules.Router // nil when module routing is off
	catalog *i18n.Catalog
	label   string

	in  *bufio.Scanner
	out io.Writer
}

func newREPL(manager *chat.Manager, router *modules.Router, catalog *i18n.Catalog, label string, in io.Reader, out io.Writer) *repl {
	return &repl{
		manager: manager,
		router:  router,
		catalog: catalog,
		label:   label,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

func (r *repl) run(ctx context.Context) error {
	fmt.Fprintln(r.out, headerStyle.Render(r.catalog.Get(i18n.KeyWelcomeMessage)))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(r.out, userStyle.Render(r.catalog.Get(i18n.KeyUserInput)))
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}

		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}

		if name, ok := r.moduleCommand(line); ok {
			r.describeModule(name)
			continue
		}

		switch r.manager.ParseCommand(line) {
		case chat.CommandExit:
			return nil
		case chat.CommandReset:
			r.manager.Reset()
			fmt.Fprintln(r.out, statusStyle.Render("(reset)"))
			continue
		}

		if err := r.respond(ctx, line); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.printError(err)
		}
	}
}

// respond routes line to a module when one fits, otherwise to the chatbot.
func (r *repl) respond(ctx context.Context, line string) error {
	if r.router != nil {
		module, err := r.router.Route(ctx, line)
		switch {
		case err != nil:
			cliLog.Warnf("module routing failed, answering as chatbot: %v", err)
		case module != nil:
			out, err := module.Execute(ctx, line)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.out, "%s %s\n", moduleStyle.Render("["+module.Name()+"]"), out)
			return nil
		}
	}

	reply, err := r.manager.Submit(ctx, line)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s %s\n", botStyle.Render(r.label+":"), reply)
	return nil
}

// moduleCommand reports whether line asks for a module description and
// returns the module name.
func (r *repl) moduleCommand(line string) (string, bool) {
	word := r.catalog.Get(i18n.KeyModuleCommand)
	if word == "" || r.router == nil {
		return "", false
	}
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != word {
		return "", false
	}
	return fields[1], true
}

func (r *repl) describeModule(name string) {
	module, ok := r.router.Lookup(name)
	if !ok {
		fmt.Fprintln(r.out, errorStyle.Render(r.catalog.Format(i18n.KeyModuleUnknown, map[string]string{"name": name})))
		return
	}
	fmt.Fprintln(r.out, moduleStyle.Render("["+module.Name()+"]"))
	fmt.Fprintln(r.out, module.Metadata.Summary())
}

func (r *repl) printError(err error) {
	if errors.Is(err, llm.ErrTransport) {
		fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("%s: %v", llm.UnavailableMessage, err)))
		return
	}
	fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("error: %v", err)))
}
