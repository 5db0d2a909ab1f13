// Package main provides the interactive chatbot command.
//
// The chatbot keeps a bounded transcript of the dialogue, asks the configured
// generation service for each reply and, when the transcript is full, forgets
// turns oldest-first or as chosen by the service itself.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/chat"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/config"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/conversation"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm/tokenizer"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/logging"
)

const version = "0.1.0"

var cliLog = logging.MustComponent("chatbot")

// options holds the parsed command line
type options struct {
	configPath  string
	overrides   config.Overrides
	verbose     bool
	showVersion bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Printf("chatbot v%s\n", version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return start(ctx, opts)
}

// parseFlags parses command line flags
func parseFlags(args []string) (*options, error) {
	opts := &options{}
	o := &opts.overrides

	flagSet := pflag.NewFlagSet("chatbot", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config file (default: ~/.superchargedchatbot/config.yaml)")
	flagSet.StringVar(&o.Provider, "provider", "", "generation backend: openai or anthropic")
	flagSet.StringVarP(&o.Model, "model", "m", "", "model name")
	flagSet.StringVarP(&o.Language, "lang", "l", "", "language of prompts and messages (default: from LANG)")
	flagSet.StringVar(&o.CatalogPath, "strings", "", "custom string table (YAML or JSONC)")
	flagSet.IntVar(&o.Capacity, "capacity", 0, "maximum turns kept in the transcript, preamble included")
	flagSet.IntVar(&o.DiscardBeams, "discard-beams", 0, "turns removed per eviction")
	flagSet.StringVar(&o.Policy, "policy", "", "eviction policy: fifo or zero_shot")
	flagSet.StringVarP(&o.AssistantName, "name", "n", "", "assistant name")
	flagSet.StringVar(&o.ModulesDir, "modules", "", "directory of task modules to route requests to")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "write debug logs")
	flagSet.BoolVar(&opts.showVersion, "version", false, "show version and exit")

	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "chatbot - a conversational assistant with bounded memory\n\n")
		fmt.Fprintf(os.Stderr, "Usage: chatbot [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n%s", flagSet.FlagUsages())
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY     OpenAI API key\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_BASE_URL    OpenAI API base URL (for compatible APIs)\n")
		fmt.Fprintf(os.Stderr, "  ANTHROPIC_API_KEY  Anthropic API key\n")
		fmt.Fprintf(os.Stderr, "  CHATAPI            API key used when no provider key is set\n")
	}

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", extra[0])
	}
	if opts.verbose {
		o.LogLevel = "debug"
	}
	return opts, nil
}

// start wires the configured components and runs the prompt loop.
func start(ctx context.Context, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	cfg.Apply(opts.overrides)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logging.SetLevel(level)

	catalog, err := config.LoadCatalog(cfg.I18n)
	if err != nil {
		return fmt.Errorf("failed to load strings: %w", err)
	}

	provider, err := config.BuildProvider(cfg.LLM)
	if err != nil {
		return err
	}

	buffer, err := config.BuildBuffer(cfg.Conversation, provider, catalog,
		conversation.WithEvictionHook(logEviction))
	if err != nil {
		return err
	}

	managerOpts := []chat.Option{chat.WithRequestTimeout(cfg.LLM.Timeout)}
	if level == logging.LevelDebug {
		tok, err := tokenizer.New()
		if err != nil {
			cliLog.Debugf("tokenizer unavailable, estimating prompt sizes: %v", err)
		}
		managerOpts = append(managerOpts, chat.WithTokenizer(tok))
	}

	manager, err := chat.NewManager(provider, buffer, catalog, managerOpts...)
	if err != nil {
		return err
	}

	router, err := config.BuildRouter(cfg.Modules, provider, catalog)
	if err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}

	cliLog.Infof("session %s, log file: %s", logging.GetSessionID(), cliLog.LogPath())
	err = newREPL(manager, router, catalog, buffer.Labels().Assistant, os.Stdin, os.Stdout).run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func logEviction(e conversation.EvictionEvent) {
	if e.Fallback {
		cliLog.Infof("evicted %d turns oldest-first (%s)", len(e.Removed), e.Reason)
		return
	}
	cliLog.Debugf("evicted %d turns chosen by %s: %v", len(e.Removed), e.Policy, e.Selected)
}
