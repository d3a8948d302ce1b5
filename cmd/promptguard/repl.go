package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/wardenlabs/promptguard/pkg/guard"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively try text against the detection engine",
	Long: `repl reads lines from stdin and runs each one through the engine,
printing its risk score and matches. Lines are shell-tokenized so a command
can carry flags:

  scan <text>          scan <text> at the default trust level
  scan --trust=untrusted <text>
  quickscan <text>      run the simplified QuickScan fast path
  quit | exit            leave the REPL`,
	Run: runRepl,
}

func runRepl(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := flags.outputConfig()

	settings, err := loadSettings(flags)
	if err != nil {
		os.Exit(OutputResult(out, "repl", start, nil, false, err))
	}

	logger := newLogger("repl", settings.LogLevel)
	defer logger.Close()

	gctx, err := buildContext(settings, logger)
	if err != nil {
		os.Exit(OutputResult(out, "repl", start, nil, false, err))
	}

	defaultTrust := guard.TrustLevel(settings.TrustLevel)
	if flags.trustLevel != "" {
		defaultTrust = guard.TrustLevel(flags.trustLevel)
	}

	fmt.Println("promptguard repl - type 'quit' to exit, 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	parser := shellwords.NewParser()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens, err := parser.Parse(line)
		if err != nil || len(tokens) == 0 {
			tokens = strings.Fields(line)
		}
		if len(tokens) == 0 {
			continue
		}

		switch tokens[0] {
		case "quit", "exit":
			return
		case "help":
			printReplHelp()
		case "quickscan":
			replQuickScan(gctx, strings.Join(tokens[1:], " "))
		case "scan":
			replScan(gctx, tokens[1:], defaultTrust)
		default:
			// Bare input with no recognized verb is treated as "scan" at
			// the default trust level, so pasting text in directly works.
			replScan(gctx, tokens, defaultTrust)
		}
	}
}

func printReplHelp() {
	fmt.Println("commands:")
	fmt.Println("  scan [--trust=LEVEL] <text>   scan text, optionally overriding trust level")
	fmt.Println("  quickscan <text>               run the QuickScan fast path")
	fmt.Println("  quit | exit                     leave the REPL")
}

func replScan(gctx *guard.Context, tokens []string, defaultTrust guard.TrustLevel) {
	trust := defaultTrust
	var words []string
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "--trust=") {
			trust = guard.TrustLevel(strings.TrimPrefix(tok, "--trust="))
			continue
		}
		words = append(words, tok)
	}
	text := strings.Join(words, " ")
	if text == "" {
		fmt.Println("usage: scan [--trust=LEVEL] <text>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := gctx.Scan(ctx, text, trust)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	status := "SAFE"
	if !result.Safe {
		status = "UNSAFE"
	}
	fmt.Printf("%s risk=%d matches=%d\n", status, result.Risk, len(result.Matches))
	for _, m := range result.Matches {
		fmt.Printf("  %-8s %s (confidence=%d)\n", strings.ToUpper(string(m.Severity)), m.PatternID, m.Confidence)
	}
	if result.Sanitized != text {
		fmt.Printf("sanitized: %s\n", result.Sanitized)
	}
}

func replQuickScan(gctx *guard.Context, text string) {
	if text == "" {
		fmt.Println("usage: quickscan <text>")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := gctx.QuickScan(ctx, text)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	status := "SAFE"
	if !result.Safe {
		status = "UNSAFE"
	}
	fmt.Printf("%s risk=%d\n", status, result.Risk)
}
