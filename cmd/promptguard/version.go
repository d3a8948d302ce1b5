package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

type versionResult struct {
	Version string `json:"version"`
}

func (v versionResult) PrintText() {
	fmt.Printf("promptguard %s\n", v.Version)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the promptguard version",
	Run: func(cmd *cobra.Command, args []string) {
		start := time.Now()
		code := OutputResult(flags.outputConfig(), "version", start, versionResult{Version: version}, false, nil)
		os.Exit(code)
	},
}
