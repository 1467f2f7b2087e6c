package main

import (
	"fmt"
	"os"

	"github.com/tphakala/callguard/cmd"
	"github.com/tphakala/callguard/internal/buildinfo"
	"github.com/tphakala/callguard/internal/logger"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = ""
)

func main() {
	info := buildinfo.NewContext(version, buildDate)

	err := cmd.RootCommand(info).Execute()

	if closeErr := logger.Global().Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", closeErr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
