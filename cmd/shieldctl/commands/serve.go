package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/girste/shieldctl/internal/mcp"
	"github.com/girste/shieldctl/internal/systemd"
)

// RunServe starts the MCP server over stdio
func RunServe() {
	for i := 2; i < len(os.Args); i++ {
		if os.Args[i] == "--help" || os.Args[i] == "-h" {
			PrintServeHelp()
			return
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	analyzer := systemd.NewAnalyzer(systemd.NewCtl(nil))
	server := mcp.NewServer(analyzer)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve()
	}()

	select {
	case sig := <-sigChan:
		fmt.Fprintf(os.Stderr, "\nReceived %s signal, shutting down...\n", sig)
		os.Exit(0)

	case err := <-errChan:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	}
}
