package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/bootstrap"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "server":
		if err := bootstrap.Run(config.Load()); err != nil {
			fmt.Fprintf(os.Stderr, "lockrs: %v\n", err)
			os.Exit(1)
		}
	case "version":
		version.PrintVersion()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("OAuth 2.0 credential lifecycle server")
	fmt.Println("\nCommands:")
	fmt.Println("  server     Start the server")
	fmt.Println("  version    Show version information")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}
