package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/ironsheep/plate-locator/internal/config"
	"github.com/ironsheep/plate-locator/internal/detection"
	"github.com/ironsheep/plate-locator/internal/pipeline"
	"github.com/ironsheep/plate-locator/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("plate-locator %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "serve":
			os.Exit(serve(os.Args[2:]))
		case "config":
			os.Exit(showConfig(os.Args[2:], os.Stdout))
		}
	}
	os.Exit(batch(os.Args[1:], os.Stdin, os.Stdout))
}

func printHelp() {
	fmt.Println("plate-locator - find rows of license-plate characters in images")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  plate-locator [-in DIR] [-out DIR] [options]   process a folder")
	fmt.Println("  plate-locator serve [-config FILE]            run the MCP server on stdio")
	fmt.Println("  plate-locator config [-config FILE] [-o FILE] print the effective settings as YAML")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println("  -in DIR          Input folder (prompted when omitted)")
	fmt.Println("  -out DIR         Output folder (prompted when omitted)")
	fmt.Println("  -config FILE     YAML settings file")
	fmt.Println("  -env FILE        Environment file to load (default .env)")
	fmt.Println("  -workers N       Images processed at once")
	fmt.Println("  -extractor NAME  Outline extractor:", strings.Join(detection.Extractors(), ", "))
	fmt.Println("  -summary         Also write summary.yaml")
	fmt.Println()
	fmt.Println("Environment variables:")
	for _, name := range config.EnvNames() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println()
	fmt.Println("PLATE_LOG_LEVEL=debug enables debug logging on stderr.")
}

// setupLogging sends log output to stderr; stdout carries progress or the
// MCP protocol.
func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

// loadSettings reads the env file, then the YAML file, then the environment.
func loadSettings(envFile, configFile string) (*config.Settings, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	return config.Load(configFile)
}

func serve(args []string) int {
	setupLogging()

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configFile := fs.String("config", "", "YAML settings file")
	envFile := fs.String("env", ".env", "environment file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	s, err := loadSettings(*envFile, *configFile)
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return 1
	}
	if s.Debug() {
		log.Printf("Plate Locator MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	proc, err := pipeline.NewProcessor(s)
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return 1
	}
	if err := server.New(proc, Version).Run(); err != nil {
		log.Printf("Server error: %v", err)
		return 1
	}
	return 0
}

// showConfig prints the settings a run would use, or writes them to -o.
func showConfig(args []string, stdout io.Writer) int {
	setupLogging()

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	configFile := fs.String("config", "", "YAML settings file")
	envFile := fs.String("env", ".env", "environment file")
	outFile := fs.String("o", "", "write to FILE instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	s, err := loadSettings(*envFile, *configFile)
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return 1
	}
	if *outFile != "" {
		err = s.WriteFile(*outFile)
	} else {
		err = s.Encode(stdout)
	}
	if err != nil {
		log.Printf("Failed to write settings: %v", err)
		return 1
	}
	return 0
}

func batch(args []string, stdin io.Reader, stdout io.Writer) int {
	setupLogging()

	fs := flag.NewFlagSet("plate-locator", flag.ContinueOnError)
	inDir := fs.String("in", "", "input folder")
	outDir := fs.String("out", "", "output folder")
	configFile := fs.String("config", "", "YAML settings file")
	envFile := fs.String("env", ".env", "environment file")
	workers := fs.Int("workers", 0, "images processed at once")
	extractor := fs.String("extractor", "", "outline extractor")
	summary := fs.Bool("summary", false, "also write summary.yaml")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	s, err := loadSettings(*envFile, *configFile)
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			s.Workers = *workers
		case "extractor":
			s.Extractor = *extractor
		case "summary":
			s.Summary = *summary
		}
	})

	b, err := pipeline.NewBatch(s, stdout)
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return 1
	}

	fmt.Fprintf(stdout, "plate-locator %s\n", Version)
	in := bufio.NewReader(stdin)
	if *inDir == "" {
		if *inDir, err = promptPath(in, stdout, "Input Folder Path : "); err != nil {
			log.Printf("Failed to read input folder: %v", err)
			return 1
		}
	}
	if *outDir == "" {
		if *outDir, err = promptPath(in, stdout, "Output Folder Path : "); err != nil {
			log.Printf("Failed to read output folder: %v", err)
			return 1
		}
	}
	fmt.Fprintln(stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := b.Run(ctx, *inDir, *outDir); err != nil {
		log.Printf("Batch failed: %v", err)
		return 1
	}
	return 0
}

// promptPath writes label to w and reads one non-empty line from r.
func promptPath(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line != "" {
		return line, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return "", fmt.Errorf("no path given")
	}
	return "", err
}
