package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/gops/agent"
	"github.com/joho/godotenv"

	"github.com/NetCockpit/nc-analyzer/internal/config"
	"github.com/NetCockpit/nc-analyzer/pkg/log"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

var (
	flagManifest string
	flagGops     bool
	flagLogLevel string
)

func cliInit() {
	flag.StringVar(&flagManifest, "manifest", "", "Path to the detector manifest `json` file; the built-in default manifest is used when unset")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.StringVar(&flagLogLevel, "loglevel", "warn", "Sets the logging level: `[debug, info, warn, err, fatal]`")
	flag.Parse()
}

// main reads a single analysis request as JSON from stdin, runs it
// through the detector pipeline, and writes the response JSON to
// stdout — one process invocation per request, mirroring how the
// reference implementation is invoked from its calling service.
func main() {
	cliInit()
	log.SetLevel(flagLogLevel)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("could not load .env: %v", err)
	}

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent: %v", err)
		}
	}

	manifest := config.DefaultManifest()
	if flagManifest != "" {
		m, err := config.LoadManifest(flagManifest)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		manifest = m
	}

	pl, err := config.BuildPipeline(manifest)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading request: %v\n", err)
		os.Exit(1)
	}

	req, err := schema.DecodeRequest(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid request JSON: %v\n", err)
		os.Exit(1)
	}

	resp, err := pl.Process(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if err := writeResponse(os.Stdout, resp); err != nil {
		fmt.Fprintf(os.Stderr, "writing response: %v\n", err)
		os.Exit(1)
	}
}

func writeResponse(w io.Writer, resp schema.Response) error {
	enc := json.NewEncoder(w)
	return enc.Encode(resp)
}
