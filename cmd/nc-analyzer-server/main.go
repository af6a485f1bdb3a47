package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/joho/godotenv"

	"github.com/NetCockpit/nc-analyzer/internal/alertsink"
	"github.com/NetCockpit/nc-analyzer/internal/archiver"
	"github.com/NetCockpit/nc-analyzer/internal/config"
	"github.com/NetCockpit/nc-analyzer/internal/httpapi"
	"github.com/NetCockpit/nc-analyzer/internal/scheduler"
	"github.com/NetCockpit/nc-analyzer/internal/telemetry"
	"github.com/NetCockpit/nc-analyzer/pkg/log"
)

var (
	flagAddr            string
	flagManifest        string
	flagNATSAddr        string
	flagNATSSubject     string
	flagS3Bucket        string
	flagS3Region        string
	flagS3Endpoint      string
	flagReprocessEvery  time.Duration
	flagCompactHourUTC  int
	flagGops            bool
	flagLogLevel        string
)

func cliInit() {
	flag.StringVar(&flagAddr, "listen", ":8090", "Address the HTTP API binds to")
	flag.StringVar(&flagManifest, "manifest", "", "Path to the detector manifest `json` file; the built-in default manifest is used when unset")
	flag.StringVar(&flagNATSAddr, "nats-addr", "", "NATS server address alerts are published to (disabled when empty)")
	flag.StringVar(&flagNATSSubject, "nats-subject", "", "NATS subject alerts are published to")
	flag.StringVar(&flagS3Bucket, "s3-bucket", "", "S3 bucket completed analysis results are archived to (disabled when empty)")
	flag.StringVar(&flagS3Region, "s3-region", "", "AWS region of the archival bucket")
	flag.StringVar(&flagS3Endpoint, "s3-endpoint", "", "Custom S3-compatible endpoint (e.g. for MinIO); AWS's default endpoint is used when unset")
	flag.DurationVar(&flagReprocessEvery, "reprocess-every", 0, "Interval for the recurring batch reprocessing job (disabled when zero)")
	flag.IntVar(&flagCompactHourUTC, "compact-hour-utc", 2, "Hour of day (UTC) the archive compaction job runs at")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.StringVar(&flagLogLevel, "loglevel", "warn", "Sets the logging level: `[debug, info, warn, err, fatal]`")
	flag.Parse()
}

// main runs the analyzer as a long-lived HTTP service: an /v1/analyze
// endpoint backed by the same detector pipeline the CLI entry point
// uses, a /metrics endpoint, and recurring jobs for batch reprocessing
// (optional) and archive compaction.
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
			log.Fatalf("loading manifest: %v", err)
		}
		manifest = m
	}

	pl, err := config.BuildPipeline(manifest)
	if err != nil {
		log.Fatalf("building pipeline: %v", err)
	}

	sink, err := alertsink.Connect(alertsink.Config{
		Address: flagNATSAddr,
		Subject: flagNATSSubject,
	})
	if err != nil {
		log.Fatalf("connecting alert sink: %v", err)
	}
	defer sink.Close()

	uploader, err := archiver.NewUploader(context.Background(), archiver.S3Config{
		Bucket:   flagS3Bucket,
		Region:   flagS3Region,
		Endpoint: flagS3Endpoint,
	})
	if err != nil {
		log.Fatalf("creating archival uploader: %v", err)
	}
	arc := archiver.New(uploader)

	metrics := telemetry.New()
	server := httpapi.New(flagAddr, pl, metrics, sink, arc)

	sched, err := scheduler.New()
	if err != nil {
		log.Fatalf("creating scheduler: %v", err)
	}
	if err := sched.RegisterReprocessing(flagReprocessEvery, func(ctx context.Context) error {
		log.Debug("scheduler: reprocessing tick (no-op, nothing queued)")
		return nil
	}); err != nil {
		log.Fatalf("registering reprocessing job: %v", err)
	}
	if err := sched.RegisterArchiveCompaction(flagCompactHourUTC, func(ctx context.Context) error {
		log.Debug("scheduler: archive compaction tick (no-op, nothing queued)")
		return nil
	}); err != nil {
		log.Fatalf("registering archive compaction job: %v", err)
	}
	sched.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(); err != nil {
			log.Errorf("httpapi: %v", err)
		}
	}()

	wg.Add(1)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer wg.Done()
		<-sigs
		log.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Errorf("httpapi: shutdown: %v", err)
		}
		if err := sched.Shutdown(); err != nil {
			log.Errorf("scheduler: shutdown: %v", err)
		}
	}()

	wg.Wait()
}
