// Command camscan scans barcodes from a live camera, or replays still
// images through the same pipeline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/frame-scanner-go/internal/capture"
	"github.com/anime-shed/frame-scanner-go/internal/config"
	"github.com/anime-shed/frame-scanner-go/internal/container"
	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	"github.com/anime-shed/frame-scanner-go/internal/factory"
	"github.com/anime-shed/frame-scanner-go/internal/logger"
)

type detectionLine struct {
	Sequence uint64    `json:"sequence"`
	Captured time.Time `json:"captured"`
	Format   string    `json:"format"`
	Text     string    `json:"text"`
	Snapshot string    `json:"snapshot,omitempty"`
}

func main() {
	device := flag.String("device", "/dev/video0", "V4L2 device to read")
	backend := flag.String("backend", "v4l2", "camera backend: v4l2 or opencv")
	images := flag.String("images", "", "comma separated image files to replay instead of a camera")
	interval := flag.Duration("interval", 200*time.Millisecond, "delay between replayed images")
	loop := flag.Bool("loop", false, "replay images forever")
	formats := flag.String("formats", "", "symbologies to decode, defaults to SCAN_FORMATS")
	once := flag.Bool("once", false, "stop after the first decoded symbol")
	snapshots := flag.String("snapshots", "", "directory to save frames that produced a result")
	upload := flag.String("upload", "", "blob container to upload snapshots to")
	flag.Parse()

	logger.UseTextFormat()
	logger.SetOutput(os.Stderr)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}
	if *formats != "" {
		parsed, err := decoder.ParseFormats(*formats)
		if err != nil {
			logger.WithError(err).Fatal("Invalid -formats")
		}
		cfg.ScanFormats = parsed
	}
	log := logger.Component("camscan")

	source, err := openSource(*backend, *device, *images, *interval, *loop)
	if err != nil {
		log.WithError(err).Fatal("Failed to open frame source")
	}
	defer source.Close()

	var writer *capture.SnapshotWriter
	if *snapshots != "" {
		if writer, err = snapshotWriter(cfg, *snapshots, *upload); err != nil {
			log.WithError(err).Fatal("Failed to prepare snapshots")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := json.NewEncoder(os.Stdout)
	var pipeline *capture.Pipeline
	pipeline, err = capture.NewPipeline(source, capture.Config{
		Analyzer:   container.AnalyzerOptions(cfg),
		KeepImages: writer != nil,
	}, func(det capture.Detection) {
		line := detectionLine{
			Sequence: det.Sequence,
			Captured: det.Captured,
			Format:   string(det.Result.Format),
			Text:     det.Result.Text,
		}
		if writer != nil {
			location, err := writer.Save(ctx, det)
			if err != nil {
				log.WithError(err).Warn("Failed to save snapshot")
			}
			line.Snapshot = location
		}
		if err := out.Encode(line); err != nil {
			log.WithError(err).Error("Failed to write result")
		}
		if *once {
			pipeline.Detach()
		}
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create pipeline")
	}

	log.WithFields(logrus.Fields{
		"backend": *backend,
		"formats": cfg.ScanFormats,
	}).Info("Scanning")

	if err := pipeline.Run(ctx); err != nil {
		log.WithError(err).Error("Capture failed")
		os.Exit(1)
	}
}

func openSource(backend, device, images string, interval time.Duration, loop bool) (capture.Source, error) {
	if images != "" {
		decoded, err := capture.LoadImages(strings.Split(images, ","))
		if err != nil {
			return nil, err
		}
		src := capture.NewImageSource(decoded, interval)
		if loop {
			src.WithLoop()
		}
		return src, nil
	}

	switch backend {
	case "opencv":
		return capture.NewCameraSource(device)
	default:
		return capture.NewWebcamSource(device)
	}
}

func snapshotWriter(cfg *config.Config, dir, blobContainer string) (*capture.SnapshotWriter, error) {
	writer, err := capture.NewSnapshotWriter(dir)
	if err != nil || blobContainer == "" {
		return writer, err
	}

	blobs, err := factory.NewStorageFactory(factory.StorageConfig{
		AzureAccount:  cfg.AzureStorageAccount,
		AzureKey:      cfg.AzureStorageKey,
		MaxImageBytes: cfg.MaxRequestBodySize,
	}).CreateBlobStorage()
	if err != nil {
		return nil, err
	}
	if blobs == nil {
		logger.Warn("Snapshot upload requested but AZURE_STORAGE_ACCOUNT is not set")
		return writer, nil
	}
	return writer.WithUpload(blobs, blobContainer), nil
}
