package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/visionutils/qr-detect/internal/detect"
	"github.com/visionutils/qr-detect/internal/imaging"
	"github.com/visionutils/qr-detect/internal/qrcode"
	"github.com/visionutils/qr-detect/internal/validate"
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
			fmt.Printf("qr-detect %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	// Results go to stdout, logs to stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	logLevel := os.Getenv("QR_DETECT_LOG_LEVEL")
	if logLevel == "debug" {
		log.Printf("qr-detect v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "detect":
		if len(os.Args) < 3 {
			log.Fatal("detect requires at least one image path")
		}
		if err := runDetect(os.Args[2:]); err != nil {
			log.Fatalf("Detection error: %v", err)
		}
	case "validate":
		if len(os.Args) < 3 {
			log.Fatal("validate requires at least one annotation path")
		}
		failed, err := runValidate(os.Args[2:])
		if err != nil {
			log.Fatalf("Validation error: %v", err)
		}
		if failed > 0 {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("qr-detect - QR code detection and validation")
	fmt.Println()
	fmt.Println("Usage: qr-detect <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  detect <image>...        Detect QR codes and print results as JSON")
	fmt.Println("  validate <annotation>... Validate detections against annotation files")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  QR_DETECT_LOG_LEVEL=debug    Enable debug logging")
}

func newDetector() *detect.Detector {
	return detect.New(qrcode.NewReader(), imaging.DefaultConfig())
}

func runDetect(paths []string) error {
	det := newDetector()
	cache := imaging.NewImageCache()

	results := make(map[string][]detect.Detection, len(paths))
	for _, path := range paths {
		img, err := cache.Load(path)
		if err != nil {
			return err
		}
		detections, err := det.Detect(img)
		if err != nil {
			return fmt.Errorf("detection failed for %s: %w", path, err)
		}
		if os.Getenv("QR_DETECT_LOG_LEVEL") == "debug" {
			log.Printf("%s: %d detections", path, len(detections))
		}
		results[path] = detections
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func runValidate(paths []string) (failed int, err error) {
	det := newDetector()
	cache := imaging.NewImageCache()

	reports := make([]*validate.Report, 0, len(paths))
	for _, path := range paths {
		report, err := validate.Run(det, cache, path)
		if err != nil {
			return 0, err
		}
		if !report.Pass {
			failed++
			log.Printf("FAIL %s: %d expected, %d detected, %d matched",
				path, report.ExpectedCount, report.DetectedCount, len(report.Matched))
		} else if os.Getenv("QR_DETECT_LOG_LEVEL") == "debug" {
			log.Printf("PASS %s (average IoU %.3f)", path, report.AverageIoU)
		}
		reports = append(reports, report)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return 0, err
	}
	return failed, nil
}
