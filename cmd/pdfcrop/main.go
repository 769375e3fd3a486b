package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/wudi/pdfcrop/cropper"
	"github.com/wudi/pdfcrop/observability"
)

const usage = "Usage: pdfcrop <input.pdf> <output.pdf>\n"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// run crops args[0] into args[1] and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	log := observability.NewLogrus(newLogger(stdout))

	_, err := cropper.CropFile(ctx, args[0], args[1],
		cropper.WithLogger(log),
		cropper.WithTracer(observability.LogTracer(log)),
	)
	if err != nil {
		fmt.Fprintf(stderr, "pdfcrop: %v\n", err)
		return 1
	}
	return 0
}
