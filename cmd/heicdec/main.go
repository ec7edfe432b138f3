package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-heic/heic/heic"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	fileFlag := flag.String("file", "", "HEIC file to decode")
	flag.Parse()

	filePath := *fileFlag
	if filePath == "" && flag.NArg() > 0 {
		filePath = flag.Arg(0)
	}
	if filePath == "" {
		filePath = envOr("HEICDEC_FILE", "")
	}
	if filePath == "" {
		fmt.Fprintf(os.Stderr, "usage: heicdec <file.heic>\n")
		os.Exit(2)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Error("failed to read input file", "path", filePath, "error", err)
		os.Exit(1)
	}

	pic, err := heic.Decode(context.Background(), data)
	if err != nil {
		slog.Error("decode failed", "path", filePath, "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %dx%d, %d tile(s)\n", filePath, pic.Width, pic.Height, len(pic.Tiles))
	for _, tile := range pic.Tiles {
		codecString, err := tile.Config.CodecString()
		if err != nil {
			slog.Warn("codec string unavailable", "item_id", tile.ItemID, "error", err)
			codecString = "?"
		}
		fmt.Printf("  item %d: %dx%d slice_qp=%d codec=%s\n",
			tile.ItemID, tile.SPS.PicWidthInLumaSamples, tile.SPS.PicHeightInLumaSamples, tile.SliceQP, codecString)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
