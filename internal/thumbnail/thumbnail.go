// Package thumbnail derives fixed-size JPEG previews from uploaded blobs.
// Generation is always best-effort: callers log failures and carry on with
// a thumbnail-less file.
package thumbnail

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Strategy selects how a preview is derived from a blob.
type Strategy string

const (
	// StrategyImage decodes the blob as an image and resizes it.
	StrategyImage Strategy = "image"
	// StrategyVideo extracts a frame with ffmpeg and resizes it.
	StrategyVideo Strategy = "video"
)

type formatRule struct {
	Prefix   string   `yaml:"prefix"`
	Strategy Strategy `yaml:"strategy"`
}

type formatsConfig struct {
	Image struct {
		Width       int `yaml:"width"`
		Height      int `yaml:"height"`
		JPEGQuality int `yaml:"jpeg_quality"`
	} `yaml:"image"`
	Video struct {
		FrameOffsetSeconds int `yaml:"frame_offset_seconds"`
	} `yaml:"video"`
	Formats []formatRule `yaml:"formats"`
}

// Generator maps mimetypes to preview strategies and runs them. The mapping
// and output dimensions come from the embedded formats.yaml.
type Generator struct {
	cfg formatsConfig
}

// NewGenerator loads the embedded format registry.
func NewGenerator() (*Generator, error) {
	data, err := configFiles.ReadFile("config/formats.yaml")
	if err != nil {
		return nil, fmt.Errorf("read formats.yaml: %w", err)
	}

	var cfg formatsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal formats.yaml: %w", err)
	}

	if cfg.Image.Width <= 0 || cfg.Image.Height <= 0 {
		return nil, fmt.Errorf("formats.yaml: image dimensions must be positive")
	}

	return &Generator{cfg: cfg}, nil
}

// StrategyFor returns the preview strategy for a mimetype, false when the
// type has no preview (documents, archives, ...).
func (g *Generator) StrategyFor(mimetype string) (Strategy, bool) {
	for _, rule := range g.cfg.Formats {
		if strings.HasPrefix(mimetype, rule.Prefix) {
			return rule.Strategy, true
		}
	}
	return "", false
}

// Generate derives a JPEG preview of src at dst using the strategy for the
// given mimetype. Returns an error for unsupported mimetypes; check
// StrategyFor first.
func (g *Generator) Generate(ctx context.Context, src, dst, mimetype string) error {
	strategy, ok := g.StrategyFor(mimetype)
	if !ok {
		return fmt.Errorf("no thumbnail strategy for mimetype %q", mimetype)
	}

	switch strategy {
	case StrategyImage:
		return g.generateImage(src, dst)
	case StrategyVideo:
		return g.generateVideoFrame(ctx, src, dst)
	default:
		return fmt.Errorf("unknown thumbnail strategy %q", strategy)
	}
}
