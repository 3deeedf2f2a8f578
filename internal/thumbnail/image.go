package thumbnail

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// generateImage decodes src, crops it to a cover-fit square and writes a
// compressed JPEG to dst.
func (g *Generator) generateImage(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fill(img, g.cfg.Image.Width, g.cfg.Image.Height, imaging.Center, imaging.Lanczos)

	if err := imaging.Save(thumb, dst, imaging.JPEGQuality(g.cfg.Image.JPEGQuality)); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	return nil
}
