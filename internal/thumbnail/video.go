package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// generateVideoFrame shells out to ffmpeg to grab a single frame at the
// configured offset, scaled and center-cropped to the thumbnail size.
// Missing ffmpeg or an undecodable stream surface as ordinary errors and
// degrade to a thumbnail-less file upstream.
func (g *Generator) generateVideoFrame(ctx context.Context, src, dst string) error {
	w, h := g.cfg.Image.Width, g.cfg.Image.Height
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", w, h, w, h)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", strconv.Itoa(g.cfg.Video.FrameOffsetSeconds),
		"-i", src,
		"-frames:v", "1",
		"-vf", filter,
		"-y", dst,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg frame extraction: %w: %s", err, lastLine(stderr.Bytes()))
	}

	return nil
}

// lastLine trims ffmpeg's noisy stderr down to its final line, which carries
// the actual failure reason.
func lastLine(out []byte) string {
	out = bytes.TrimSpace(out)
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}
	return string(out)
}
