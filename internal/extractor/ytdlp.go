// Package extractor resolves a video id into a direct, time-limited audio URL
// by running yt-dlp without downloading anything.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var ErrExtract = errors.New("yt-dlp extraction failed")

// WatchURLPrefix is the canonical watch page a video id is appended to.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

const audioFormat = "bestaudio/best"

var execCommand = exec.CommandContext

type YTDLP struct {
	binary      string
	cookiesPath string
	log         logrus.FieldLogger
}

func NewYTDLP(binary, cookiesPath string, log logrus.FieldLogger) *YTDLP {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLP{
		binary:      binary,
		cookiesPath: cookiesPath,
		log:         log,
	}
}

// StreamURL returns the direct media URL of the best audio-only format.
func (y *YTDLP) StreamURL(ctx context.Context, videoID string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", fmt.Errorf("%w: empty video id", ErrExtract)
	}

	out, err := y.run(ctx,
		"-f", audioFormat,
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"-J",
		"--", WatchURLPrefix+videoID,
	)
	if err != nil {
		return "", err
	}

	if !gjson.ValidBytes(out) {
		return "", fmt.Errorf("%w: invalid JSON output for %s", ErrExtract, videoID)
	}
	streamURL := gjson.GetBytes(out, "url").String()
	if streamURL == "" {
		return "", fmt.Errorf("%w: no url for %s", ErrExtract, videoID)
	}
	return streamURL, nil
}

func (y *YTDLP) run(ctx context.Context, args ...string) ([]byte, error) {
	if y.cookiesPath != "" {
		args = append([]string{"--cookies", y.cookiesPath}, args...)
	}

	cmd := execCommand(ctx, y.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if stderr.Len() > 0 && y.log != nil {
		y.log.WithFields(logrus.Fields{
			"args":   args,
			"stderr": strings.TrimSpace(stderr.String()),
		}).Warn("yt-dlp stderr output")
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExtract, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
