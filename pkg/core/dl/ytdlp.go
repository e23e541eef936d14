package dl

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os/exec"
	"strings"

	"github.com/Laky-64/gologging"
	"github.com/lrstanley/go-ytdlp"
)

// audioFormat asks for the best single audio stream, falling back to the best muxed one.
const audioFormat = "bestaudio/best"

// YtDlpBackend downloads audio by running yt-dlp and streaming its stdout.
type YtDlpBackend struct {
	Proxy       string
	CookiesPath []string
}

// NewYtDlpBackend creates a backend that uses the given proxy and cookie files.
func NewYtDlpBackend(proxy string, cookies []string) *YtDlpBackend {
	return &YtDlpBackend{Proxy: proxy, CookiesPath: cookies}
}

// newCommand returns a quiet yt-dlp command with the proxy applied.
func (y *YtDlpBackend) newCommand() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()

	if y.Proxy != "" {
		cmd.Proxy(y.Proxy)
	}
	return cmd
}

// extraArgs returns arguments placed before the URL, such as a cookie file.
func (y *YtDlpBackend) extraArgs() []string {
	if cookieFile := y.cookieFile(); cookieFile != "" {
		return []string{"--cookies", cookieFile}
	}
	return nil
}

// Fetch streams the best audio of url into w.
// It returns an error describing the exit code and stderr when yt-dlp fails.
func (y *YtDlpBackend) Fetch(ctx context.Context, url string, w io.Writer) error {
	args := append(y.extraArgs(), NormalizeYouTubeURL(url))

	// #nosec G204 - the URL is passed as a single argument, never through a shell.
	cmd := y.newCommand().
		Format(audioFormat).
		Output("-").
		NoPart().
		NoPlaylist().
		BuildCommand(ctx, args...)

	var stderr bytes.Buffer
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("yt-dlp timed out for %s: %w", url, ctx.Err())
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("yt-dlp failed with exit code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}

		return fmt.Errorf("an unexpected error occurred while downloading %s: %w", url, err)
	}

	gologging.DebugF("[yt-dlp] Finished streaming %s", url)
	return nil
}

// cookieFile picks one of the configured cookie files at random.
func (y *YtDlpBackend) cookieFile() string {
	if len(y.CookiesPath) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(y.CookiesPath))))
	if err != nil {
		gologging.WarnF("[yt-dlp] Could not generate a random number: %v", err)
		return y.CookiesPath[0]
	}

	return y.CookiesPath[n.Int64()]
}
