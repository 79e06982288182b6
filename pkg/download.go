package pkg

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
)

var downloadClient = &http.Client{
	Timeout: time.Minute * 30,
}

// NewProgressBar returns a byte progress bar that stays silent on CI where
// the escape codes would just clutter the log.
func NewProgressBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

// DownloadFile performs a single-shot GET of url into dest. When sha256sum is
// non-empty the downloaded bytes have to match it; a mismatch removes the
// partial file and fails. No retries, no resume.
func DownloadFile(ctx context.Context, url, dest, sha256sum string) error {
	handle, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", dest)
	}
	defer handle.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrapf(err, "failed to build request for %s", url)
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		os.Remove(dest)
		return eris.Wrapf(err, "failed to start download for %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Remove(dest)
		return eris.Errorf("download of %s failed with status %s", url, resp.Status)
	}

	hash := sha256.New()
	bar := NewProgressBar(resp.ContentLength, "     download")
	_, err = io.Copy(io.MultiWriter(handle, hash, bar), resp.Body)
	bar.Finish()
	if err != nil {
		os.Remove(dest)
		return eris.Wrapf(err, "failed during download of %s", url)
	}

	if sha256sum != "" {
		digest := hex.EncodeToString(hash.Sum(nil))
		if digest != sha256sum {
			os.Remove(dest)
			return eris.Errorf("checksum mismatch for %s: expected %s, got %s", url, sha256sum, digest)
		}
	}

	return nil
}
