// Package downloader provides functionality to download files from URLs.
package downloader

import (
	"fmt"
	"io"
	"net/http"
	"os"
)

// UserAgent is sent with every request.
var UserAgent = "minibrew-go"

// DownloadTo streams the content at url into destPath, creating or truncating
// it. It returns the number of bytes written. On failure the partial file is removed.
func DownloadTo(url, destPath string) (int64, error) {
	body, err := open(url)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	file, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	n, err := io.Copy(file, body)
	closeErr := file.Close()
	if err != nil {
		_ = os.Remove(destPath)
		return 0, fmt.Errorf("failed to read response body from %s: %w", url, err)
	}
	if closeErr != nil {
		_ = os.Remove(destPath)
		return 0, fmt.Errorf("failed to write %s: %w", destPath, closeErr)
	}
	return n, nil
}

func open(url string) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to perform GET request to %s: %w", url, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform GET request to %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to download from %s: received status code %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
