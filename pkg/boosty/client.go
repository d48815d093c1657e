package boosty

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"boostysync/pkg/errors"
	"boostysync/pkg/logger"
)

const (
	// Responses shorter than this are presumed to be an error page served
	// with a 200 and are re-requested a bounded number of times.
	minPlausibleBodyLength = 10000
	shortBodyRetries       = 3

	progressLogInterval = 30 * time.Second

	minCredentialLength = 10
)

var defaultHeaders = map[string]string{
	"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Sec-Ch-Ua":          `"Google Chrome";v="123", "Not:A-Brand";v="8", "Chromium";v="123"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"Windows"`,
}

var downloadHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Encoding": "gzip, deflate, br, zstd",
}

// Client talks to the content platform's private JSON API.
type Client struct {
	httpClient     *http.Client
	downloadClient *http.Client
	baseURL        string

	cookie        string
	authorization string

	chunkSize int
	logger    logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API host, used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithChunkSize sets the download copy-buffer size in bytes.
func WithChunkSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// NewClient creates an API client. apiTimeout bounds page requests;
// downloadTimeout bounds a whole file download and should be generous.
func NewClient(apiTimeout, downloadTimeout time.Duration, log logger.Logger, opts ...ClientOption) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient:     &http.Client{Timeout: apiTimeout},
		downloadClient: &http.Client{Timeout: downloadTimeout},
		baseURL:        DefaultBaseURL,
		chunkSize:      150 * 1024,
		logger:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCredentials installs the session cookie and authorization token.
func (c *Client) SetCredentials(cookie, authorization string) {
	c.cookie = cookie
	c.authorization = authorization
}

// ReadyToAuth reports whether both credentials are present and long enough to
// be real. Shorter values are treated as not configured.
func (c *Client) ReadyToAuth() bool {
	return len(c.cookie) >= minCredentialLength && len(c.authorization) >= minCredentialLength
}

// FetchMediaPage fetches one media-album page for the given media type
// ("image", "video" or "audio"). Pass an empty offset for the first page.
func (c *Client) FetchMediaPage(ctx context.Context, creator, mediaType, offset string, useCookie bool) (*MediaPage, error) {
	var page MediaPage
	if err := c.getJSON(ctx, mediaAlbumURL(c.baseURL, creator, mediaType, offset), useCookie, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchPostPage fetches one page of the post stream.
func (c *Client) FetchPostPage(ctx context.Context, creator, offset string, useCookie bool) (*PostPage, error) {
	var page PostPage
	if err := c.getJSON(ctx, postListURL(c.baseURL, creator, offset), useCookie, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchPost fetches a single post by id.
func (c *Client) FetchPost(ctx context.Context, creator, postID string, useCookie bool) (*PostEntry, error) {
	var entry PostEntry
	if err := c.getJSON(ctx, postURL(c.baseURL, creator, postID), useCookie, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FetchCounters fetches the creator's public media counters. No auth needed.
func (c *Client) FetchCounters(ctx context.Context, creator string) (*Counters, error) {
	var resp countersResponse
	if err := c.getJSON(ctx, countersURL(c.baseURL, creator), false, &resp); err != nil {
		return nil, err
	}
	return &Counters{
		Photos: resp.Data.MediaCounters.Image,
		Videos: resp.Data.MediaCounters.OkVideo,
		Audios: resp.Data.MediaCounters.AudioFile,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, useCookie bool, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err), 0)
	}
	for key, value := range defaultHeaders {
		req.Header.Set(key, value)
	}
	if useCookie && c.ReadyToAuth() {
		req.Header.Set("Cookie", c.cookie)
		req.Header.Set("Authorization", c.authorization)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), 0)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode)
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errors.New(errors.ErrorTypeParsing, fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode)
	}

	return nil
}

// DownloadFile streams a file URL to destPath. An empty URL fails immediately
// without a network call. A 200 response with a suspiciously short body is
// re-requested up to shortBodyRetries times before being accepted. Progress is
// logged roughly every 30 seconds for long downloads.
func (c *Client) DownloadFile(ctx context.Context, fileURL, destPath string) error {
	if fileURL == "" {
		return errors.New(errors.ErrorTypeUnknown, "empty download URL", 0)
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.startDownload(ctx, fileURL)
		if err != nil {
			return err
		}

		if resp.ContentLength >= 0 && resp.ContentLength < minPlausibleBodyLength && attempt < shortBodyRetries {
			resp.Body.Close()
			c.logger.WarnWithFields("suspiciously short response, refetching", map[string]interface{}{
				"url":            fileURL,
				"content_length": resp.ContentLength,
				"attempt":        attempt + 1,
			})
			continue
		}

		err = c.saveBody(resp, destPath)
		resp.Body.Close()
		return err
	}
}

// FetchBytes downloads a small resource (a video preview image) fully into
// memory.
func (c *Client) FetchBytes(ctx context.Context, fileURL string) ([]byte, error) {
	if fileURL == "" {
		return nil, errors.New(errors.ErrorTypeUnknown, "empty download URL", 0)
	}
	resp, err := c.startDownload(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("failed to read body: %v", err), resp.StatusCode)
	}
	return body, nil
}

func (c *Client) startDownload(ctx context.Context, fileURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err), 0)
	}
	for key, value := range defaultHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range downloadHeaders {
		req.Header.Set(key, value)
	}

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("download failed: %v", err), 0)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errors.New(
			errors.TypeForStatusCode(resp.StatusCode),
			fmt.Sprintf("status %d downloading %s", resp.StatusCode, fileURL),
			resp.StatusCode,
		)
	}

	return resp, nil
}

// saveBody streams the body into a temp file next to destPath and renames it
// into place on success, so an interrupted download never leaves a truncated
// file that a later run would skip as already saved.
func (c *Client) saveBody(resp *http.Response, destPath string) error {
	tempPath := destPath + ".part"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tempPath, err)
	}

	if err := c.copyBody(resp, file, destPath); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to flush %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finalize %s: %w", destPath, err)
	}
	return nil
}

func (c *Client) copyBody(resp *http.Response, file *os.File, destPath string) error {
	total := resp.ContentLength
	if total > 0 {
		c.logger.InfoWithFields("saving file", map[string]interface{}{
			"path":    destPath,
			"size_mb": fmt.Sprintf("%.2f", float64(total)/1024/1024),
		})
	}

	buf := make([]byte, c.chunkSize)
	var written int64
	start := time.Now()
	lastLog := start

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write %s: %w", destPath, writeErr)
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("download interrupted: %v", readErr), resp.StatusCode)
		}

		if total > 0 && time.Since(lastLog) > progressLogInterval {
			lastLog = time.Now()
			elapsed := lastLog.Sub(start)
			percent := int(written * 100 / total)
			eta := time.Duration(float64(elapsed) * float64(total-written) / float64(max64(written, 1))).Round(time.Second)
			c.logger.InfoWithFields("still downloading", map[string]interface{}{
				"path":    destPath,
				"percent": percent,
				"elapsed": elapsed.Round(time.Second).String(),
				"eta":     eta.String(),
			})
		}
	}

	return nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return errors.New(
		errors.TypeForStatusCode(resp.StatusCode),
		fmt.Sprintf("unexpected status %d", resp.StatusCode),
		resp.StatusCode,
	)
}
