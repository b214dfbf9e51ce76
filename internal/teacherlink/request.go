package teacherlink

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/metrics"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// getJSON makes a GET request to endpoint and decodes the body into target.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, target any) error {
	data, err := c.get(ctx, endpoint, path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}

	return nil
}

// get returns the raw body of a successful GET request. Requests are paced by the limiter
// and go through the circuit breaker.
func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+path, nil)
		if err != nil {
			return nil, err
		}

		req = c.setHeaders(req)
		req.Header.Set("Content-Type", contentType)

		started := time.Now()
		resp, err := c.request(req)
		if err != nil {
			metrics.RecordAPIRequest(endpoint, "error", time.Since(started).Seconds())
			return nil, err
		}
		defer resp.Body.Close()

		metrics.RecordAPIRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(started).Seconds())

		var reader io.Reader = resp.Body
		if resp.Header.Get("Content-Encoding") == "gzip" {
			gzipReader, err := gzip.NewReader(resp.Body)
			if err != nil {
				return nil, err
			}
			defer gzipReader.Close()
			reader = gzipReader
		}

		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("bad status: %s", resp.Status)
		}

		return data, nil
	})
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
