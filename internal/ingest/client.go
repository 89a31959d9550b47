package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/AngelCh415/adreport/internal/utils"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// Fetcher descarga un reporte exportado por URL, con reintentos.
type Fetcher struct {
	c        HTTPClient
	backoff  utils.Backoff
	maxBytes int64
}

func NewFetcher(c HTTPClient, maxBytes int64) *Fetcher {
	return &Fetcher{c: c, backoff: utils.NewBackoff(100*time.Millisecond, 2), maxBytes: maxBytes}
}

// Fetch GETs the report and returns a file name usable by Decode plus the body.
// 4xx responses are not retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, []byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", nil, errors.New("report url must be http(s)")
	}
	var (
		name string
		body []byte
	)
	err = f.backoff.Do(ctx, func(i int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return utils.Permanent(err)
		}
		resp, err := f.c.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			err := fmt.Errorf("non-2xx: %d body=%s", resp.StatusCode, string(b))
			if resp.StatusCode < 500 {
				return utils.Permanent(err)
			}
			return err
		}
		var r io.Reader = resp.Body
		if f.maxBytes > 0 {
			r = io.LimitReader(resp.Body, f.maxBytes+1)
		}
		b, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if f.maxBytes > 0 && int64(len(b)) > f.maxBytes {
			return utils.Permanent(fmt.Errorf("report larger than %d bytes", f.maxBytes))
		}
		body = b
		name = fileName(u, resp.Header)
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return name, body, nil
}

func fileName(u *url.URL, h http.Header) string {
	if cd := h.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	name := path.Base(u.Path)
	if path.Ext(name) != "" {
		return name
	}
	ct := h.Get("Content-Type")
	switch {
	case strings.Contains(ct, "spreadsheetml"):
		return "report.xlsx"
	default:
		return "report.csv"
	}
}
