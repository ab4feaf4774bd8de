// Package fetch downloads source images from remote URLs under an SSRF
// policy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/rmitchellscott/ditherstudio/internal/imageprocessing"
	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

var (
	// ErrRejected wraps policy violations, including on redirects.
	ErrRejected = errors.New("source URL rejected")
	// ErrDownload wraps transport failures and non-200 responses.
	ErrDownload = errors.New("failed to download image")
	// ErrTooLarge is returned when the response body exceeds MaxBytes.
	ErrTooLarge = errors.New("remote image exceeds size limit")
)

// Fetcher downloads and decodes images.
type Fetcher struct {
	Client    *http.Client
	Policy    Policy
	MaxBytes  int64
	MaxPixels int
}

// New returns a Fetcher whose client times out after timeout and re-checks
// the policy on every redirect. With BlockPrivateIPs set, the resolved address
// of every connection is checked again before dialing.
func New(policy Policy, timeout time.Duration, maxBytes int64, maxPixels int) *Fetcher {
	f := &Fetcher{Policy: policy, MaxBytes: maxBytes, MaxPixels: maxPixels}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, c syscall.RawConn) error {
			return f.Policy.dialControl(network, address, c)
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	f.Client = &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			if err := f.Policy.Check(req.URL.String()); err != nil {
				return fmt.Errorf("%w: %v", ErrRejected, err)
			}
			return nil
		},
	}
	return f
}

// Image downloads rawURL and decodes it.
func (f *Fetcher) Image(ctx context.Context, rawURL string) (image.Image, string, error) {
	if err := f.Policy.Check(rawURL); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.Client.Do(req)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: HTTP %d", ErrDownload, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.MaxBytes > 0 {
		if resp.ContentLength > f.MaxBytes {
			return nil, "", fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
		}
		body = &limitedReader{r: resp.Body, remaining: f.MaxBytes}
	}

	img, format, err := imageprocessing.Decode(body, f.MaxPixels)
	if err != nil {
		return nil, "", err
	}

	logging.DebugWithComponent(logging.ComponentFetch, "Downloaded source image",
		"url", rawURL, "format", format, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, format, nil
}

// limitedReader fails with ErrTooLarge instead of silently truncating.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// Probe for one more byte to tell EOF apart from overflow.
		var one [1]byte
		n, err := l.r.Read(one[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
