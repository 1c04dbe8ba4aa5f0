// Package uplink forwards scanned UIDs to a remote HTTP endpoint.
package uplink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/context/ctxhttp"

	"github.com/robotalks/tagback/pkg/tag"
)

// Defaults of the remote endpoint.
const (
	DefaultBaseURL = "http://192.168.1.100:80"
	DefaultPath    = "/log_uid.php"
	DefaultTimeout = 2 * time.Second
)

// ErrStatus indicates the server answered with a non 2xx status.
var ErrStatus = errors.New("unexpected HTTP status")

// Forwarder sends one GET request per UID. The response body is
// drained and never parsed.
type Forwarder struct {
	BaseURL string
	Path    string
	Client  *http.Client
	Timeout time.Duration
}

// NewForwarder creates a Forwarder with default path and timeout.
func NewForwarder(baseURL string) *Forwarder {
	return &Forwarder{
		BaseURL: baseURL,
		Path:    DefaultPath,
		Timeout: DefaultTimeout,
	}
}

// URL builds the request URL for uid.
func (f *Forwarder) URL(uid tag.UID) string {
	base := f.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	path := f.Path
	if path == "" {
		path = DefaultPath
	}
	q := url.Values{"uid": []string{uid.String()}}
	return strings.TrimRight(base, "/") + path + "?" + q.Encode()
}

// Send issues GET <base><path>?uid=<HEX>.
func (f *Forwarder) Send(ctx context.Context, uid tag.UID) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	resp, err := ctxhttp.Get(ctx, f.Client, f.URL(uid))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	return nil
}
