// Package fetch downloads what an install needs from the network: the
// ReShade installer of a release, the shader compiler companion and shader
// collection snapshots. Downloads are cached in the data directory.
package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/reshader/pkg/config"
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/logging"
	"golang.org/x/mod/semver"
)

const (
	// maxTagPages bounds tag list pagination
	maxTagPages = 3

	// maxJSONBytes bounds tag list responses
	maxJSONBytes = 10 << 20

	// CompilerFileName is the shader compiler ReShade loads from the game directory
	CompilerFileName = "d3dcompiler_47.dll"
)

// Client fetches releases and files
type Client struct {
	http     *http.Client
	cfg      config.Config
	cacheDir string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, mainly for test servers
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New creates a Client caching downloads in cacheDir
func New(cfg config.Config, cacheDir string, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: cfg.Fetch.Timeout},
		cfg:      cfg,
		cacheDir: cacheDir,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tag struct {
	Name string `json:"name"`
}

// LatestVersion returns the highest stable release tag, such as "v6.3.0".
// Tags that are not semantic versions are ignored.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	logger := logging.GetLogger("fetch")

	latest := ""
	pageURL := c.cfg.Fetch.TagsURL
	for page := 0; page < maxTagPages && pageURL != ""; page++ {
		resp, err := c.get(ctx, pageURL)
		if err != nil {
			return "", err
		}

		var tags []tag
		decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxJSONBytes)).Decode(&tags)
		_ = resp.Body.Close()
		if decodeErr != nil {
			return "", errors.Wrapf(decodeErr, errors.ErrFetch, "invalid tag list from %s", pageURL).
				WithDetail("url", pageURL)
		}

		for _, t := range tags {
			v := Canonical(t.Name)
			if !semver.IsValid(v) || semver.Prerelease(v) != "" {
				continue
			}
			if latest == "" || semver.Compare(v, latest) > 0 {
				latest = v
			}
		}
		pageURL = nextPage(resp.Header.Get("Link"))
	}

	if latest == "" {
		return "", errors.New(errors.ErrFetch, "no release tags found").
			WithDetail("url", c.cfg.Fetch.TagsURL)
	}
	logger.Debug().Str("version", latest).Msg("Resolved latest release")
	return latest, nil
}

// Installer returns the path of the cached installer of version and
// flavor, downloading it first when needed.
func (c *Client) Installer(ctx context.Context, version, flavor string) (string, error) {
	url := c.cfg.InstallerURL(version, flavor)
	return c.Cached(ctx, url, path.Base(url))
}

// Compiler returns the path of the cached shader compiler
func (c *Client) Compiler(ctx context.Context) (string, error) {
	return c.Cached(ctx, c.cfg.Fetch.CompilerURL, CompilerFileName)
}

// Cached returns cacheDir/name, downloading url into it when missing
func (c *Client) Cached(ctx context.Context, url, name string) (string, error) {
	dest := filepath.Join(c.cacheDir, name)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		logger := logging.GetLogger("fetch")
		logger.Debug().Str("path", dest).Msg("Using cached download")
		return dest, nil
	}
	if err := c.Download(ctx, url, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Download writes url to dest. The body goes to a temporary file that is
// renamed into place once complete.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	logger := logging.GetLogger("fetch")

	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot create download directory").
			WithDetail("path", filepath.Dir(dest))
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".download-")
	if err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot create %s", dest).WithDetail("path", dest)
	}

	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), errors.ErrCancelled, "download cancelled")
		}
		if copyErr != nil {
			return errors.Wrapf(copyErr, errors.ErrFetch, "download of %s interrupted", url).WithDetail("url", url)
		}
		return errors.Wrapf(closeErr, errors.ErrWriteFailure, "cannot write %s", dest).WithDetail("path", dest)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot write %s", dest).WithDetail("path", dest)
	}

	logger.Info().Str("url", url).Str("path", dest).Int64("bytes", n).Msg("Downloaded")
	return nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "invalid URL %s", url).WithDetail("url", url)
	}
	req.Header.Set("User-Agent", c.cfg.Fetch.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrCancelled, "request cancelled")
		}
		return nil, errors.Wrapf(err, errors.ErrFetch, "cannot reach %s", url).WithDetail("url", url)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Newf(errors.ErrFetch, "%s answered %s", url, resp.Status).
			WithDetail("url", url).
			WithDetail("status", resp.StatusCode)
	}
	return resp, nil
}

// nextPage extracts the rel="next" URL of a Link header
func nextPage(header string) string {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start, end := strings.Index(part, "<"), strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

// Canonical adds the "v" semver expects: "6.3.0" becomes "v6.3.0"
func Canonical(version string) string {
	if version == "" || strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// Newer reports whether version a is a higher release than b. Versions that
// are not semantic versions compare lowest.
func Newer(a, b string) bool {
	return semver.Compare(Canonical(a), Canonical(b)) > 0
}

// Display strips the leading "v" of a version
func Display(version string) string {
	return strings.TrimPrefix(version, "v")
}
