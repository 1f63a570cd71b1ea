package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNoData is returned when none of the sources is set.
	ErrNoData = errors.New("no data source provided")
	// ErrLoad wraps every read or parse failure.
	ErrLoad = errors.New("failed to read data")
)

// Source holds up to three inputs. The first non-empty one in the order
// File, Text, URL is used.
type Source struct {
	File string
	Text string
	URL  string
}

// Empty reports whether no source is set.
func (s Source) Empty() bool {
	return strings.TrimSpace(s.File) == "" && strings.TrimSpace(s.Text) == "" && strings.TrimSpace(s.URL) == ""
}

// Options controls decoding.
type Options struct {
	// Delimiter for CSV text. If 0, auto-detects among ',', ';', '\t'.
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Sheet selects an XLSX sheet; empty means the first one.
	Sheet string
	// HTTPTimeout bounds URL fetches.
	HTTPTimeout time.Duration
	// MaxBytes caps URL response bodies.
	MaxBytes int64
	Locale   Locale
}

// DefaultOptions returns reasonable defaults for interactive use.
func DefaultOptions() Options {
	return Options{
		HTTPTimeout: 30 * time.Second,
		MaxBytes:    50 << 20,
	}
}

// Loader binds Options so the pipeline can hold a loader value.
type Loader struct {
	Options Options
	Client  *http.Client
}

// Load reads src with the loader's options.
func (l *Loader) Load(ctx context.Context, src Source) (*Dataset, error) {
	return load(ctx, src, l.Options, l.Client)
}

// Load resolves the source by priority and decodes it into a Dataset.
func Load(ctx context.Context, src Source, opt Options) (*Dataset, error) {
	return load(ctx, src, opt, nil)
}

func load(ctx context.Context, src Source, opt Options, client *http.Client) (*Dataset, error) {
	var (
		data []byte
		name string
		err  error
	)
	switch {
	case strings.TrimSpace(src.File) != "":
		name = filepath.Base(src.File)
		data, err = os.ReadFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
	case strings.TrimSpace(src.Text) != "":
		name = "pasted.csv"
		data = []byte(src.Text)
	case strings.TrimSpace(src.URL) != "":
		data, name, err = fetch(ctx, strings.TrimSpace(src.URL), opt, client)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
	default:
		return nil, ErrNoData
	}
	ds, err := decode(data, name, opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return ds, nil
}

func decode(data []byte, name string, opt Options) (*Dataset, error) {
	d := decoderFor(data, name)
	rows, err := d.Decode(data, name, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name(), err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty header")
	}
	return New(name, rows[0], rows[1:], opt.Locale)
}

func fetch(ctx context.Context, rawURL string, opt Options, client *http.Client) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("invalid url %q", rawURL)
	}
	if client == nil {
		timeout := opt.HTTPTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	limit := opt.MaxBytes
	if limit <= 0 {
		limit = 50 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("response exceeds %d bytes", limit)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		name = u.Host
	}
	return data, name, nil
}
