// Package source loads source trees from URLs, files and gocloc reports.
//
// A [Loader] resolves a location to a validated [tree.Node]:
//
//   - http(s) URLs are fetched with retries, coalesced per URL while a fetch
//     is in flight, and cached for [cache.TTLSource]
//   - "-" reads from the reader given in [Spec.Stdin]
//   - anything else is a local path; .yaml/.yml files are YAML, everything
//     else JSON
//
// Setting [Spec.Format] to [FormatGocloc] reads the input as the JSON report
// of `gocloc --output-type=json` and builds the tree from its file list.
package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/slocmap/pkg/cache"
	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/httputil"
	"github.com/matzehuels/slocmap/pkg/observability"
	"github.com/matzehuels/slocmap/pkg/tree"
)

// DefaultURL is the sample source tree loaded when no location is given.
const DefaultURL = "https://raw.githubusercontent.com/patrickbucher/source-folder-analysis/master/src/data/sourcetree.json"

// Stdin is the location that reads from [Spec.Stdin].
const Stdin = "-"

// Format selects how input is decoded.
type Format string

const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatGocloc Format = "gocloc"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatJSON, FormatYAML, FormatGocloc:
		return f, nil
	}
	return "", slerrors.New(slerrors.ErrCodeInvalidFormat, "unknown input format %q (want json, yaml or gocloc)", s)
}

// Spec describes what to load.
type Spec struct {
	Location string
	Format   Format
	// RootName names the root of trees built from gocloc reports.
	RootName string
	// Stdin is read when Location is [Stdin].
	Stdin io.Reader
	// Refresh bypasses cached documents; fresh results are still stored.
	Refresh bool
}

// Result is a loaded tree.
type Result struct {
	Tree *tree.Node
	// Hash identifies the tree contents, independent of input format.
	Hash   string
	Source string
	// Cached reports whether the document came from the cache.
	Cached bool
}

// maxFetchTime bounds a shared remote fetch including its retries.
const maxFetchTime = 2 * time.Minute

// Loader loads source trees. It is safe for concurrent use.
type Loader struct {
	client   *httputil.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	attempts int
	delay    time.Duration
	group    singleflight.Group
}

// Option configures a [Loader].
type Option func(*Loader)

// WithCache caches fetched documents in c.
func WithCache(c cache.Cache, keyer cache.Keyer) Option {
	return func(l *Loader) {
		l.cache = c
		if keyer != nil {
			l.keyer = keyer
		}
	}
}

// WithClient replaces the HTTP client.
func WithClient(c *httputil.Client) Option { return func(l *Loader) { l.client = c } }

// WithTTL overrides [cache.TTLSource].
func WithTTL(ttl time.Duration) Option { return func(l *Loader) { l.ttl = ttl } }

// WithRetry sets the number of fetch attempts and the initial backoff.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(l *Loader) { l.attempts, l.delay = attempts, delay }
}

// NewLoader returns a loader without caching unless [WithCache] is given.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client:   httputil.NewClient(map[string]string{"Accept": "application/json, application/yaml;q=0.9, */*;q=0.1"}),
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		ttl:      cache.TTLSource,
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves spec to a validated tree.
func (l *Loader) Load(ctx context.Context, spec Spec) (res *Result, err error) {
	if spec.Location == "" {
		spec.Location = DefaultURL
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, spec.Location)
	start := time.Now()
	defer func() {
		nodes := 0
		if res != nil {
			files, dirs := res.Tree.Stats()
			nodes = files + dirs
		}
		hooks.OnLoadComplete(ctx, spec.Location, nodes, time.Since(start), err)
	}()

	var (
		data   []byte
		cached bool
		name   = spec.Location
	)
	switch {
	case slerrors.IsURL(spec.Location):
		if err := slerrors.ValidateURL(spec.Location); err != nil {
			return nil, err
		}
		if u, perr := url.Parse(spec.Location); perr == nil {
			name = u.Path
		}
		data, cached, err = l.fetch(ctx, spec.Location, spec.Refresh)
	case spec.Location == Stdin:
		if spec.Stdin == nil {
			return nil, slerrors.New(slerrors.ErrCodeInvalidSource, "no standard input available")
		}
		name = ""
		data, err = io.ReadAll(spec.Stdin)
		if err != nil {
			err = slerrors.Wrap(slerrors.ErrCodeInvalidSource, err, "read standard input")
		}
	default:
		data, err = readFile(spec.Location)
	}
	if err != nil {
		return nil, err
	}

	root, err := decode(data, name, spec)
	if err != nil {
		return nil, err
	}
	if slerrors.IsURL(spec.Location) && !cached {
		key := l.keyer.SourceKey(spec.Location)
		if l.cache.Set(ctx, key, data, l.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, "source", len(data))
		}
	}

	hash, err := Hash(root)
	if err != nil {
		return nil, err
	}
	return &Result{Tree: root, Hash: hash, Source: spec.Location, Cached: cached}, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string, refresh bool) ([]byte, bool, error) {
	key := l.keyer.SourceKey(rawURL)
	if !refresh {
		if data, ok, err := l.cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "source")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "source")
	}

	// The shared fetch outlives any single caller: a caller that goes
	// away must not fail the others waiting on the same URL.
	ch := l.group.DoChan(rawURL, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), maxFetchTime)
		defer cancel()
		var body []byte
		err := httputil.Retry(fctx, l.attempts, l.delay, func() (err error) {
			body, err = l.client.Fetch(fctx, rawURL)
			return err
		})
		return body, err
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		res.Err = ctx.Err()
	case res = <-ch:
	}
	if err := res.Err; err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, false, slerrors.Wrap(slerrors.ErrCodeTimeout, err, "fetch %s timed out", rawURL)
		}
		return nil, false, err
	}
	return res.Val.([]byte), false, nil
}

func readFile(p string) ([]byte, error) {
	if err := slerrors.ValidatePath(p); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, slerrors.New(slerrors.ErrCodeFileNotFound, "%s: no such file", p)
	}
	if err != nil {
		return nil, slerrors.Wrap(slerrors.ErrCodeInvalidSource, err, "read %s", p)
	}
	return data, nil
}

func decode(data []byte, name string, spec Spec) (*tree.Node, error) {
	r := bytes.NewReader(data)
	switch spec.Format {
	case FormatGocloc:
		root := spec.RootName
		if root == "" {
			root = tree.DefaultRootName
		}
		return tree.FromGocloc(r, root)
	case FormatYAML:
		return tree.ReadYAML(r)
	case FormatJSON:
		return tree.ReadJSON(r)
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return tree.ReadYAML(r)
	}
	return tree.ReadJSON(r)
}

// Hash returns the content hash of a tree: the SHA-256 of its compact JSON.
func Hash(root *tree.Node) (string, error) {
	var buf bytes.Buffer
	if err := tree.WriteJSON(&buf, root, false); err != nil {
		return "", slerrors.Wrap(slerrors.ErrCodeInternal, err, "encode tree")
	}
	return cache.Hash(buf.Bytes()), nil
}
