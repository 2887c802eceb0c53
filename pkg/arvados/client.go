// Package arvados is a read-only REST client for the parts of the Arvados
// API a picker needs: group contents, collection manifests, favorites links
// and ownership chains. *Client satisfies the loader's DataSource,
// AncestorResolver and FavoritesSource interfaces.
package arvados

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/model"
)

const maxBody = 32 << 20

// Config configures a Client.
type Config struct {
	Host       string // API host, with or without scheme
	Token      string
	Insecure   bool // skip TLS verification
	Timeout    time.Duration
	KeepWebURL string // base used to build file download URLs
	UUIDPrefix string // cluster id, needed for public favorites
	Logger     *slog.Logger
	HTTPClient *http.Client // overrides Insecure and Timeout when set
}

// Client talks to one Arvados cluster.
type Client struct {
	httpClient *http.Client
	base       *url.URL
	token      string
	keepWeb    string
	prefix     string
	logger     *slog.Logger

	// resources deduplicates concurrent GETs of the same uuid; ancestor
	// walks of sibling targets share most of their chain.
	resources singleflight.Group
}

// APIError is a non-2xx response.
type APIError struct {
	Path   string
	Status int
	Body   string
}

func (e APIError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.Path, e.Status, e.Body)
}

// ErrNotFound matches APIError values with status 404.
var ErrNotFound = errors.New("not found")

func (e APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("arvados: host is required")
	}
	host := cfg.Host
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("arvados: bad host %q: %w", cfg.Host, err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.Insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for dev clusters
		}
		hc = &http.Client{Timeout: timeout, Transport: transport}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		httpClient: hc,
		base:       base,
		token:      cfg.Token,
		keepWeb:    strings.TrimSuffix(cfg.KeepWebURL, "/"),
		prefix:     cfg.UUIDPrefix,
		logger:     logger,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	c.logger.Debug("api request", "path", path, "status", resp.StatusCode, "took", time.Since(start))
	if resp.StatusCode/100 != 2 {
		return nil, APIError{Path: path, Status: resp.StatusCode, Body: errorBody(body)}
	}
	return body, nil
}

// errorBody extracts the "errors" array of an API error, or a trimmed body.
func errorBody(b []byte) string {
	var e struct {
		Errors []string `json:"errors"`
	}
	if json.Unmarshal(b, &e) == nil && len(e.Errors) > 0 {
		return strings.Join(e.Errors, "; ")
	}
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func listParams(f Filters, limit int) (url.Values, error) {
	enc, err := f.Encode()
	if err != nil {
		return nil, err
	}
	v := url.Values{}
	v.Set("filters", enc)
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return v, nil
}

func (c *Client) list(ctx context.Context, path string, params url.Values) (model.Page, error) {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return model.Page{}, err
	}
	resp, err := decodeList(body)
	if err != nil {
		return model.Page{}, err
	}
	page := model.Page{ItemsAvailable: resp.ItemsAvailable, Items: make([]model.Resource, 0, len(resp.Items))}
	for _, w := range resp.Items {
		r, err := w.toModel()
		if err != nil {
			c.logger.Debug("skipping item", "uuid", w.UUID, "error", err)
			continue
		}
		page.Items = append(page.Items, r)
	}
	return page, nil
}

// List returns the contents of a project. An empty parentID lists across
// every project readable by the token.
func (c *Client) List(ctx context.Context, parentID string, q loader.Query) (model.Page, error) {
	f := Filters{}.IsA("uuid", q.Kinds...)
	if q.CollectionFilter != "" {
		f = f.FullText(q.CollectionFilter, "collections")
	} else if q.ExcludeIntermediate {
		f = f.NotIn("collections.properties.type", "intermediate", "log")
	}
	if q.Search != "" {
		f = f.FullText(q.Search, "groups")
	}
	params, err := listParams(f, q.Limit)
	if err != nil {
		return model.Page{}, err
	}
	if q.ExcludeOwned {
		params.Set("exclude_home_project", "true")
	}
	path := "/arvados/v1/groups/contents"
	if parentID != "" {
		path = "/arvados/v1/groups/" + url.PathEscape(parentID) + "/contents"
	}
	return c.list(ctx, path, params)
}

// ListFiles returns the file tree of a collection, parsed from its manifest.
func (c *Client) ListFiles(ctx context.Context, collectionID string) ([]model.CollectionFile, error) {
	w, err := c.resource(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	files, err := ParseManifest(collectionID, w.ManifestText)
	if err != nil {
		return nil, err
	}
	if c.keepWeb != "" {
		for i := range files {
			if files[i].Type == model.FileTypeFile {
				files[i].URL = c.keepWeb + "/c=" + collectionID + files[i].Path + "/" + url.PathEscape(files[i].Name)
			}
		}
	}
	return files, nil
}

// resource fetches one resource by uuid. Concurrent calls for the same
// uuid share one request; it runs detached from any single caller's ctx, and
// each caller stops waiting when its own ctx is done.
func (c *Client) resource(ctx context.Context, uuid string) (wireResource, error) {
	path, err := resourcePath(uuid)
	if err != nil {
		return wireResource{}, err
	}
	ch := c.resources.DoChan(uuid, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.sharedTimeout())
		defer cancel()
		body, err := c.get(shared, path, nil)
		if err != nil {
			return nil, err
		}
		var w wireResource
		if err := json.Unmarshal(body, &w); err != nil {
			return nil, fmt.Errorf("decode %s: %w", uuid, err)
		}
		return w, nil
	})
	select {
	case <-ctx.Done():
		return wireResource{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return wireResource{}, res.Err
		}
		if res.Shared {
			c.logger.Debug("resource request shared", "uuid", uuid)
		}
		return res.Val.(wireResource), nil
	}
}

func (c *Client) sharedTimeout() time.Duration {
	if t := c.httpClient.Timeout; t > 0 {
		return t
	}
	return 30 * time.Second
}

func resourcePath(uuid string) (string, error) {
	var table string
	switch model.KindOfUUID(uuid) {
	case model.KindProject:
		table = "groups"
	case model.KindCollection:
		table = "collections"
	case model.KindWorkflow:
		table = "workflows"
	case model.KindUser:
		table = "users"
	default:
		return "", fmt.Errorf("cannot fetch %q: unknown resource type", uuid)
	}
	return "/arvados/v1/" + table + "/" + url.PathEscape(uuid), nil
}

// maxDepth bounds ancestor walks against ownership loops.
const maxDepth = 64

// Ancestors walks owner links up from targetID and returns the chain
// topmost first, ending with the target. The walk stops at a user.
func (c *Client) Ancestors(ctx context.Context, targetID string) ([]model.Resource, error) {
	var chain []model.Resource
	seen := map[string]bool{}
	for uuid := targetID; uuid != "" && !seen[uuid]; {
		if len(chain) == maxDepth {
			return nil, fmt.Errorf("ancestors of %s: chain deeper than %d", targetID, maxDepth)
		}
		seen[uuid] = true
		w, err := c.resource(ctx, uuid)
		if err != nil {
			return nil, fmt.Errorf("ancestors of %s: %w", targetID, err)
		}
		r, err := w.toModel()
		if err != nil {
			return nil, fmt.Errorf("ancestors of %s: %w", targetID, err)
		}
		chain = append(chain, r)
		if r.Kind() == model.KindUser {
			break
		}
		uuid = w.OwnerUUID
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Favorites lists resources userID has starred.
func (c *Client) Favorites(ctx context.Context, userID string, q loader.Query) (model.Page, error) {
	f := Filters{}.Equal("link_class", "star").IsA("head_uuid", q.Kinds...)
	if q.OnlyOwned {
		f = f.Equal("owner_uuid", userID)
	} else {
		f = f.Equal("tail_uuid", userID)
	}
	return c.starred(ctx, f, q.Limit)
}

// PublicFavorites lists resources starred by the cluster's public
// favorites project.
func (c *Client) PublicFavorites(ctx context.Context, q loader.Query) (model.Page, error) {
	if c.prefix == "" {
		return model.Page{}, errors.New("public favorites need the cluster uuid prefix")
	}
	f := Filters{}.Equal("link_class", "star").
		IsA("head_uuid", q.Kinds...).
		Equal("owner_uuid", c.prefix+"-j7d0g-publicfavorites")
	return c.starred(ctx, f, q.Limit)
}

// starred resolves star links to their head resources, keeping link order.
func (c *Client) starred(ctx context.Context, f Filters, limit int) (model.Page, error) {
	params, err := listParams(f, limit)
	if err != nil {
		return model.Page{}, err
	}
	body, err := c.get(ctx, "/arvados/v1/links", params)
	if err != nil {
		return model.Page{}, err
	}
	links, err := decodeList(body)
	if err != nil {
		return model.Page{}, err
	}
	if len(links.Items) == 0 {
		return model.Page{ItemsAvailable: links.ItemsAvailable}, nil
	}
	heads := make([]string, 0, len(links.Items))
	for _, l := range links.Items {
		heads = append(heads, l.HeadUUID)
	}
	hp, err := listParams(Filters{}.In("uuid", heads...), len(heads))
	if err != nil {
		return model.Page{}, err
	}
	resolved, err := c.list(ctx, "/arvados/v1/groups/contents", hp)
	if err != nil {
		return model.Page{}, err
	}
	byID := make(map[string]model.Resource, len(resolved.Items))
	for _, r := range resolved.Items {
		byID[r.ResourceID()] = r
	}
	page := model.Page{ItemsAvailable: links.ItemsAvailable}
	for _, h := range heads {
		if r, ok := byID[h]; ok {
			page.Items = append(page.Items, r)
		}
	}
	return page, nil
}

// CurrentUser returns the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	body, err := c.get(ctx, "/arvados/v1/users/current", nil)
	if err != nil {
		return model.User{}, err
	}
	var w wireResource
	if err := json.Unmarshal(body, &w); err != nil {
		return model.User{}, fmt.Errorf("decode current user: %w", err)
	}
	w.Kind = "arvados#user"
	r, err := w.toModel()
	if err != nil {
		return model.User{}, err
	}
	return r.(model.User), nil
}

var (
	_ loader.DataSource       = (*Client)(nil)
	_ loader.AncestorResolver = (*Client)(nil)
	_ loader.FavoritesSource  = (*Client)(nil)
)
