// Package infrahub provides a narrow client for the Infrahub backend, the
// source-of-truth system holding the network's configuration graph.
//
// The portal needs only four operations: create an object in a branch
// (upsert-style), query objects by filters, create a change branch, and read
// a kind's attribute choices from the schema. Everything else about the
// backend is out of scope.
//
// Example usage:
//
//	client, err := infrahub.NewClient()
//	branch, err := client.CreateBranch(ctx, "implement_chg-2024-001234", false)
package infrahub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"
)

// EnvAddress is the environment variable naming the backend address.
const EnvAddress = "INFRAHUB_ADDRESS"

// DefaultBranch is the backend's main configuration branch.
const DefaultBranch = "main"

const defaultTimeout = 30 * time.Second

// ErrAddressNotSet is returned by NewClient when no backend address is
// configured. This is fatal: without an address no request can proceed.
var ErrAddressNotSet = errors.New("INFRAHUB_ADDRESS environment variable is not set")

// Client is an HTTP client for the Infrahub API.
type Client struct {
	address    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAddress sets the backend address explicitly, overriding EnvAddress.
func WithAddress(address string) Option {
	return func(c *Client) {
		c.address = address
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With("component", "infrahub")
	}
}

// NewClient creates a client for the backend at the configured address.
// The address comes from WithAddress or, failing that, the INFRAHUB_ADDRESS
// environment variable. A missing address is a configuration error and is
// reported immediately rather than on first use.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default().With("component", "infrahub"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.address == "" {
		c.address = os.Getenv(EnvAddress)
	}
	if c.address == "" {
		return nil, fmt.Errorf("%w: configure the Infrahub connection", ErrAddressNotSet)
	}
	return c, nil
}

// Address returns the configured backend address.
func (c *Client) Address() string {
	return c.address
}

type createObjectRequest struct {
	Kind        string         `json:"kind"`
	Branch      string         `json:"branch"`
	AllowUpsert bool           `json:"allow_upsert"`
	Data        map[string]any `json:"data"`
}

// CreateObject creates (or upserts) an object of the given kind in a branch.
// Creates are always upsert-style so a re-submitted change request is safe
// to run from the top.
func (c *Client) CreateObject(ctx context.Context, kind, branch string, data map[string]any) (*Object, error) {
	if branch == "" {
		branch = DefaultBranch
	}

	req := createObjectRequest{
		Kind:        kind,
		Branch:      branch,
		AllowUpsert: true,
		Data:        data,
	}

	var obj Object
	if err := c.doJSON(ctx, http.MethodPost, "/api/objects", nil, req, &obj); err != nil {
		return nil, fmt.Errorf("creating %s: %w", kind, err)
	}

	c.logger.Info("object created", "kind", kind, "branch", branch, "id", obj.ID)
	return &obj, nil
}

type queryObjectsResponse struct {
	Objects []Object `json:"objects"`
}

// QueryObjects returns the objects of a kind in a branch matching the given
// attribute filters.
func (c *Client) QueryObjects(ctx context.Context, kind, branch string, filters map[string]string) ([]Object, error) {
	if branch == "" {
		branch = DefaultBranch
	}

	query := url.Values{}
	query.Set("kind", kind)
	query.Set("branch", branch)
	for k, v := range filters {
		query.Set(k, v)
	}

	var resp queryObjectsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/objects", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("querying %s: %w", kind, err)
	}
	return resp.Objects, nil
}

// DisplayLabels returns the display labels of the objects of a kind, for use
// as select options. An empty result is not an error: the caller falls back
// to manual entry.
func (c *Client) DisplayLabels(ctx context.Context, kind, branch string, filters map[string]string) ([]string, error) {
	objects, err := c.QueryObjects(ctx, kind, branch, filters)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.DisplayLabel != "" {
			labels = append(labels, obj.DisplayLabel)
		} else {
			labels = append(labels, obj.Name)
		}
	}
	return labels, nil
}

type createBranchRequest struct {
	Name        string `json:"name"`
	SyncWithGit bool   `json:"sync_with_git"`
}

// CreateBranch creates a change branch in the backend.
func (c *Client) CreateBranch(ctx context.Context, name string, syncWithGit bool) (*Branch, error) {
	req := createBranchRequest{Name: name, SyncWithGit: syncWithGit}

	var branch Branch
	if err := c.doJSON(ctx, http.MethodPost, "/api/branches", nil, req, &branch); err != nil {
		return nil, fmt.Errorf("creating branch %q: %w", name, err)
	}

	c.logger.Info("branch created", "branch", branch.Name, "id", branch.ID)
	return &branch, nil
}

type schemaResponse struct {
	Attributes []SchemaAttribute `json:"attributes"`
}

// AttributeChoices returns the choice names of a dropdown attribute from the
// kind's schema. Returns *AttributeNotFoundError if the kind has no such
// attribute.
func (c *Client) AttributeChoices(ctx context.Context, kind, attribute, branch string) ([]string, error) {
	if branch == "" {
		branch = DefaultBranch
	}

	query := url.Values{}
	query.Set("branch", branch)

	var schema schemaResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/schema/"+url.PathEscape(kind), query, nil, &schema); err != nil {
		return nil, fmt.Errorf("loading schema for %s: %w", kind, err)
	}

	for _, attr := range schema.Attributes {
		if attr.Name != attribute {
			continue
		}
		choices := make([]string, 0, len(attr.Choices))
		for _, choice := range attr.Choices {
			choices = append(choices, choice.Name)
		}
		return choices, nil
	}

	return nil, &AttributeNotFoundError{Kind: kind, Attribute: attribute}
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.address + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
