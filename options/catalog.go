// Package options maintains the catalog of select options the service forms
// offer: metro locations, buildings, device types, design patterns and
// providers. The catalog is loaded from the graph backend and refreshed on a
// cron schedule so form choices track the source of truth without a backend
// round trip per request.
package options

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/franc-net/portal/infrahub"
	"github.com/franc-net/portal/metrics"
)

// Option kinds served by the catalog.
const (
	KindMetros          = "metros"
	KindBuildings       = "buildings"
	KindDeviceTypes     = "device_types"
	KindDCDesigns       = "dc_designs"
	KindPopDesigns      = "pop_designs"
	KindProviders       = "providers"
	KindInterfaceSpeeds = "interface_speeds"
)

// DefaultSchedule refreshes the catalog every five minutes.
const DefaultSchedule = "@every 5m"

// ErrInvalidSchedule is returned when the refresh schedule cannot be parsed.
var ErrInvalidSchedule = errors.New("invalid refresh schedule")

// Querier is the subset of the backend client the catalog needs.
type Querier interface {
	DisplayLabels(ctx context.Context, kind, branch string, filters map[string]string) ([]string, error)
	AttributeChoices(ctx context.Context, kind, attribute, branch string) ([]string, error)
}

// Catalog caches select options per kind. Reads and refreshes may run
// concurrently.
type Catalog struct {
	client   Querier
	logger   *slog.Logger
	portal   *metrics.Portal
	schedule cron.Schedule
	spec     string

	mu   sync.RWMutex
	sets map[string][]string
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) CatalogOption {
	return func(c *Catalog) {
		c.logger = logger.With("component", "options")
	}
}

// WithMetrics records refresh outcomes into the portal metric set.
func WithMetrics(portal *metrics.Portal) CatalogOption {
	return func(c *Catalog) {
		c.portal = portal
	}
}

// WithSchedule overrides the refresh schedule. Accepts standard five-field
// cron expressions and descriptors like "@every 5m" or "@hourly".
func WithSchedule(spec string) CatalogOption {
	return func(c *Catalog) {
		c.spec = spec
	}
}

// New creates a catalog backed by the given client. Call Refresh or Start to
// populate it.
func New(client Querier, opts ...CatalogOption) (*Catalog, error) {
	c := &Catalog{
		client: client,
		logger: slog.Default().With("component", "options"),
		spec:   DefaultSchedule,
		sets:   make(map[string][]string),
	}
	for _, opt := range opts {
		opt(c)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(c.spec)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSchedule, c.spec, err)
	}
	c.schedule = schedule

	return c, nil
}

// loader fetches one option kind from the backend.
type loader struct {
	kind  string
	fetch func(ctx context.Context) ([]string, error)
}

func (c *Catalog) loaders() []loader {
	return []loader{
		{KindMetros, func(ctx context.Context) ([]string, error) {
			return c.client.DisplayLabels(ctx, infrahub.KindLocationMetro, "", nil)
		}},
		{KindBuildings, func(ctx context.Context) ([]string, error) {
			return c.client.DisplayLabels(ctx, infrahub.KindLocationBuilding, "", nil)
		}},
		{KindDeviceTypes, func(ctx context.Context) ([]string, error) {
			return c.client.DisplayLabels(ctx, infrahub.KindDeviceType, "", nil)
		}},
		{KindDCDesigns, func(ctx context.Context) ([]string, error) {
			return c.client.DisplayLabels(ctx, infrahub.KindDesignTopology, "", map[string]string{"type": "DC"})
		}},
		{KindPopDesigns, func(ctx context.Context) ([]string, error) {
			return c.client.DisplayLabels(ctx, infrahub.KindDesignTopology, "", map[string]string{"type": "POP"})
		}},
		{KindProviders, func(ctx context.Context) ([]string, error) {
			return c.client.DisplayLabels(ctx, infrahub.KindOrganizationProvider, "", nil)
		}},
		{KindInterfaceSpeeds, func(ctx context.Context) ([]string, error) {
			return c.client.AttributeChoices(ctx, infrahub.KindInterface, "speed", "")
		}},
	}
}

// Refresh reloads every option kind from the backend. A kind that fails to
// load keeps its previous entries; the error reports all failed kinds.
func (c *Catalog) Refresh(ctx context.Context) error {
	var errs []error

	for _, l := range c.loaders() {
		values, err := l.fetch(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("loading %s: %w", l.kind, err))
			c.logger.Warn("failed to refresh options", "kind", l.kind, "error", err)
			continue
		}

		c.mu.Lock()
		c.sets[l.kind] = values
		c.mu.Unlock()

		if c.portal != nil {
			c.portal.OptionsRefreshed.With(prometheus.Labels{"kind": l.kind}).Set(float64(len(values)))
		}
		c.logger.Debug("options refreshed", "kind", l.kind, "count", len(values))
	}

	if len(errs) > 0 {
		if c.portal != nil {
			c.portal.OptionsRefreshErrors.Inc()
		}
		return errors.Join(errs...)
	}

	c.logger.Info("options catalog refreshed")
	return nil
}

// Options returns the cached entries for a kind. The returned slice is a
// copy. Unknown kinds yield nil; the forms fall back to manual entry.
func (c *Catalog) Options(kind string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	values, ok := c.sets[kind]
	if !ok {
		return nil
	}
	return append([]string(nil), values...)
}

// All returns a copy of the whole catalog.
func (c *Catalog) All() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]string, len(c.sets))
	for kind, values := range c.sets {
		out[kind] = append([]string(nil), values...)
	}
	return out
}

// NextRefresh returns the next scheduled refresh time from now.
func (c *Catalog) NextRefresh() time.Time {
	return c.schedule.Next(time.Now())
}

// Start performs an initial refresh and then launches a goroutine that
// refreshes on the configured schedule until ctx is cancelled. The initial
// refresh error is returned so startup can surface a dead backend; scheduled
// refresh failures are logged and retried on the next tick.
func (c *Catalog) Start(ctx context.Context) error {
	err := c.Refresh(ctx)
	go c.loop(ctx)
	return err
}

func (c *Catalog) loop(ctx context.Context) {
	for {
		next := c.schedule.Next(time.Now())
		wait := time.Until(next)

		c.logger.Debug("waiting for next catalog refresh", "next_run", next, "wait_duration", wait)

		select {
		case <-ctx.Done():
			c.logger.Info("options catalog refresh loop shutting down")
			return
		case <-time.After(wait):
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("scheduled refresh completed with error", "error", err)
			}
		}
	}
}
