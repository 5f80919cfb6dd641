package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageSize    = 200
	defaultFetchWindow = 5
)

// RepositoryConfig tunes the paginated fetch.
type RepositoryConfig struct {
	// PageSize is the number of orders loaded per page query.
	PageSize int
	// FetchWindow caps the number of in-flight page queries. The storefront
	// sync source sits behind rate-limited upstreams, so the same window is
	// applied when reading back.
	FetchWindow int
}

// Repository reads synced storefront orders from Postgres. It implements the
// report builder's OrderSource contract.
type Repository struct {
	pool     *pgxpool.Pool
	pageSize int
	window   int
	logger   *slog.Logger
}

// NewRepository constructs a Repository with bounded-concurrency pagination.
func NewRepository(pool *pgxpool.Pool, cfg RepositoryConfig, logger *slog.Logger) *Repository {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.FetchWindow <= 0 {
		cfg.FetchWindow = defaultFetchWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{pool: pool, pageSize: cfg.PageSize, window: cfg.FetchWindow, logger: logger}
}

func acceptedStatusStrings() []string {
	out := make([]string, len(AcceptedStatuses))
	for i, s := range AcceptedStatuses {
		out[i] = string(s)
	}
	return out
}

// FetchOrders returns every accepted-status order created within [start, end]
// inclusive, with line items attached. Pages are fetched concurrently within
// a fixed window; any page failure fails the whole fetch.
func (r *Repository) FetchOrders(ctx context.Context, start, end time.Time) ([]Order, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("orders: repository not configured")
	}
	statuses := acceptedStatusStrings()

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM storefront_orders WHERE status = ANY($1) AND created_at BETWEEN $2 AND $3`,
		statuses, start, end,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("orders: count: %w", err)
	}
	if total == 0 {
		return []Order{}, nil
	}

	pages := (total + r.pageSize - 1) / r.pageSize
	fetchID := uuid.NewString()
	r.logger.Debug("fetching orders",
		slog.String("fetch_id", fetchID),
		slog.Time("start", start),
		slog.Time("end", end),
		slog.Int("total", total),
		slog.Int("pages", pages),
	)

	results := make([][]Order, pages)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.window)
	for i := 0; i < pages; i++ {
		page := i
		g.Go(func() error {
			list, perr := r.fetchPage(gctx, statuses, start, end, page)
			if perr != nil {
				return fmt.Errorf("orders: page %d: %w", page, perr)
			}
			results[page] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Pages may shift under concurrent sync writes, so the merge drops
	// repeated order records defensively.
	merged := make([]Order, 0, total)
	seen := make(map[string]bool, total)
	for _, page := range results {
		for _, o := range page {
			key := o.SiteID + "\x00" + o.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, o)
		}
	}
	return merged, nil
}

func (r *Repository) fetchPage(ctx context.Context, statuses []string, start, end time.Time, page int) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, site_id, site_name, status, total, billing_country, shipping_country, created_at
		 FROM storefront_orders
		 WHERE status = ANY($1) AND created_at BETWEEN $2 AND $3
		 ORDER BY site_id, order_id
		 LIMIT $4 OFFSET $5`,
		statuses, start, end, r.pageSize, page*r.pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	list := make([]Order, 0, r.pageSize)
	siteIDs := make([]string, 0, r.pageSize)
	orderIDs := make([]string, 0, r.pageSize)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.SiteID, &o.SiteName, &o.Status, &o.Total, &o.BillingCountry, &o.ShippingCountry, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
		siteIDs = append(siteIDs, o.SiteID)
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	items, err := r.fetchItems(ctx, siteIDs, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range list {
		key := list[i].SiteID + "\x00" + list[i].ID
		list[i].Lines = items[key]
	}
	return list, nil
}

func (r *Repository) fetchItems(ctx context.Context, siteIDs, orderIDs []string) (map[string][]LineItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT site_id, order_id, sku, name, quantity, line_total
		 FROM storefront_order_items
		 WHERE site_id = ANY($1) AND order_id = ANY($2)
		 ORDER BY site_id, order_id, sku`,
		siteIDs, orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]LineItem)
	for rows.Next() {
		var siteID, orderID string
		var item LineItem
		if err := rows.Scan(&siteID, &orderID, &item.SKU, &item.Name, &item.Quantity, &item.Total); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		key := siteID + "\x00" + orderID
		items[key] = append(items[key], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}
