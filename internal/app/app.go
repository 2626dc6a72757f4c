// Package app wires configuration, transport, caches and feature modules
// into one explicitly owned graph.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"portafoglio/internal/amqp"
	"portafoglio/internal/cache"
	"portafoglio/internal/config"
	"portafoglio/internal/core"
	"portafoglio/internal/features"
	"portafoglio/internal/log"
	"portafoglio/internal/reports"
	"portafoglio/internal/resources"
	"portafoglio/internal/rest"
	"portafoglio/internal/sheets"
	gsheet "portafoglio/internal/sheets/google"
	"portafoglio/internal/sheets/memory"
	"portafoglio/internal/storage"
	"portafoglio/internal/worker"
)

// Deps overrides collaborators, mostly for tests. Nil fields are built
// from the configuration.
type Deps struct {
	HTTPClient *http.Client
	Exporter   sheets.MonthExporter
}

// App owns every store of a running client.
type App struct {
	Config *config.Config
	Prefs  config.Prefs
	Logger *log.Logger

	Client   *rest.Client
	Vault    *storage.Vault
	Feed     *amqp.Client
	Exporter sheets.MonthExporter
	Worker   *worker.RefreshWorker

	Categories   *features.Categories
	Commodities  *features.Commodities
	Transactions *features.Transactions
	Budget       *features.Budget
	Profile      *features.Profile
	Sessions     *features.Sessions

	caches *cache.Manager
}

// New builds the app. The change feed and the Sheets exporter are only
// created when configured.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, deps Deps) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	a := &App{Config: cfg, Logger: logger.WithComponent(log.ComponentApp)}

	prefs, err := config.LoadPrefs(cfg.PrefsPath())
	if err != nil {
		a.Logger.Warn("using default preferences", log.FieldError, err)
	}
	a.Prefs = prefs

	a.Vault, err = storage.OpenVault(cfg.SessionDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open session vault: %w", err)
	}

	a.Client, err = rest.NewClient(rest.Config{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		HTTPClient: deps.HTTPClient,
		Tokens:     rest.TokenFunc(a.token),
		Logger:     logger,

		RequestsPerMinute: cfg.APIRateLimit,
	})
	if err != nil {
		a.Vault.Close()
		return nil, fmt.Errorf("api client: %w", err)
	}

	if cfg.ChangeFeedEnabled() {
		a.Feed, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			a.Vault.Close()
			return nil, fmt.Errorf("change feed: %w", err)
		}
	}

	switch {
	case deps.Exporter != nil:
		a.Exporter = deps.Exporter
	case cfg.SheetsEnabled():
		a.Exporter, err = gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("sheets export: %w", err)
		}
	default:
		a.Exporter = memory.New(cfg.GoogleSheetName)
	}

	window := cfg.NotifyWindow
	if window == 0 {
		window = -1
	}
	opts := features.Options{
		Window:    window,
		Logger:    logger,
		ExistTTL:  cfg.ExistCacheTTL,
		ExistSize: cfg.ExistCacheSize,
	}
	if a.Feed != nil {
		opts.Observer = a.Feed
	}

	a.Categories = features.NewCategories(rest.NewResource[core.Category](a.Client, features.CategoriesResource), opts)
	a.Commodities = features.NewCommodities(rest.NewResource[core.Commodity](a.Client, features.CommoditiesResource), opts)
	a.Transactions = features.NewTransactions(rest.NewResource[core.Transaction](a.Client, features.TransactionsResource,
		rest.WithEmpty(func() core.Transaction {
			return core.Transaction{Kind: core.Kind(a.Prefs.DefaultKind)}
		})), opts)
	a.Budget = features.NewBudget(rest.NewSingleton[core.Budget](a.Client, features.BudgetResource), opts)
	a.Profile = features.NewProfile(rest.NewSingleton[core.Profile](a.Client, features.ProfileResource), opts)
	a.Sessions = features.NewSessions(rest.NewResource[core.Session](a.Client, features.SessionsResource), a.Vault, opts)

	a.caches = cache.NewManager(logger)
	a.caches.Register(a.Categories.ExistMemo())

	a.Worker = worker.NewRefreshWorker(worker.Config{PollInterval: cfg.PollInterval}, logger)
	a.Worker.Register(features.CategoriesResource, worker.StoreRefresher(a.Categories.Store))
	a.Worker.Register(features.CommoditiesResource, worker.StoreRefresher(a.Commodities.Store))
	a.Worker.Register(features.TransactionsResource, worker.StoreRefresher(a.Transactions.Store))
	a.Worker.Register(features.BudgetResource, worker.StoreRefresher(a.Budget.Store))
	a.Worker.Register(features.ProfileResource, worker.StoreRefresher(a.Profile.Store))

	return a, nil
}

// token feeds the REST client from the vault.
func (a *App) token(ctx context.Context) (string, error) {
	tok, err := a.Vault.Token(ctx)
	if errors.Is(err, storage.ErrNoSession) {
		return "", rest.ErrNoToken
	}
	return tok, err
}

// Preload lists every collection concurrently. All lists run to the end;
// the first failure is returned.
func (a *App) Preload(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return Listed(a.Categories.Store.List(ctx, nil)) })
	g.Go(func() error { return Listed(a.Commodities.Store.List(ctx, nil)) })
	g.Go(func() error { return Listed(a.Transactions.Store.List(ctx, nil)) })
	g.Go(func() error { return Listed(a.Budget.Store.List(ctx, nil)) })
	g.Go(func() error { return Listed(a.Profile.Store.List(ctx, nil)) })
	return g.Wait()
}

// Listed turns a failed list response into a *features.SubmitError.
func Listed[T resources.Entity](resp resources.Response[[]T]) error {
	if resp.Succeeded() {
		return nil
	}
	reason := resp.Body.Reason
	if reason == "" {
		reason = resp.ErrorMessage
	}
	return &features.SubmitError{Code: resp.Code, Reason: reason}
}

// Report is a month overview with budget usage.
type Report struct {
	Overview core.MonthOverview
	Usage    reports.Usage
	// HasBudget is false when no budget is set for the month.
	HasBudget bool
}

// MonthReport fetches the month's transactions and summarizes them with
// the cached categories and budget.
func (a *App) MonthReport(ctx context.Context, year, month int) (Report, error) {
	query := url.Values{"year": {strconv.Itoa(year)}, "month": {strconv.Itoa(month)}}
	if err := Listed(a.Transactions.Store.List(ctx, query)); err != nil {
		return Report{}, fmt.Errorf("list transactions: %w", err)
	}

	// Titles and budget are optional for a report.
	if a.Categories.Store.State().Initial {
		a.Categories.Store.List(ctx, nil)
	}
	if a.Budget.Store.State().Initial {
		a.Budget.Store.List(ctx, nil)
	}

	titles := reports.Titles(a.Categories.Store.State().Items)
	ov := reports.Monthly(a.Transactions.Store.State().Items, year, month, titles)

	r := Report{Overview: ov}
	key := fmt.Sprintf("%04d-%02d", year, month)
	for _, b := range a.Budget.Store.State().Items {
		if b.Month == key {
			r.Usage = reports.BudgetUsage(ov, b)
			r.HasBudget = true
		}
	}
	return r, nil
}

// ExportMonth writes the month report and its transactions to the exporter.
func (a *App) ExportMonth(ctx context.Context, year, month int) (string, error) {
	r, err := a.MonthReport(ctx, year, month)
	if err != nil {
		return "", err
	}
	var txs []core.Transaction
	for _, t := range a.Transactions.Store.State().Items {
		if t.Date.Year() == year && t.Date.Month() == month {
			txs = append(txs, t)
		}
	}
	ref, err := a.Exporter.ExportMonth(ctx, sheets.Export{
		Overview:     r.Overview,
		Transactions: txs,
		Categories:   reports.Titles(a.Categories.Store.State().Items),
	})
	if err != nil {
		return "", fmt.Errorf("export %04d-%02d: %w", year, month, err)
	}
	a.Logger.InfoContext(ctx, "month exported", log.FieldOperation, log.OpExport, log.FieldYear, year, log.FieldMonth, month)
	return ref, nil
}

// Watch keeps the stores fresh until ctx ends: the worker polls, and the
// change feed, when configured, triggers targeted refreshes.
func (a *App) Watch(ctx context.Context) error {
	a.caches.Start(ctx, time.Minute)
	if err := a.Worker.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Worker.Stop(stopCtx)
		a.caches.Wait()
	}()

	if a.Feed == nil {
		<-ctx.Done()
		return nil
	}
	err := a.Feed.Consume(ctx, a.Worker.HandleChange)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases stores, the feed and the vault.
func (a *App) Close() error {
	if a.Categories != nil {
		a.Categories.Close()
		a.Commodities.Close()
		a.Transactions.Close()
		a.Budget.Close()
		a.Profile.Close()
		a.Sessions.Close()
	}
	var errs []error
	if a.Feed != nil {
		errs = append(errs, a.Feed.Close())
	}
	if a.Vault != nil {
		errs = append(errs, a.Vault.Close())
	}
	return errors.Join(errs...)
}
