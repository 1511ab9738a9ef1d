// Package services wires the roster, cache and accounting backends into a
// report run.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/hpc-usage-report/internal/backend"
	"github.com/j-veylop/hpc-usage-report/internal/cache"
	"github.com/j-veylop/hpc-usage-report/internal/config"
	"github.com/j-veylop/hpc-usage-report/internal/db"
	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/report"
	"github.com/j-veylop/hpc-usage-report/internal/roster"
	"github.com/j-veylop/hpc-usage-report/internal/services/storagewatch"
	"github.com/j-veylop/hpc-usage-report/internal/services/usage"
)

// Compute backends.
const (
	BackendSacct   = "sacct"
	BackendSreport = "sreport"
)

// DefaultNumMonths is the default report window.
const DefaultNumMonths = 13

type (
	// MonthStartedEvent is emitted before a month's usage is produced.
	MonthStartedEvent struct {
		Month models.Month
		Index int
		Total int
	}

	// MonthDoneEvent is emitted after a month's usage is produced.
	MonthDoneEvent struct {
		Month  models.Month
		Index  int
		Total  int
		Groups int
	}

	// ErrorEvent is emitted when a run fails.
	ErrorEvent struct {
		Service string
		Error   error
	}

	// RunFinishedEvent is emitted when a report is complete.
	RunFinishedEvent struct {
		Report  *report.Report
		Hits    int
		Misses  int
		Elapsed time.Duration
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (MonthStartedEvent) isServiceEvent() {}
func (MonthDoneEvent) isServiceEvent()    {}
func (ErrorEvent) isServiceEvent()        {}
func (RunFinishedEvent) isServiceEvent()  {}

// RunOptions selects what a report run produces.
type RunOptions struct {
	// Month is the reporting month; the window is the NumMonths before it.
	Month       models.Month
	NumMonths   int
	Backend     string
	Storage     bool
	Utilization bool
	Notify      bool
}

var notify = func(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Manager owns the roster, the usage cache store and the backend runner.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	cluster     *config.Cluster
	roster      *roster.Store
	database    *db.DB
	sreportDB   *db.DB
	runner      backend.Runner
	subscribers []chan<- ServiceEvent
}

// NewManager opens the roster and cache. A nil runner runs the accounting
// tools as local processes with the configured timeout.
func NewManager(cfg *config.Config, runner backend.Runner) (*Manager, error) {
	m := &Manager{cfg: cfg, runner: runner}
	if m.runner == nil {
		m.runner = backend.NewExecRunner(cfg.BackendTimeout)
	}

	var err error
	m.cluster, err = config.LoadCluster(cfg.ClusterPath)
	if err != nil {
		return nil, err
	}

	m.roster, err = roster.Open(cfg.RosterPath)
	if err != nil {
		return nil, err
	}

	m.database, err = db.New(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return m, nil
}

// sreportCachePath keeps sreport figures apart from sacct figures.
func sreportCachePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-sreport" + ext
}

// Run produces the report for opts. The cache is persisted once, after every
// month has been produced.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (*report.Report, error) {
	start := time.Now()
	rep, hits, misses, err := m.run(ctx, opts)
	if err != nil {
		m.broadcast(ErrorEvent{Service: "report", Error: err})
		return nil, err
	}

	m.broadcast(RunFinishedEvent{Report: rep, Hits: hits, Misses: misses, Elapsed: time.Since(start)})

	if opts.Notify {
		months := rep.Months()
		first, last := months[0].Time(), months[len(months)-1].Time()
		body := fmt.Sprintf("%s through %s is ready", first.Format("January 2006"), last.Format("January 2006"))
		if err := notify("Cluster usage report", body); err != nil {
			logger.Warn("failed to send notification", "error", err)
		}
	}
	return rep, nil
}

func (m *Manager) run(ctx context.Context, opts RunOptions) (*report.Report, int, int, error) {
	if opts.NumMonths <= 0 {
		opts.NumMonths = DefaultNumMonths
	}
	if opts.Backend == "" {
		opts.Backend = BackendSacct
	}

	store, err := m.CacheDB(opts.Backend)
	if err != nil {
		return nil, 0, 0, err
	}

	c, err := cache.Load(ctx, store, models.ComputeKeys)
	if err != nil {
		return nil, 0, 0, err
	}

	resolver := m.roster.Resolver()
	client := backend.NewClient(m.runner, backend.Tools{Sacct: m.cfg.SacctBin, Sreport: m.cfg.SreportBin})

	var compute usage.Generator
	if opts.Backend == BackendSreport {
		compute = usage.NewAccountSummary(client, c, resolver)
	} else {
		compute = usage.NewJobAccounting(client, c, resolver, nil)
	}

	months := models.Window(opts.Month, opts.NumMonths)
	usages := make([]models.MonthlyUsage, len(months))
	for i, month := range months {
		m.broadcast(MonthStartedEvent{Month: month, Index: i, Total: len(months)})

		generators := []usage.Generator{compute}
		if opts.Utilization {
			generators = append(generators, usage.NewUtilization(client))
		}
		// Storage is only read for the newest month.
		if opts.Storage && i == len(months)-1 {
			generators = append(generators, m.StorageGenerator(resolver))
		}

		usages[i], err = usage.Produce(ctx, month, generators...)
		if err != nil {
			return nil, 0, 0, err
		}
		m.broadcast(MonthDoneEvent{Month: month, Index: i, Total: len(months), Groups: len(usages[i].Groups())})
	}

	if err := c.Flush(ctx); err != nil {
		return nil, 0, 0, err
	}

	rep, err := report.New(months, usages, resolver.Groups())
	if err != nil {
		return nil, 0, 0, err
	}
	hits, misses := c.Stats()
	logger.Debug("report complete", "months", len(months), "hits", hits, "misses", misses)
	return rep, hits, misses, nil
}

// StorageGenerator returns the storage generator for the configured listings.
func (m *Manager) StorageGenerator(resolver *roster.Resolver) *usage.Storage {
	var callback usage.StorageCallback
	if m.cluster.SnapshotReport != "" || len(m.cluster.MiscOwners) > 0 {
		callback = usage.SnapshotCallback(m.cluster.SnapshotReport, m.cluster.SnapshotTier, m.cluster.MiscOwners)
	}
	return usage.NewStorage(m.cluster.StorageSources, resolver, callback)
}

// StoragePaths lists every file the storage generator reads.
func (m *Manager) StoragePaths() []string {
	paths := make([]string, 0, len(m.cluster.StorageSources)+1)
	for _, src := range m.cluster.StorageSources {
		paths = append(paths, src.Path)
	}
	if m.cluster.SnapshotReport != "" {
		paths = append(paths, m.cluster.SnapshotReport)
	}
	return paths
}

// WatchStorage starts watching the storage listings for month.
func (m *Manager) WatchStorage(month models.Month) (*storagewatch.Service, error) {
	return storagewatch.New(m.StorageGenerator(m.roster.Resolver()), month, m.StoragePaths())
}

// CacheDB returns the usage cache of a compute backend. The sreport cache is
// opened on first use.
func (m *Manager) CacheDB(backend string) (*db.DB, error) {
	switch backend {
	case BackendSacct, "":
		return m.database, nil
	case BackendSreport:
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sreportDB == nil {
		sreportDB, err := db.New(sreportCachePath(m.cfg.CachePath))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sreport cache: %w", err)
		}
		m.sreportDB = sreportDB
	}
	return m.sreportDB, nil
}

// ImportCache loads a legacy JSON cache dump into the usage cache of backend.
func (m *Manager) ImportCache(ctx context.Context, backend, path string) (int, error) {
	store, err := m.CacheDB(backend)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open cache dump: %w", err)
	}
	defer f.Close()
	return store.ImportUsageJSON(ctx, f)
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 100)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Roster returns the roster store.
func (m *Manager) Roster() *roster.Store {
	return m.roster
}

// Cluster returns the cluster description.
func (m *Manager) Cluster() *config.Cluster {
	return m.cluster
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and its database.
func (m *Manager) Close() error {
	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error
	for _, store := range []*db.DB{m.database, m.sreportDB} {
		if store == nil {
			continue
		}
		if err := store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
