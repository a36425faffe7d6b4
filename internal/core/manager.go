package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newsreel/internal/clients/easynews"
	"newsreel/internal/clients/metadata"
	"newsreel/internal/clients/notifications"
	"newsreel/internal/config"
	"newsreel/internal/utils"
)

const authNoticeInterval = time.Hour

// Manager owns the search pipeline: metadata resolution, title
// expansion, multi-query collection, filtering, and ranking. It also
// runs the background maintenance jobs.
type Manager struct {
	cfg       *config.Config
	client    *easynews.Client
	resolver  metadata.Resolver
	notifiers []notifications.Notifier
	logger    utils.Log
	summary   *utils.SummaryLogger
	store     *easynews.CacheStore
	scheduler *cron.Cron
	startedAt time.Time

	mu             sync.Mutex
	lastAuthNotice time.Time
}

func NewManager(cfg *config.Config, client *easynews.Client, resolver metadata.Resolver,
	notifiers []notifications.Notifier, store *easynews.CacheStore,
	summary *utils.SummaryLogger, logger utils.Log) *Manager {

	return &Manager{
		cfg:       cfg,
		client:    client,
		resolver:  resolver,
		notifiers: notifiers,
		store:     store,
		summary:   summary,
		logger:    logger,
		scheduler: cron.New(),
		startedAt: time.Now(),
	}
}

// StartScheduler wires the periodic jobs: compaction of the persistent
// cache and the log-summary flush.
func (m *Manager) StartScheduler() {
	if m.store != nil {
		m.scheduler.AddFunc("@every 1h", func() {
			removed, err := m.store.Compact()
			if err != nil {
				m.logger.Error("cache compaction failed:", err)
				return
			}
			if removed > 0 {
				m.logger.Info("cache compaction removed", removed, "expired entries")
			}
		})
	}
	if m.summary != nil {
		m.scheduler.AddFunc("@every 10m", m.summary.Flush)
	}
	m.scheduler.Start()
}

func (m *Manager) Stop() {
	m.scheduler.Stop()
	if m.summary != nil {
		m.summary.Flush()
	}
	if m.store != nil {
		m.store.Close()
	}
}

// Streams runs the full pipeline for one media id and returns the
// ranked candidates. ErrUnauthorized passes through untouched so the
// handler can render a credentials-specific response; metadata misses
// surface as metadata.ErrNotFound.
func (m *Manager) Streams(ctx context.Context, logger utils.Log, mediaType, imdbID string,
	season, episode int, opts config.Options) (RankResult, error) {

	meta, err := m.resolver.Resolve(ctx, imdbID, mediaType)
	if err != nil {
		return RankResult{}, err
	}
	meta.Season = season
	meta.Episode = episode
	logger.Info("resolved", imdbID, "to", meta.Name, "(", meta.Year, ")")

	titles := ExpandTitles(meta.Name, opts.CustomTitles, meta.AlternativeNames)
	logger.Debug("expanded to", len(titles), "title variants")

	orchestrator := NewOrchestrator(m.client, m.cfg.Search.TotalMaxResults, logger)
	responses, err := orchestrator.Collect(ctx, titles, meta)
	if err != nil {
		if errors.Is(err, easynews.ErrUnauthorized) {
			m.notifyAuthFailure(err)
		}
		return RankResult{}, err
	}

	candidates := FilterResults(responses, titles, meta, FilterOptions{
		Strict:   opts.StrictMatching,
		Cap:      m.cfg.Search.TotalMaxResults,
		Username: m.cfg.Easynews.Username,
		Password: m.cfg.Easynews.Password,
	}, logger)

	preference := ParseSortingPreference(opts.Sorting)
	ranked := Rank(candidates, preference, opts.PreferredLanguage)
	result := PostFilter(ranked, RankOptions{
		Preference:        preference,
		PreferredLanguage: opts.PreferredLanguage,
		AllowedTiers:      ParseAllowedTiers(opts.Qualities),
		MaxSizeGB:         opts.MaxSizeGB,
		MaxPerTier:        opts.MaxResultsPerQuality,
	}, logger)

	logger.Info("returning", len(result.Candidates), "streams for", meta.Name)
	return result, nil
}

// notifyAuthFailure pushes at most one operator alert per interval, so
// a broken credential does not turn every stream request into a push.
func (m *Manager) notifyAuthFailure(err error) {
	m.mu.Lock()
	throttled := time.Since(m.lastAuthNotice) < authNoticeInterval
	if !throttled {
		m.lastAuthNotice = time.Now()
	}
	m.mu.Unlock()
	if throttled {
		return
	}

	for _, notifier := range m.notifiers {
		notifier.NotifyAuthFailure(err.Error())
	}
}

// Status is the payload for the status endpoint.
type Status struct {
	UptimeSeconds   int64 `json:"uptimeSeconds"`
	UpstreamOK      bool  `json:"upstreamOk"`
	CacheEntries    int   `json:"cacheEntries"`
	PersistedCached int   `json:"persistedCacheEntries"`
}

func (m *Manager) Status(ctx context.Context) Status {
	status := Status{
		UptimeSeconds: int64(time.Since(m.startedAt).Seconds()),
		UpstreamOK:    m.client.Probe(ctx),
		CacheEntries:  m.client.CacheLen(),
	}
	if m.store != nil {
		if count, err := m.store.Len(); err == nil {
			status.PersistedCached = count
		}
	}
	return status
}

// TestNotifiers pings every configured notifier.
func (m *Manager) TestNotifiers() error {
	for _, notifier := range m.notifiers {
		if err := notifier.Test(); err != nil {
			return err
		}
	}
	return nil
}
