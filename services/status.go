package services

import (
	"context"
	"database/sql"
	"sync"

	"requestarr/providers"
)

// Pinger is a dependency that can be probed for liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MediaServerProber exposes the media server's public info endpoint.
type MediaServerProber interface {
	Info(ctx context.Context) (providers.SystemInfo, error)
}

type CheckResult struct {
	Status string `json:"status"` // "ok" or "error"
	Detail string `json:"detail,omitempty"`
	Name   string `json:"server_name,omitempty"`
}

type StatusService struct {
	catalog Pinger
	books   Pinger
	media   MediaServerProber
	db      *sql.DB
}

func NewStatusService(catalog, books Pinger, media MediaServerProber, db *sql.DB) *StatusService {
	return &StatusService{catalog: catalog, books: books, media: media, db: db}
}

// Health probes every dependency concurrently. Each probe is independent;
// one failing or hanging dependency never blocks reporting of the others.
func (s *StatusService) Health(ctx context.Context) map[string]CheckResult {
	checks := make(map[string]CheckResult, 4)
	var mu sync.Mutex
	var wg sync.WaitGroup

	record := func(name string, result CheckResult) {
		mu.Lock()
		checks[name] = result
		mu.Unlock()
	}

	probe := func(name string, ping func(context.Context) error) {
		defer wg.Done()
		if err := ping(ctx); err != nil {
			record(name, CheckResult{Status: "error", Detail: err.Error()})
			return
		}
		record(name, CheckResult{Status: "ok"})
	}

	wg.Add(4)
	go probe("catalog_provider", s.catalog.Ping)
	go probe("book_provider", s.books.Ping)
	go probe("database", s.db.PingContext)
	go func() {
		defer wg.Done()
		info, err := s.media.Info(ctx)
		if err != nil {
			record("media_server", CheckResult{Status: "error", Detail: err.Error()})
			return
		}
		record("media_server", CheckResult{Status: "ok", Name: info.ServerName})
	}()

	wg.Wait()
	return checks
}
