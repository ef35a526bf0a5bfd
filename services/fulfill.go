package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"requestarr/apperr"
	"requestarr/models"
)

const fulfillNote = "Found in media server library"

// FulfillChecker periodically scans open requests and fulfills the ones the
// media server library now holds.
type FulfillChecker struct {
	library  LibraryChecker
	interval time.Duration
}

func NewFulfillChecker(library LibraryChecker, interval time.Duration) *FulfillChecker {
	return &FulfillChecker{library: library, interval: interval}
}

// Run blocks until ctx is cancelled, checking on every tick.
func (f *FulfillChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	slog.Info("Auto-fulfill checker started", "interval", f.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Auto-fulfill checker stopped")
			return
		case <-ticker.C:
			f.checkOnce(ctx)
		}
	}
}

func (f *FulfillChecker) checkOnce(ctx context.Context) {
	open, err := ListOpenRequests(ctx)
	if err != nil {
		slog.Error("Auto-fulfill: failed to list open requests", "error", err)
		return
	}

	for _, req := range open {
		inLibrary, err := f.library.InLibrary(ctx, req.Title, req.TMDBID, req.MediaType)
		if err != nil {
			slog.Debug("Auto-fulfill: library check failed",
				"request_id", req.ID, "error", err)
			continue
		}
		if !inLibrary {
			continue
		}

		if err := f.fulfill(ctx, &req); err != nil {
			slog.Warn("Auto-fulfill: transition failed",
				"request_id", req.ID, "error", err)
		}
	}
}

// fulfill walks the request to fulfilled through the regular transition
// path. Pending requests are approved first since pending→fulfilled is not
// a legal move.
func (f *FulfillChecker) fulfill(ctx context.Context, req *models.Request) error {
	note := fulfillNote

	if req.Status == models.RequestPending {
		updated, err := TransitionRequest(ctx, req.ID, SystemActor, models.RequestApproved, nil)
		if err != nil {
			// A concurrent admin move already advanced it; leave it alone
			if errors.Is(err, apperr.ErrInvalidTransition) {
				return nil
			}
			return err
		}
		req = updated
	}

	if req.Status != models.RequestApproved {
		return nil
	}

	_, err := TransitionRequest(ctx, req.ID, SystemActor, models.RequestFulfilled, &note)
	if err != nil && errors.Is(err, apperr.ErrInvalidTransition) {
		return nil
	}
	if err == nil {
		slog.Info("Auto-fulfilled request", "request_id", req.ID, "title", req.Title)
	}
	return err
}
