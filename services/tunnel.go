package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"requestarr/apperr"
	"requestarr/httpclient"
	"requestarr/models"
)

// TunnelRunner abstracts the tunnel agent process so the service can be
// tested without spawning ngrok.
type TunnelRunner interface {
	Start(authtoken, port string) error
	Stop() error
	PublicURL(ctx context.Context) (string, error)
}

type TunnelStatus struct {
	Active bool   `json:"active"`
	URL    string `json:"url,omitempty"`
}

// TunnelService controls the externally-managed tunnel exposing the app.
// The tunnel mechanics stay opaque; this service only starts and stops the
// agent and reports the observed state.
type TunnelService struct {
	mu        sync.Mutex
	runner    TunnelRunner
	authtoken string
	port      string
	active    bool
	url       string
}

func NewTunnelService(runner TunnelRunner, authtoken, port string) *TunnelService {
	return &TunnelService{runner: runner, authtoken: authtoken, port: port}
}

func (s *TunnelService) Status() TunnelStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TunnelStatus{Active: s.active, URL: s.url}
}

func (s *TunnelService) Start(ctx context.Context, actor *models.User) (TunnelStatus, error) {
	if !actor.IsAdmin() {
		return TunnelStatus{}, apperr.ErrForbidden.WithDetail("admin role required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return TunnelStatus{}, apperr.ErrTunnelAlreadyActive
	}
	if s.authtoken == "" {
		return TunnelStatus{}, apperr.ErrTunnelConfigMissing.WithDetail("set NGROK_AUTHTOKEN to enable the tunnel")
	}

	if err := s.runner.Start(s.authtoken, s.port); err != nil {
		return TunnelStatus{}, apperr.ErrUpstreamUnavailable.WithDetail(fmt.Sprintf("failed to start tunnel: %v", err))
	}

	url, err := s.runner.PublicURL(ctx)
	if err != nil {
		// The agent came up but never reported a URL; tear it down again
		s.runner.Stop()
		return TunnelStatus{}, apperr.ErrUpstreamUnavailable.WithDetail(fmt.Sprintf("tunnel started but no public URL: %v", err))
	}

	s.active = true
	s.url = url
	slog.Info("Tunnel started", "url", url, "actor", actor.Username)
	return TunnelStatus{Active: true, URL: url}, nil
}

func (s *TunnelService) Stop(actor *models.User) error {
	if !actor.IsAdmin() {
		return apperr.ErrForbidden.WithDetail("admin role required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return apperr.ErrTunnelNotActive
	}

	if err := s.runner.Stop(); err != nil {
		return apperr.ErrUpstreamUnavailable.WithDetail(fmt.Sprintf("failed to stop tunnel: %v", err))
	}

	s.active = false
	s.url = ""
	slog.Info("Tunnel stopped", "actor", actor.Username)
	return nil
}

// Shutdown stops the agent if it is still running, for server teardown.
func (s *TunnelService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.runner.Stop()
		s.active = false
		s.url = ""
	}
}

// NgrokRunner runs the ngrok agent as a child process and reads the public
// URL from the agent's local API.
type NgrokRunner struct {
	apiURL string
	cmd    *exec.Cmd
}

func NewNgrokRunner(apiURL string) *NgrokRunner {
	return &NgrokRunner{apiURL: apiURL}
}

func (r *NgrokRunner) Start(authtoken, port string) error {
	cmd := exec.Command("ngrok", "http", port, "--log", "stdout", "--log-format", "json")
	cmd.Env = append(os.Environ(), "NGROK_AUTHTOKEN="+authtoken)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ngrok: %w", err)
	}
	r.cmd = cmd

	// Reap the process when it exits so a crashed agent does not linger as
	// a zombie.
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Warn("ngrok agent exited", "error", err)
		}
	}()

	return nil
}

func (r *NgrokRunner) Stop() error {
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	if err := r.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill ngrok: %w", err)
	}
	r.cmd = nil
	return nil
}

type ngrokTunnelList struct {
	Tunnels []struct {
		PublicURL string `json:"public_url"`
		Proto     string `json:"proto"`
	} `json:"tunnels"`
}

// PublicURL polls the agent's local API until a tunnel shows up. The agent
// needs a moment after start before it reports anything.
func (r *NgrokRunner) PublicURL(ctx context.Context) (string, error) {
	deadline := time.After(15 * time.Second)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline:
			return "", fmt.Errorf("timed out waiting for tunnel URL")
		case <-ticker.C:
			resp, err := httpclient.Get(ctx, r.apiURL+"/api/tunnels", httpclient.ProbeClient)
			if err != nil {
				continue
			}
			var list ngrokTunnelList
			if err := httpclient.DecodeJSON(resp, &list); err != nil {
				continue
			}
			for _, t := range list.Tunnels {
				if t.Proto == "https" && t.PublicURL != "" {
					return t.PublicURL, nil
				}
			}
		}
	}
}
