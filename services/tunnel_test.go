package services

import (
	"context"
	"errors"
	"testing"

	"requestarr/apperr"
	"requestarr/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	startErr  error
	stopErr   error
	urlErr    error
	url       string
	starts    int
	stops     int
	startedAs string
}

func (f *fakeRunner) Start(authtoken, port string) error {
	f.starts++
	f.startedAs = authtoken
	return f.startErr
}

func (f *fakeRunner) Stop() error {
	f.stops++
	return f.stopErr
}

func (f *fakeRunner) PublicURL(ctx context.Context) (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return f.url, nil
}

var (
	tunnelAdmin = &models.User{ID: "a-1", Username: "admin", Role: models.RoleAdmin}
	tunnelUser  = &models.User{ID: "u-1", Username: "bob", Role: models.RoleUser}
)

func TestTunnelStartStop(t *testing.T) {
	runner := &fakeRunner{url: "https://abc123.ngrok-free.app"}
	svc := NewTunnelService(runner, "token", "5005")

	assert.False(t, svc.Status().Active)

	status, err := svc.Start(context.Background(), tunnelAdmin)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, "https://abc123.ngrok-free.app", status.URL)
	assert.Equal(t, "token", runner.startedAs)

	got := svc.Status()
	assert.True(t, got.Active)
	assert.Equal(t, "https://abc123.ngrok-free.app", got.URL)

	require.NoError(t, svc.Stop(tunnelAdmin))
	assert.Equal(t, 1, runner.stops)

	got = svc.Status()
	assert.False(t, got.Active)
	assert.Empty(t, got.URL)
}

func TestTunnelStartRequiresAdmin(t *testing.T) {
	runner := &fakeRunner{url: "https://abc.ngrok-free.app"}
	svc := NewTunnelService(runner, "token", "5005")

	_, err := svc.Start(context.Background(), tunnelUser)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Zero(t, runner.starts)

	err = svc.Stop(tunnelUser)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestTunnelDoubleStart(t *testing.T) {
	runner := &fakeRunner{url: "https://abc.ngrok-free.app"}
	svc := NewTunnelService(runner, "token", "5005")

	_, err := svc.Start(context.Background(), tunnelAdmin)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), tunnelAdmin)
	assert.ErrorIs(t, err, apperr.ErrTunnelAlreadyActive)
	assert.Equal(t, 1, runner.starts)
}

func TestTunnelStopWhenInactive(t *testing.T) {
	svc := NewTunnelService(&fakeRunner{}, "token", "5005")

	err := svc.Stop(tunnelAdmin)
	assert.ErrorIs(t, err, apperr.ErrTunnelNotActive)
}

func TestTunnelMissingAuthtoken(t *testing.T) {
	runner := &fakeRunner{url: "https://abc.ngrok-free.app"}
	svc := NewTunnelService(runner, "", "5005")

	_, err := svc.Start(context.Background(), tunnelAdmin)
	assert.ErrorIs(t, err, apperr.ErrTunnelConfigMissing)
	assert.Zero(t, runner.starts)
}

func TestTunnelStartNoURLTearsDown(t *testing.T) {
	runner := &fakeRunner{urlErr: errors.New("agent never reported")}
	svc := NewTunnelService(runner, "token", "5005")

	_, err := svc.Start(context.Background(), tunnelAdmin)
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	assert.Equal(t, 1, runner.stops)
	assert.False(t, svc.Status().Active)
}

func TestTunnelStartRunnerError(t *testing.T) {
	runner := &fakeRunner{startErr: errors.New("ngrok not installed")}
	svc := NewTunnelService(runner, "token", "5005")

	_, err := svc.Start(context.Background(), tunnelAdmin)
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	assert.False(t, svc.Status().Active)
}

func TestTunnelShutdown(t *testing.T) {
	runner := &fakeRunner{url: "https://abc.ngrok-free.app"}
	svc := NewTunnelService(runner, "token", "5005")

	_, err := svc.Start(context.Background(), tunnelAdmin)
	require.NoError(t, err)

	svc.Shutdown()
	assert.Equal(t, 1, runner.stops)
	assert.False(t, svc.Status().Active)

	// Shutdown on an inactive service is a no-op.
	svc.Shutdown()
	assert.Equal(t, 1, runner.stops)
}
