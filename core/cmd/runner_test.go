package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/voicequotes/core/config"
	coretelegram "github.com/m3rciful/voicequotes/core/telegram"
)

type stubCarrier struct{ cfg *coreconfig.Config }

func (s stubCarrier) CoreConfig() *coreconfig.Config { return s.cfg }

type stubApp struct{ started, stopped bool }

func (a *stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { a.started = true; return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { a.stopped = true; return nil },
	}, nil
}

func loadStub(string) (ConfigCarrier, error) {
	return stubCarrier{cfg: &coreconfig.Config{}}, nil
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("QUOTEBOT_CONFIG", "/env.yaml")

	p, err := ResolveConfigPath("/flag.yaml", "QUOTEBOT_CONFIG", "/default.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/flag.yaml", p)

	p, err = ResolveConfigPath("", "QUOTEBOT_CONFIG", "/default.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/env.yaml", p)

	p, err = ResolveConfigPath("", "QUOTEBOT_MISSING", "/default.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/default.yaml", p)

	_, err = ResolveConfigPath("", "QUOTEBOT_MISSING", "")
	assert.Error(t, err)
}

func TestRunWrapsLifecycleHooks(t *testing.T) {
	app := &stubApp{}
	var loaded string
	var shutdowns int

	err := Run(context.Background(), Options{
		ConfigPath: "/cfg.yaml",
		Load: func(path string) (ConfigCarrier, error) {
			loaded = path
			return loadStub(path)
		},
		Bootstrap:      func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { shutdowns++; return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "/cfg.yaml", loaded)
	assert.True(t, app.started)
	assert.True(t, app.stopped)
	assert.Equal(t, 1, shutdowns)
}

func TestRunReportsBootstrapFailure(t *testing.T) {
	boom := errors.New("db down")
	var shutdowns int

	err := Run(context.Background(), Options{
		ConfigPath:     "/cfg.yaml",
		Load:           loadStub,
		Bootstrap:      func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, boom },
		ShutdownLogger: func() error { shutdowns++; return nil },
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, shutdowns)
}

func TestRunRequiresSteps(t *testing.T) {
	assert.Error(t, Run(context.Background(), Options{Load: loadStub}))
}
