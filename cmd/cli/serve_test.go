package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/config"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/scenario"
)

func serveTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Enabled = false
	cfg.API.RateLimit.Enabled = false
	cfg.API.SessionSecret = "0123456789abcdef0123456789abcdef"
	cfg.Logging.RequestLogging = false
	cfg.Playback.Timing = config.TimingConfig{
		LeadIn: time.Millisecond,
		Travel: time.Millisecond,
		Fade:   time.Millisecond,
		Hide:   time.Millisecond,
		Gap:    time.Millisecond,
	}
	return cfg
}

func TestBuildApp(t *testing.T) {
	cfg := serveTestConfig()
	cfg.Playback.ScanType = "udp"
	cfg.Playback.PortState = "closed"

	rt, err := buildApp(context.Background(), cfg)
	require.NoError(t, err)
	defer rt.close()

	assert.Nil(t, rt.database)
	assert.Nil(t, rt.recorder)
	assert.Nil(t, rt.scheduler)

	status := rt.ctrl.Status()
	assert.Equal(t, scenario.ScanUDP, status.Selection.ScanType)
	assert.Equal(t, scenario.PortClosed, status.Selection.PortState)

	w := httptest.NewRecorder()
	rt.server.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/scans", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	rt.server.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBuildApp_PlaybackReachesSinks(t *testing.T) {
	rt, err := buildApp(context.Background(), serveTestConfig())
	require.NoError(t, err)
	defer rt.close()

	session, err := rt.ctrl.Start()
	require.NoError(t, err)
	result := session.Wait()
	assert.Equal(t, player.StateCompleted, result.Outcome)

	w := httptest.NewRecorder()
	rt.server.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "scanviz_")
}

func TestBuildApp_Autoplay(t *testing.T) {
	t.Run("whole catalog", func(t *testing.T) {
		cfg := serveTestConfig()
		cfg.Autoplay.Enabled = true

		rt, err := buildApp(context.Background(), cfg)
		require.NoError(t, err)
		defer rt.close()

		require.NotNil(t, rt.scheduler)
		assert.Len(t, rt.scheduler.Rotation(), len(catalog.MustBuiltin().IDs())*len(scenario.PortStates))
	})

	t.Run("configured rotation", func(t *testing.T) {
		cfg := serveTestConfig()
		cfg.Autoplay.Enabled = true
		cfg.Autoplay.ScanTypes = []string{"FIN", "udp"}
		cfg.Autoplay.PortStates = []string{"closed"}

		rt, err := buildApp(context.Background(), cfg)
		require.NoError(t, err)
		defer rt.close()

		rotation := rt.scheduler.Rotation()
		require.Len(t, rotation, 2)
		assert.Equal(t, scenario.ScanFIN, rotation[0].ScanType)
		assert.Equal(t, scenario.PortClosed, rotation[1].PortState)
	})

	t.Run("bad schedule", func(t *testing.T) {
		cfg := serveTestConfig()
		cfg.Autoplay.Enabled = true
		cfg.Autoplay.Schedule = "every minute"

		_, err := buildApp(context.Background(), cfg)
		require.Error(t, err)
	})
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	path := writeConfig(t, testConfig+"autoplay:\n  enabled: true\n  schedule: nonsense\n")

	_, err := executeWithConfig(t, path, "serve", "--port", "0")
	require.Error(t, err)
}
