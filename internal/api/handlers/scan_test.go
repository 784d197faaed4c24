package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/render"
	"github.com/anstrom/scanviz/internal/scenario"
)

func newScanRouter() (*mux.Router, *ScanHandler) {
	h := NewScanHandler(catalog.MustBuiltin(), player.DefaultTiming(), createTestLogger())
	r := mux.NewRouter()
	r.HandleFunc("/scans", h.ListScans)
	r.HandleFunc("/scans/{id}", h.GetScan)
	r.HandleFunc("/scans/{id}/scenarios/{state}", h.GetScenario)
	return r, h
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestScanHandler_ListScans(t *testing.T) {
	router, _ := newScanRouter()

	w := serve(router, "GET", "/scans")

	require.Equal(t, http.StatusOK, w.Code)
	var resp ScanListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, len(scenario.ScanTypes), resp.Total)
	require.Len(t, resp.Scans, resp.Total)

	for i, id := range scenario.ScanTypes {
		assert.Equal(t, id, resp.Scans[i].ID)
		assert.ElementsMatch(t, scenario.PortStates, resp.Scans[i].PortStates)
	}
	assert.False(t, resp.Scans[0].RequiresRoot, "connect scans run unprivileged")
	assert.True(t, resp.Scans[1].RequiresRoot)
}

func TestScanHandler_GetScan(t *testing.T) {
	router, _ := newScanRouter()

	t.Run("case insensitive id", func(t *testing.T) {
		w := serve(router, "GET", "/scans/TCP-SYN")

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		legend := resp["legend"].(map[string]interface{})
		assert.Equal(t, string(render.LegendTCP), legend["kind"])
		nmap := resp["nmap"].(map[string]interface{})
		assert.Contains(t, nmap["command_line"], "-sS")
	})

	t.Run("udp uses the protocol legend", func(t *testing.T) {
		w := serve(router, "GET", "/scans/udp")

		require.Equal(t, http.StatusOK, w.Code)
		var resp ScanDetailResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, render.LegendProtocol, resp.Legend.Kind)
		assert.Contains(t, resp.Nmap.CommandLine, "-sU")
	})

	t.Run("unknown id", func(t *testing.T) {
		w := serve(router, "GET", "/scans/ping-sweep")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "UNKNOWN_SCAN_TYPE", decodeError(t, w).Code)
	})
}

func TestScanHandler_GetScenario(t *testing.T) {
	router, h := newScanRouter()

	decode := func(t *testing.T, w *httptest.ResponseRecorder) ScenarioResponse {
		t.Helper()
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp ScenarioResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	t.Run("connect open", func(t *testing.T) {
		resp := decode(t, serve(router, "GET", "/scans/tcp-connect/scenarios/open"))

		assert.Equal(t, scenario.PortOpen, resp.PortState)
		assert.Equal(t, scenario.JudgementOpen, resp.Judgement)
		assert.Equal(t, scenario.BadgeOpen, resp.Badge)
		assert.Equal(t, scenario.DefaultPort, resp.Port)
		assert.Len(t, resp.Frames, len(resp.Timeline))
		assert.Nil(t, resp.Payload)

		s, _, err := catalog.MustBuiltin().Scenario(scenario.ScanTCPConnect, scenario.PortOpen)
		require.NoError(t, err)
		assert.Equal(t, h.timing.Estimate(s.Frames, 1).Milliseconds(), resp.EstimateMs)
	})

	t.Run("fin open is ambiguous", func(t *testing.T) {
		resp := decode(t, serve(router, "GET", "/scans/fin/scenarios/open"))

		assert.Equal(t, scenario.JudgementOpenFiltered, resp.Judgement)
		assert.Equal(t, scenario.BadgeOpenOrFiltered, resp.Badge)
	})

	t.Run("unknown state falls back to open", func(t *testing.T) {
		resp := decode(t, serve(router, "GET", "/scans/tcp-connect/scenarios/filtered"))

		assert.Equal(t, scenario.PortOpen, resp.PortState)
	})

	t.Run("speed and port", func(t *testing.T) {
		resp := decode(t, serve(router, "GET", "/scans/tcp-syn/scenarios/closed?speed=2&port=8443"))

		assert.Equal(t, 2.0, resp.Speed)
		assert.Equal(t, 8443, resp.Port)
		assert.Contains(t, resp.Nmap.CommandLine, "8443")
	})

	t.Run("invalid port becomes default", func(t *testing.T) {
		resp := decode(t, serve(router, "GET", "/scans/tcp-syn/scenarios/closed?port=http"))

		assert.Equal(t, scenario.DefaultPort, resp.Port)
	})

	t.Run("light theme palette", func(t *testing.T) {
		resp := decode(t, serve(router, "GET", "/scans/xmas/scenarios/closed?theme=light"))

		assert.Equal(t, render.PaletteFor(render.ThemeLight), resp.Palette)
	})

	t.Run("udp includes payload", func(t *testing.T) {
		resp := decode(t, serve(router, "GET", "/scans/udp/scenarios/closed?port=53"))

		require.NotNil(t, resp.Payload)
		assert.Equal(t, 53, resp.Payload.Port)
		assert.NotEmpty(t, resp.Payload.Hex)
		assert.Positive(t, resp.Payload.Size)
	})

	t.Run("invalid speed", func(t *testing.T) {
		w := serve(router, "GET", "/scans/udp/scenarios/open?speed=0")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_SPEED", decodeError(t, w).Code)
	})

	t.Run("unknown scan", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(router, "GET", "/scans/ack/scenarios/open").Code)
	})
}
