package web

import (
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-mimic/pkg/camera"
	"github.com/teslashibe/go-mimic/pkg/mode"
	"github.com/teslashibe/go-mimic/pkg/pipeline"
	"github.com/teslashibe/go-mimic/pkg/pose"
	"github.com/teslashibe/go-mimic/pkg/render"
	"github.com/teslashibe/go-mimic/pkg/tracking"
	"github.com/teslashibe/go-mimic/pkg/tracking/detection"
)

type fakeSource struct {
	snap *render.Snapshot
}

func (f *fakeSource) Latest() *render.Snapshot { return f.snap }

func (f *fakeSource) Pose() pose.State {
	if f.snap == nil {
		return pose.Zero()
	}
	return f.snap.Pose
}

var runID = uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")

func newTestServer(t *testing.T, src *fakeSource) (*Server, *mode.Controller, *camera.Manager) {
	t.Helper()
	modes := mode.NewController(mode.Avatar)
	cams := camera.NewManager(camera.DefaultConfig())
	s := NewServer(Options{
		Port:   "0",
		RunID:  runID,
		Modes:  modes,
		Source: src,
		Camera: cams,
		Stats:  func() pipeline.Stats { return pipeline.Stats{Ticks: 12, Completed: 10, Dropped: 2} },
	})
	return s, modes, cams
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestStatusBeforeFirstTick(t *testing.T) {
	s, _, _ := newTestServer(t, &fakeSource{})

	code, body := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, runID.String(), body["run_id"])
	assert.Equal(t, "avatar", body["mode"])
	assert.Equal(t, false, body["subject_present"])
	assert.Equal(t, []any{}, body["objects"])
	assert.Equal(t, float64(2), body["stats"].(map[string]any)["dropped"])
	assert.Equal(t, map[string]any{"monitor": float64(0), "avatar": float64(0), "status": float64(0)}, body["dropped"])
}

func TestStatusReportsLatestSnapshot(t *testing.T) {
	subject := detection.Detection{Class: "person", Score: 0.9, BBox: detection.BBox{X: 10, Y: 20, W: 30, H: 40}}
	src := &fakeSource{snap: &render.Snapshot{
		Tick:      7,
		Mode:      mode.Avatar,
		Subject:   tracking.Subject{Current: &subject},
		Pose:      pose.State{LeftArm: 44.6, BodyLean: 60},
		Objects:   []string{"cup"},
		FrameSize: image.Pt(640, 480),
	}}
	s, _, _ := newTestServer(t, src)

	code, body := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(7), body["tick"])
	assert.Equal(t, true, body["subject_present"])
	assert.Equal(t, []any{"cup"}, body["objects"])
	assert.Equal(t, float64(640), body["frame_width"])

	p := body["pose"].(map[string]any)
	assert.Equal(t, float64(45), p["left_arm"], "status pose is rounded")
	assert.Equal(t, float64(60), p["body_lean"])
}

func TestPoseEndpoint(t *testing.T) {
	src := &fakeSource{snap: &render.Snapshot{Pose: pose.State{HeadTilt: 12.5}}}
	s, _, _ := newTestServer(t, src)

	code, body := do(t, s, http.MethodGet, "/api/pose", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 12.5, body["pose"].(map[string]any)["head_tilt"])

	arm := body["ranges"].(map[string]any)["arm"].(map[string]any)
	assert.Equal(t, float64(-75), arm["min"])
	assert.Equal(t, float64(75), arm["max"])
}

func TestModeToggle(t *testing.T) {
	s, modes, _ := newTestServer(t, &fakeSource{})

	code, body := do(t, s, http.MethodPost, "/api/mode/toggle", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "detection_only", body["mode"])
	assert.Equal(t, mode.DetectionOnly, modes.Mode())

	_, body = do(t, s, http.MethodPost, "/api/mode/toggle", "")
	assert.Equal(t, "avatar", body["mode"])
}

func TestSetMode(t *testing.T) {
	s, modes, _ := newTestServer(t, &fakeSource{})

	code, body := do(t, s, http.MethodPut, "/api/mode", `{"mode":"detection_only"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "detection_only", body["mode"])
	assert.Equal(t, mode.DetectionOnly, modes.Mode())

	code, _ = do(t, s, http.MethodPut, "/api/mode", `{"mode":"cartoon"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, mode.DetectionOnly, modes.Mode(), "bad request leaves mode alone")

	code, body = do(t, s, http.MethodPut, "/api/mode", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "mode is required", body["error"])
	assert.Equal(t, mode.DetectionOnly, modes.Mode(), "missing mode leaves mode alone")

	_, body = do(t, s, http.MethodGet, "/api/mode", "")
	assert.Equal(t, "detection_only", body["mode"])
}

func TestCameraAPI(t *testing.T) {
	s, _, cams := newTestServer(t, &fakeSource{})

	var applied []camera.Config
	cams.OnConfigChange = func(prev, next camera.Config) error {
		applied = append(applied, next)
		return nil
	}

	code, body := do(t, s, http.MethodGet, "/api/camera", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(640), body["config"].(map[string]any)["width"])
	assert.Contains(t, body["presets"], "hd")

	code, body = do(t, s, http.MethodPost, "/api/camera", `{"preset":"hd"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1280), body["config"].(map[string]any)["width"])
	require.Len(t, applied, 1)
	assert.Equal(t, 720, applied[0].Height)

	code, body = do(t, s, http.MethodPost, "/api/camera", `{"width":5}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "width")
}

func TestCameraAPIDisabled(t *testing.T) {
	s := NewServer(Options{Modes: mode.NewController(mode.Avatar), Source: &fakeSource{}})

	code, _ := do(t, s, http.MethodGet, "/api/camera", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s, _, _ := newTestServer(t, &fakeSource{})

	code, _ := do(t, s, http.MethodGet, "/ws/status", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestDashboardPage(t *testing.T) {
	s, _, _ := newTestServer(t, &fakeSource{})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), "/api/mode/toggle")
}

func TestPublishWithoutClients(t *testing.T) {
	s, _, _ := newTestServer(t, &fakeSource{})

	assert.NotPanics(t, func() {
		s.Publish(nil)
		s.Publish(&render.Snapshot{Tick: 1, Monitor: []byte{1}, Avatar: []byte{2}})
	})
}

func TestStatusReportsDroppedBroadcasts(t *testing.T) {
	s, _, _ := newTestServer(t, &fakeSource{})

	// Hubs are not running, so broadcasts past the buffer are discarded.
	for i := 0; i < 20; i++ {
		s.Publish(&render.Snapshot{Tick: uint64(i), Monitor: []byte{1}})
	}

	_, body := do(t, s, http.MethodGet, "/api/status", "")
	dropped := body["dropped"].(map[string]any)
	assert.Equal(t, float64(4), dropped["monitor"])
	assert.Equal(t, float64(0), dropped["avatar"])
	assert.Equal(t, float64(0), dropped["status"])
}
