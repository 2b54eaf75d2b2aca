package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	preset := `{"scene": "lambert-sphere", "name": "Tiny AO", "integrator": {"kind": "ao"}}`
	if err := os.WriteFile(filepath.Join(dir, "tiny-ao.json"), []byte(preset), 0o644); err != nil {
		t.Fatalf("Failed to write preset: %v", err)
	}
	return NewServer(0, dir, "")
}

func get(t *testing.T, s *Server, path string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	if params != nil {
		path += "?" + params.Encode()
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Expected an ok status, got %s", rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}

func TestScenes(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/scenes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, id := range []string{"lambert-sphere", "preset:tiny-ao"} {
		if !strings.Contains(body, id) {
			t.Errorf("Expected %s in scene list, got %s", id, body)
		}
	}
}

func TestSceneConfig(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		scene    string
		expected int
	}{
		{"", http.StatusOK},
		{"glass-sphere", http.StatusOK},
		{"preset:tiny-ao", http.StatusOK},
		{"cornell-box", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.scene, func(t *testing.T) {
			rec := get(t, s, "/api/scene-config", url.Values{"scene": {tt.scene}})
			if rec.Code != tt.expected {
				t.Errorf("Expected %d, got %d: %s", tt.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestParseRenderRequest(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		wantErr bool
	}{
		{"defaults", url.Values{}, false},
		{"all set", url.Values{"width": {"64"}, "height": {"32"}, "maxFrames": {"8"}, "maxPasses": {"2"}, "integrator": {"ao"}, "exposure": {"1.5"}}, false},
		{"width too large", url.Values{"width": {"5000"}}, true},
		{"height not a number", url.Values{"height": {"tall"}}, true},
		{"unknown integrator", url.Values{"integrator": {"whitted"}}, true},
		{"nan exposure", url.Values{"exposure": {"NaN"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseRenderRequest(tt.values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if err == nil && req.Scene != defaultScene {
				t.Errorf("Expected default scene, got %q", req.Scene)
			}
		})
	}
}

func TestPick(t *testing.T) {
	s := newTestServer(t)
	base := url.Values{"scene": {"lambert-sphere"}, "width": {"9"}, "height": {"9"}}

	tests := []struct {
		name     string
		x, y     string
		code     int
		hit      bool
		material string
	}{
		{"centre", "4", "4", http.StatusOK, true, "surface"},
		{"corner", "0", "0", http.StatusOK, false, "none"},
		{"out of bounds", "9", "4", http.StatusBadRequest, false, ""},
		{"missing", "", "", http.StatusBadRequest, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := url.Values{}
			for k, v := range base {
				params[k] = v
			}
			if tt.x != "" {
				params.Set("x", tt.x)
				params.Set("y", tt.y)
			}
			rec := get(t, s, "/api/pick", params)
			if rec.Code != tt.code {
				t.Fatalf("Expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var resp PickResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Hit != tt.hit || resp.Material != tt.material {
				t.Errorf("Expected hit=%v material=%s, got %+v", tt.hit, tt.material, resp)
			}
		})
	}
}

// sseEvents splits a recorded event stream into (event, data) pairs
func sseEvents(body string) [][2]string {
	var events [][2]string
	for _, block := range strings.Split(body, "\n\n") {
		var event, data string
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
		if event != "" {
			events = append(events, [2]string{event, data})
		}
	}
	return events
}

func TestRenderStream(t *testing.T) {
	s := newTestServer(t)
	params := url.Values{
		"scene": {"preset:tiny-ao"}, "width": {"8"}, "height": {"6"},
		"maxFrames": {"2"}, "maxPasses": {"2"},
	}
	rec := get(t, s, "/api/render", params)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected an event stream, got %q", ct)
	}

	events := sseEvents(rec.Body.String())
	var passes []ProgressUpdate
	tiles := 0
	for _, e := range events {
		switch e[0] {
		case "passComplete":
			var update ProgressUpdate
			if err := json.Unmarshal([]byte(e[1]), &update); err != nil {
				t.Fatalf("Failed to decode pass: %v", err)
			}
			if update.ImageData == "" {
				t.Error("Expected pass image data")
			}
			passes = append(passes, update)
		case "tile":
			tiles++
		case "error":
			t.Fatalf("Unexpected error event: %s", e[1])
		}
	}

	if len(passes) != 2 {
		t.Fatalf("Expected 2 passes, got %d", len(passes))
	}
	if !passes[1].IsComplete || passes[0].IsComplete {
		t.Errorf("Expected only the last pass to be complete, got %v / %v", passes[0].IsComplete, passes[1].IsComplete)
	}
	if passes[1].Stats.TotalPixels != 48 || passes[1].Stats.AverageSamples != 2 {
		t.Errorf("Expected 48 pixels at 2 samples, got %+v", passes[1].Stats)
	}
	if tiles == 0 {
		t.Error("Expected tile events")
	}
	if last := events[len(events)-1]; last[0] != "complete" {
		t.Errorf("Expected the stream to end with complete, got %s", last[0])
	}
}

func TestRenderBadRequest(t *testing.T) {
	s := newTestServer(t)
	for _, params := range []url.Values{
		{"scene": {"cornell-box"}},
		{"width": {"-3"}},
	} {
		rec := get(t, s, "/api/render", params)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %v, got %d", params, rec.Code)
		}
	}
}
