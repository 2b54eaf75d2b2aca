// Package server exposes the progressive renderer over HTTP: scene listing,
// progressive renders streamed as server-sent events and pick queries.
package server

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/log"
	"github.com/df07/go-spectral-sdf/pkg/scene"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
	"github.com/labstack/echo/v4"
)

// Server handles web requests for the progressive renderer
type Server struct {
	port      int
	presetDir string
	staticDir string
	tables    *spectrum.Tables
	echo      *echo.Echo
	logger    log.Logger
}

// NewServer creates a new web server. Scene presets are read from
// presetDir and static files served from staticDir.
func NewServer(port int, presetDir, staticDir string) *Server {
	s := &Server{
		port:      port,
		presetDir: presetDir,
		staticDir: staticDir,
		tables:    spectrum.Default(),
		echo:      echo.New(),
		logger:    log.New("server"),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(s.requestLogger, corsMiddleware)

	s.echo.GET("/api/health", s.handleHealth)
	s.echo.GET("/api/scenes", s.handleScenes)
	s.echo.GET("/api/scene-config", s.handleSceneConfig)
	s.echo.GET("/api/render", s.handleRender)
	s.echo.GET("/api/pick", s.handlePick)
	if staticDir != "" {
		s.echo.Static("/", staticDir)
	}
	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Noticef("starting web server on http://localhost%s", addr)
	return s.echo.Start(addr)
}

func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		return next(c)
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.logger.Infof("%s %s", c.Request().Method, c.Request().URL)
		return next(c)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes and presets
func (s *Server) handleScenes(c echo.Context) error {
	response, err := scene.ListAllScenes(s.presetDir)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, response)
}

// handleSceneConfig returns the configuration a scene starts from together
// with the limits the render endpoint accepts
func (s *Server) handleSceneConfig(c echo.Context) error {
	sceneID := c.QueryParam("scene")
	if sceneID == "" {
		sceneID = defaultScene
	}
	_, cfg, err := scene.Resolve(sceneID, s.presetDir)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"scene":    sceneID,
		"defaults": cfg,
		"limits": map[string]interface{}{
			"width":     map[string]int{"min": 1, "max": 2000},
			"height":    map[string]int{"min": 1, "max": 2000},
			"maxFrames": map[string]int{"min": 1, "max": 100000},
			"maxPasses": map[string]int{"min": 1, "max": 100},
			"exposure":  map[string]float64{"min": 0, "max": 100},
		},
	})
}

const defaultScene = "default"

// RenderRequest represents a render or pick request from the client. Zero
// values keep the scene's configuration.
type RenderRequest struct {
	Scene      string  `json:"scene"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	MaxFrames  int     `json:"maxFrames"`
	MaxPasses  int     `json:"maxPasses"`
	Integrator string  `json:"integrator"`
	Exposure   float64 `json:"exposure"`
}

// parseRenderRequest parses request parameters
func parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{Scene: values.Get("scene"), Integrator: values.Get("integrator")}
	if req.Scene == "" {
		req.Scene = defaultScene
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 0, 1, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", 0, 1, 2000); err != nil {
		return nil, err
	}
	if req.MaxFrames, err = parseIntParam(values, "maxFrames", 0, 1, 100000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(values, "maxPasses", 0, 1, 100); err != nil {
		return nil, err
	}
	if req.Exposure, err = parseFloatParam(values, "exposure", 0, 0, 100); err != nil {
		return nil, err
	}
	switch req.Integrator {
	case "", config.KindPath, config.KindAO, config.KindFirstHit, config.KindNormals:
	default:
		return nil, fmt.Errorf("unknown integrator %q", req.Integrator)
	}
	return req, nil
}

// resolve loads the requested scene and applies the request's overrides
func (s *Server) resolve(req *RenderRequest) (scene.Scene, config.Config, error) {
	sc, cfg, err := scene.Resolve(req.Scene, s.presetDir)
	if err != nil {
		return nil, cfg, err
	}
	if req.Width > 0 {
		cfg.Image.Width = req.Width
	}
	if req.Height > 0 {
		cfg.Image.Height = req.Height
	}
	if req.MaxFrames > 0 {
		cfg.Render.MaxFrames = req.MaxFrames
	}
	if req.MaxPasses > 0 {
		cfg.Render.MaxPasses = req.MaxPasses
	}
	if req.Integrator != "" {
		cfg.Integrator.Kind = req.Integrator
	}
	if req.Exposure > 0 {
		cfg.Tonemap.Exposure = req.Exposure
	}
	return sc, cfg, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := strings.TrimSpace(values.Get(key)); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := strings.TrimSpace(values.Get(key)); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if math.IsNaN(parsed) || parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
