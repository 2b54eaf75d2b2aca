package server

import (
	"fmt"
	"net/http"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/integrator"
	"github.com/labstack/echo/v4"
)

// PickResponse reports what lies under a pixel
type PickResponse struct {
	Hit      bool    `json:"hit"`
	Material string  `json:"material"`
	Distance float64 `json:"distance"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
}

// handlePick marches the primary ray through pixel (x, y) and reports the
// distance and material of the first hit. It accepts the same scene
// parameters as the render endpoint.
func (s *Server) handlePick(c echo.Context) error {
	values := c.QueryParams()
	req, err := parseRenderRequest(values)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	sc, cfg, err := s.resolve(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	x, err := parseIntParam(values, "x", -1, 0, cfg.Image.Width-1)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	y, err := parseIntParam(values, "y", -1, 0, cfg.Image.Height-1)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if x < 0 || y < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "x and y are required"})
	}

	view, err := integrator.NewView(sc, cfg, s.tables)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	distance, mat := view.Pick(x, y)
	s.logger.Debugf("pick (%d, %d) on %s: %s at %.4f", x, y, sc.Name(), mat, distance)

	return c.JSON(http.StatusOK, PickResponse{
		Hit:      mat != core.MaterialNone,
		Material: fmt.Sprint(mat),
		Distance: distance,
		X:        x,
		Y:        y,
	})
}
