package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/df07/go-spectral-sdf/pkg/renderer"
	"github.com/labstack/echo/v4"
)

// TileUpdate represents a single tile update sent via SSE
type TileUpdate struct {
	TileX       int    `json:"tileX"`
	TileY       int    `json:"tileY"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber  int    `json:"passNumber"`
	TileNumber  int    `json:"tileNumber"`  // Current tile number in this pass (1-based)
	TotalTiles  int    `json:"totalTiles"`  // Total number of tiles in the image
	TotalPasses int    `json:"totalPasses"` // Total number of passes planned
}

// ProgressUpdate represents a completed pass sent via SSE
type ProgressUpdate struct {
	PassNumber  int    `json:"passNumber"`
	TotalPasses int    `json:"totalPasses"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG
	Stats       Stats  `json:"stats"`
	IsComplete  bool   `json:"isComplete"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	TargetFrames   int     `json:"targetFrames"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
}

// handleRender streams a progressive render as server-sent events: a "tile"
// event per finished tile, a "passComplete" event with the full image after
// every pass, then "complete" or "error". The render stops when the client
// disconnects.
func (s *Server) handleRender(c echo.Context) error {
	req, err := parseRenderRequest(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	sc, cfg, err := s.resolve(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	r, err := renderer.NewRenderer(sc, cfg, s.tables)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	defer r.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	startTime := time.Now()
	passChan, tileChan, errChan := r.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: true})
	totalPasses := r.Config().Render.MaxPasses

	for passChan != nil || tileChan != nil {
		select {
		case result, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			if err := s.sendPass(w, result, totalPasses, startTime); err != nil {
				return s.drain(passChan, tileChan, err)
			}

		case result, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			if err := s.sendTile(w, result); err != nil {
				return s.drain(passChan, tileChan, err)
			}

		case <-ctx.Done():
			s.logger.Notice("client disconnected, render cancelled")
			return s.drain(passChan, tileChan, nil)
		}
	}

	if err := <-errChan; err != nil {
		return writeSSEEvent(w, "error", fmt.Sprintf("Rendering failed: %v", err))
	}
	return writeSSEEvent(w, "complete", "Rendering completed")
}

// drain waits for the render goroutine to stop so it never outlives the
// request
func (s *Server) drain(passChan <-chan renderer.PassResult, tileChan <-chan renderer.TileCompletionResult, err error) error {
	if err != nil {
		s.logger.Warningf("stream write failed: %v", err)
	}
	for range passChan {
	}
	for range tileChan {
	}
	return nil
}

func (s *Server) sendPass(w *echo.Response, result renderer.PassResult, totalPasses int, startTime time.Time) error {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		return err
	}
	return writeSSEJSON(w, "passComplete", ProgressUpdate{
		PassNumber:  result.PassNumber,
		TotalPasses: totalPasses,
		ImageData:   imageData,
		Stats: Stats{
			TotalPixels:    result.Stats.TotalPixels,
			TotalSamples:   result.Stats.TotalSamples,
			AverageSamples: result.Stats.AverageSamples,
			TargetFrames:   result.Stats.TargetFrames,
			MinSamples:     result.Stats.MinSamples,
			MaxSamplesUsed: result.Stats.MaxSamplesUsed,
		},
		IsComplete: result.IsLast,
		ElapsedMs:  time.Since(startTime).Milliseconds(),
	})
}

func (s *Server) sendTile(w *echo.Response, result renderer.TileCompletionResult) error {
	tileData, err := imageToBase64PNG(result.TileImage)
	if err != nil {
		return fmt.Errorf("encoding tile (%d, %d): %w", result.TileX, result.TileY, err)
	}
	return writeSSEJSON(w, "tile", TileUpdate{
		TileX:       result.TileX,
		TileY:       result.TileY,
		ImageData:   tileData,
		PassNumber:  result.PassNumber,
		TileNumber:  result.TileNumber,
		TotalTiles:  result.TotalTiles,
		TotalPasses: result.TotalPasses,
	})
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeSSEJSON(w *echo.Response, event string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeSSEEvent(w, event, string(data))
}

// writeSSEEvent writes one event and flushes it to the client
func writeSSEEvent(w *echo.Response, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
