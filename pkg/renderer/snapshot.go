package renderer

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"time"

	"github.com/df07/go-spectral-sdf/pkg/config"
)

const snapshotDataFile = "state.bin"

var (
	// ErrSizeMismatch is returned when a snapshot's image size differs from
	// the renderer's
	ErrSizeMismatch = errors.New("snapshot size mismatch")

	// ErrStaleSnapshot is returned when a snapshot was taken for another view
	ErrStaleSnapshot = errors.New("snapshot belongs to a different view")
)

type snapshot struct {
	Width, Height int
	ViewHash      uint64
	Frames        int
	Pixels        []PixelState
}

// ViewHash identifies everything in cfg that changes the converged image.
// Render scheduling and tonemap settings are excluded.
func ViewHash(cfg config.Config) uint64 {
	cfg.Render = config.RenderConfig{}
	cfg.Tonemap = config.TonemapConfig{}
	h := fnv.New64a()
	fmt.Fprintf(h, "%#v", cfg)
	return h.Sum64()
}

// WriteSnapshot stores the published accumulators and generator states so a
// later process can resume accumulating
func (r *Renderer) WriteSnapshot(w io.Writer) error {
	start := time.Now()

	zw := zip.NewWriter(w)
	cw, err := zw.Create(snapshotDataFile)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(cw).Encode(snapshot{
		Width:    r.buffers.Width,
		Height:   r.buffers.Height,
		ViewHash: r.viewHash,
		Frames:   r.frames,
		Pixels:   r.buffers.Pixels(),
	})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return err
	}

	r.logger.Infof("wrote snapshot of %d frames in %d ms", r.frames, time.Since(start).Milliseconds())
	return nil
}

// ReadSnapshot restores state written by WriteSnapshot. The snapshot must
// match the renderer's image size and view.
func (r *Renderer) ReadSnapshot(rd io.Reader) error {
	// zip needs a ReaderAt, so the whole snapshot is read into memory
	data, err := io.ReadAll(rd)
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	var snap *snapshot
	for _, f := range zr.File {
		if f.Name != snapshotDataFile {
			r.logger.Warningf("unknown file %s in snapshot; skipping", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		snap = &snapshot{}
		err = gob.NewDecoder(rc).Decode(snap)
		rc.Close()
		if err != nil {
			return fmt.Errorf("decoding snapshot: %w", err)
		}
	}
	if snap == nil {
		return fmt.Errorf("reading snapshot: missing %s", snapshotDataFile)
	}

	switch {
	case snap.Width != r.buffers.Width || snap.Height != r.buffers.Height ||
		len(snap.Pixels) != r.buffers.Width*r.buffers.Height:
		return fmt.Errorf("%w: snapshot is %dx%d, image is %dx%d",
			ErrSizeMismatch, snap.Width, snap.Height, r.buffers.Width, r.buffers.Height)
	case snap.ViewHash != r.viewHash:
		return ErrStaleSnapshot
	}
	for i, p := range snap.Pixels {
		if !p.RNG.Valid() {
			return fmt.Errorf("reading snapshot: pixel %d has an invalid generator state", i)
		}
	}

	copy(r.buffers.Pixels(), snap.Pixels)
	r.frames = snap.Frames
	r.logger.Noticef("resumed from snapshot at %d frames", r.frames)
	return nil
}
