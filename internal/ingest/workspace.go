package ingest

import (
	"log/slog"
	"os"
	"path/filepath"
)

// workspace is the per-job scratch directory. Every invocation gets a
// uniquely named directory so concurrent jobs never collide.
type workspace struct {
	dir     string
	input   string
	overlay string
	output  string
}

func newWorkspace() (*workspace, error) {
	dir, err := os.MkdirTemp("", "lf-ffmpeg-")
	if err != nil {
		return nil, err
	}
	return &workspace{
		dir:     dir,
		input:   filepath.Join(dir, "input.mp4"),
		overlay: filepath.Join(dir, "wm.png"),
		output:  filepath.Join(dir, "output.mp4"),
	}, nil
}

// materialize writes the fetched staging payloads into the workspace.
func (w *workspace) materialize(video, overlay []byte) error {
	if err := os.WriteFile(w.input, video, 0o600); err != nil {
		return err
	}
	return os.WriteFile(w.overlay, overlay, 0o600)
}

// release removes the directory. Failures are logged, never surfaced.
func (w *workspace) release(log *slog.Logger) {
	if err := os.RemoveAll(w.dir); err != nil {
		log.Warn("workspace cleanup failed", "dir", w.dir, "error", err)
	}
}
