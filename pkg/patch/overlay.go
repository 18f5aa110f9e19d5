package patch

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/walteh/tmplpatch/pkg/status"
)

// overlay keeps planned writes in memory, keyed by path on disk
type overlay struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newOverlay() *overlay {
	return &overlay{files: map[string][]byte{}}
}

func (o *overlay) view(disk *status.Manager) *overlayView {
	return &overlayView{overlay: o, disk: disk}
}

// overlayView reads planned content first and falls back to the disk
type overlayView struct {
	*overlay
	disk *status.Manager
}

var _ status.FileManager = (*overlayView)(nil)

func (v *overlayView) key(path string) string {
	return filepath.Clean(filepath.Join(v.disk.BaseDir(), filepath.FromSlash(path)))
}

func (v *overlayView) ReadFile(ctx context.Context, path string) ([]byte, error) {
	v.mu.Lock()
	content, ok := v.files[v.key(path)]
	v.mu.Unlock()
	if ok {
		return content, nil
	}
	return v.disk.ReadFile(ctx, path)
}

func (v *overlayView) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.files[v.key(path)] = content
	return nil
}
