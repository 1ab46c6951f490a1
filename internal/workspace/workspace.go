// Package workspace owns the clips directory for one run: it creates a
// temporary directory when none is configured, holds an advisory lock so two
// runs cannot write the same clip names, and cleans up on release.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// LockFileName is created inside every locked clips directory.
const LockFileName = ".crosstalk.lock"

// ErrBusy reports that another run holds the clips directory.
var ErrBusy = errors.New("clips directory is in use by another crosstalk run")

// ClipDir is a locked clips directory.
type ClipDir struct {
	Path      string
	Temporary bool
	lock      *flock.Flock
}

// Acquire locks clipsDir, creating it if needed. A blank clipsDir allocates
// a fresh temporary directory under workDir that Release removes.
func Acquire(workDir, clipsDir string) (*ClipDir, error) {
	dir := &ClipDir{Path: strings.TrimSpace(clipsDir)}
	if dir.Path == "" {
		if strings.TrimSpace(workDir) == "" {
			workDir = os.TempDir()
		}
		dir.Path = filepath.Join(workDir, "clips-"+uuid.NewString())
		dir.Temporary = true
	}
	if err := os.MkdirAll(dir.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create clips directory: %w", err)
	}

	dir.lock = flock.New(filepath.Join(dir.Path, LockFileName))
	ok, err := dir.lock.TryLock()
	if err != nil {
		dir.cleanup()
		return nil, fmt.Errorf("acquire clips lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBusy, dir.Path)
	}
	return dir, nil
}

// Release unlocks the directory and removes it when temporary. The lock file
// of a persistent directory stays in place: unlinking it would let a waiting
// run lock a stale inode while a third run locks a fresh file.
func (d *ClipDir) Release() error {
	if d == nil || d.lock == nil {
		return nil
	}
	var errs []error
	if err := d.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release clips lock: %w", err))
	}
	d.lock = nil
	if err := d.cleanup(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *ClipDir) cleanup() error {
	if d.Temporary {
		if err := os.RemoveAll(d.Path); err != nil {
			return fmt.Errorf("remove temporary clips: %w", err)
		}
	}
	return nil
}
