package reconcile

import (
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
)

// fileMode is the mode of every managed file.
const fileMode = 0644

// writeFile replaces the file at `path` with `contents`. The contents are
// staged in a temporary file in the same directory and then renamed into
// place, so readers see either the old file or the new one.
func writeFile(fs afero.Fs, path string, contents []byte) error {
	dir, name := filepath.Split(path)

	// The temporary file is hidden and doesn't have the managed suffix, so it
	// can't be mistaken for a managed file if we crash before cleaning up.
	tmp, err := afero.TempFile(fs, dir, "."+name+".tmp-")
	if err != nil {
		return errors.WithContext(err, "create temp file")
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		if err := fs.Remove(tmpPath); err != nil {
			log.WithError(err).WithField("path", tmpPath).Warn(
				"Failed to clean up temporary file. This won't affect future syncs.")
		}
	}

	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		cleanup()
		return errors.WithContext(err, "write")
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.WithContext(err, "close")
	}

	if err := fs.Chmod(tmpPath, fileMode); err != nil {
		cleanup()
		return errors.WithContext(err, "set file mode")
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		cleanup()
		return errors.WithContext(err, "rename")
	}
	return nil
}
