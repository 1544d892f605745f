package reconcile

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
)

// ManagedSuffix is the extension of the files owned by confgen.
const ManagedSuffix = ".conf"

// FileName returns the name of the managed file for `slug`.
func FileName(slug string) string {
	return slug + ManagedSuffix
}

// Protection decides which files in the output directory are externally
// managed.
type Protection struct {
	Prefix string
}

// Protects returns whether `name` is reserved for externally managed files.
func (p Protection) Protects(name string) bool {
	return strings.HasPrefix(name, p.Prefix)
}

// Snapshot maps the name of each managed file currently in the output
// directory to its contents. Contents are only read, with Load, for the
// files that are compared against a rendered config. The other entries map
// to nil.
type Snapshot map[string][]byte

// ReadSnapshot lists the managed files in `dir` without reading them.
// Protected files are skipped without being opened.
func ReadSnapshot(fs afero.Fs, dir string, protection Protection) (Snapshot, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: dir}
		}
		return nil, errors.WithContext(err, "list directory")
	}

	snapshot := Snapshot{}
	for _, fi := range infos {
		name := fi.Name()
		if protection.Protects(name) || !isManaged(fi) {
			continue
		}
		snapshot[name] = nil
	}
	return snapshot, nil
}

// Load reads the contents of `name` into the snapshot. If the file was
// removed since the directory was listed, it's dropped from the snapshot.
func (snapshot Snapshot) Load(fs afero.Fs, dir, name string) error {
	contents, err := afero.ReadFile(fs, filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			delete(snapshot, name)
			return nil
		}
		return errors.WithContext(err, "read "+name)
	}
	snapshot[name] = contents
	return nil
}

func isManaged(fi os.FileInfo) bool {
	return fi.Mode().IsRegular() &&
		strings.HasSuffix(fi.Name(), ManagedSuffix) &&
		!strings.HasPrefix(fi.Name(), ".")
}

// Diff returns the files that need to be written because they're missing
// or out of date, and the names of the files that need to be removed
// because they aren't in `active`. Both are sorted by name.
func (snapshot Snapshot) Diff(desired map[string]ManagedFile, active map[string]struct{}) (
	toWrite []ManagedFile, toRemove []string) {

	for name, exp := range desired {
		curr, ok := snapshot[name]
		if !ok || !bytes.Equal(curr, exp.Contents) {
			toWrite = append(toWrite, exp)
		}
	}

	for name := range snapshot {
		if _, ok := active[name]; !ok {
			toRemove = append(toRemove, name)
		}
	}

	sort.Slice(toWrite, func(i, j int) bool {
		return toWrite[i].Name < toWrite[j].Name
	})
	sort.Strings(toRemove)
	return
}
