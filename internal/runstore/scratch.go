package runstore

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Scratch is a Badger store in its own subdirectory of a scratch root. Closing it removes
// the subdirectory, so concurrent invocations can share one root.
type Scratch struct {
	*Badger
	dir string
}

// OpenScratch creates root/run-<uuid> and opens a badger store there.
func OpenScratch(root string) (*Scratch, error) {
	if filepath.Clean(root) == "/" {
		return nil, errors.New("refusing to use / as scratch root")
	}
	dir := filepath.Join(root, "run-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return nil, err
	}
	b, err := OpenBadger(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &Scratch{Badger: b, dir: dir}, nil
}

// Dir is the subdirectory holding the database.
func (s *Scratch) Dir() string { return s.dir }

func (s *Scratch) Close() error {
	return multierr.Append(s.Badger.Close(), os.RemoveAll(s.dir))
}
