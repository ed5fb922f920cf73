package cli

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/isamplesorg/isamples-go/internal/format"
)

const indexFileName = "index.json"

var fileNameReplacer = strings.NewReplacer(":", "_", "/", "~", `\`, "~")

// identifierToFileName returns a name for the file holding the record of
// pid in dir.  A counter is appended until the name is not taken.
func identifierToFileName(pid, dir string) (string, error) {
	base := fileNameReplacer.Replace(pid)
	name := base
	for i := 1; ; i++ {
		_, err := os.Lstat(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", errors.Trace(err)
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}

func writeJSONFile(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := format.NewEncoder(w, 2, nil).Encode(v); err != nil {
		return errors.Annotatef(err, "writing %s", path)
	}
	return errors.Trace(w.Flush())
}

// folder saves records to one file each, plus an index file mapping
// identifiers to file names.
type folder struct {
	dir   string
	index map[string]any
	bar   *progressbar.ProgressBar
}

// openFolder creates dir if needed.  Progress is shown on stderr when it is
// a terminal, expecting total records (-1 if unknown).
func (a *app) openFolder(dir string, total int, description string) (*folder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Trace(err)
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(a.stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("records/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(isTerminal(a.stderr)),
	)
	return &folder{dir: dir, index: map[string]any{}, bar: bar}, nil
}

func (f *folder) save(pid string, rec any) error {
	name, err := identifierToFileName(pid, f.dir)
	if err != nil {
		return errors.Trace(err)
	}
	if err := writeJSONFile(filepath.Join(f.dir, name), rec); err != nil {
		return errors.Trace(err)
	}
	f.index[pid] = name
	_ = f.bar.Add(1)
	return nil
}

// Close writes the index file.  The index is written even after a failure so
// that it describes the files saved so far.
func (f *folder) Close() error {
	_ = f.bar.Finish()
	return writeJSONFile(filepath.Join(f.dir, indexFileName), f.index)
}
