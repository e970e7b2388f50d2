package notes

import (
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/golib/fileutil"
	"github.com/kiteco/perfrnn/golib/logging"
	"github.com/kiteco/perfrnn/golib/pipeline"
)

var midiPattern = regexp.MustCompile(`(?i)^.*\.midi?$`)

// DirSource is a pipeline.Source emitting a NoteSequence for every MIDI file under a directory.
// Records are keyed by the path relative to the directory. Files that fail to parse are logged and skipped.
type DirSource struct {
	name   string
	dir    string
	files  []string
	pos    int
	failed int
	logger *zap.Logger
}

// NewDirSource lists the MIDI files under dir, recursively.
func NewDirSource(name, dir string, logger *zap.Logger) (*DirSource, error) {
	files, err := fileutil.FindFiles(fileutil.OsFs, dir, midiPattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Configf("no midi files found under %s", dir)
	}
	return &DirSource{
		name:   name,
		dir:    dir,
		files:  files,
		logger: logging.OrDefault(logger),
	}, nil
}

// Name implements pipeline.Source
func (d *DirSource) Name() string {
	return d.name
}

// SourceOut implements pipeline.Source
func (d *DirSource) SourceOut() pipeline.Record {
	for d.pos < len(d.files) {
		path := d.files[d.pos]
		d.pos++

		seq, err := ReadMIDI(path)
		if err != nil {
			d.failed++
			d.logger.Warn("skipping midi file", zap.String("path", path), zap.Error(err))
			continue
		}

		key, err := filepath.Rel(d.dir, path)
		if err != nil {
			key = path
		}
		return pipeline.Record{Key: key, Value: seq}
	}
	return pipeline.Record{}
}

// Files returns the number of files found.
func (d *DirSource) Files() int {
	return len(d.files)
}

// Failed returns the number of files skipped so far.
func (d *DirSource) Failed() int {
	return d.failed
}
