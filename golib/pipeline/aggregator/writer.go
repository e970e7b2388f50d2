package aggregator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/golib/fileutil"
	"github.com/kiteco/perfrnn/golib/logging"
	"github.com/kiteco/perfrnn/golib/pipeline"
	"github.com/kiteco/perfrnn/golib/pipeline/sample"
	"github.com/kiteco/perfrnn/golib/serialization"
	"github.com/kiteco/perfrnn/golib/workerpool"
)

const (
	// DoneFilename is the marker file placed in a directory once all parts are written.
	DoneFilename = "DONE"
)

// ListDir returns the part files of a directory written by a Writer, without the DONE marker.
func ListDir(dir string) ([]string, error) {
	fs, err := fileutil.ListDir(fileutil.OsFs, dir)
	if err != nil {
		return nil, err
	}

	if len(fs) == 0 {
		return nil, errors.Errorf("no files found for %s", dir)
	}

	var parts []string
	for _, f := range fs {
		if filepath.Base(f) != DoneFilename {
			parts = append(parts, f)
		}
	}
	return parts, nil
}

// WriterOpts configures a Writer.
type WriterOpts struct {
	// NumGo is the number of goroutines encoding samples, each writing its own parts.
	NumGo int
	// SamplesPerFile starts a new part after this many samples; 0 writes a single part per goroutine.
	SamplesPerFile int
	// FileSuffix selects the encoding via golib/serialization, e.g. ".json.gz" or ".json.sz".
	FileSuffix string
	Logger     *zap.Logger
}

// DefaultWriterOpts ...
var DefaultWriterOpts = WriterOpts{
	NumGo:          1,
	SamplesPerFile: 10000,
	FileSuffix:     ".json.gz",
}

// Writer is an Aggregator that streams every sample it receives into part files named
// part-%05d<suffix> under dir. A single Writer is shared by all workers.
type Writer struct {
	opts   WriterOpts
	name   string
	dir    string
	logger *zap.Logger

	once    sync.Once
	samples chan pipeline.Sample
	pool    *workerpool.Pool

	m     sync.Mutex
	next  int
	files []string
	err   error
}

// NewWriter returns a Writer for the local directory dir.
func NewWriter(opts WriterOpts, name, dir string) *Writer {
	if opts.NumGo < 1 {
		opts.NumGo = 1
	}
	if opts.FileSuffix == "" {
		opts.FileSuffix = DefaultWriterOpts.FileSuffix
	}

	return &Writer{
		opts:    opts,
		name:    name,
		dir:     dir,
		logger:  logging.OrDefault(opts.Logger),
		samples: make(chan pipeline.Sample, 100*opts.NumGo),
		pool:    workerpool.New(opts.NumGo),
	}
}

// Name implements pipeline.Aggregator
func (w *Writer) Name() string {
	return w.name
}

// Clone implements pipeline.Aggregator
func (w *Writer) Clone() pipeline.Dependent {
	w.once.Do(w.start)
	return w
}

// In implements pipeline.Aggregator
func (w *Writer) In(s pipeline.Sample) {
	w.samples <- s
}

func (w *Writer) start() {
	var jobs []workerpool.Job
	for i := 0; i < w.opts.NumGo; i++ {
		jobs = append(jobs, w.drain)
	}
	w.pool.Add(jobs)
}

// drain writes samples until the channel is closed. After a failure it keeps reading
// so that workers never block on In.
func (w *Writer) drain() error {
	var p *part
	var count int

	for s := range w.samples {
		if w.failed() {
			continue
		}
		if p == nil {
			var err error
			if p, err = w.nextPart(); err != nil {
				w.fail(err)
				continue
			}
		}
		if err := p.enc.Encode(s); err != nil {
			w.fail(errors.Errorf("error encoding to %s: %v", p.tmp, err))
			w.discard(p)
			p = nil
			continue
		}
		count++
		if w.opts.SamplesPerFile > 0 && count >= w.opts.SamplesPerFile {
			w.fail(w.completed(p))
			p, count = nil, 0
		}
	}

	switch {
	case p == nil:
	case w.failed():
		w.discard(p)
	default:
		w.fail(w.completed(p))
	}
	return nil
}

type part struct {
	path string
	tmp  string
	wc   fileutil.NamedWriteCloser
	enc  *serialization.EncodeCloser
}

func (w *Writer) nextPart() (*part, error) {
	w.m.Lock()
	n := w.next
	w.next++
	w.m.Unlock()

	path := filepath.Join(w.dir, fmt.Sprintf("part-%05d%s", n, w.opts.FileSuffix))
	tmp := path + ".tmp"

	wc, err := fileutil.NewBufferedWriter(tmp)
	if err != nil {
		return nil, errors.Errorf("error creating writer '%s': %v", tmp, err)
	}
	enc, err := serialization.WrapWriter(wc, path)
	if err != nil {
		wc.Close()
		return nil, err
	}
	return &part{path: path, tmp: tmp, wc: wc, enc: enc}, nil
}

func (w *Writer) completed(p *part) error {
	if err := p.enc.Close(); err != nil {
		p.wc.Close()
		return errors.Errorf("error closing encoder for '%s': %v", p.tmp, err)
	}
	if err := p.wc.Close(); err != nil {
		return errors.Errorf("error closing writer for '%s': %v", p.tmp, err)
	}
	if err := os.Rename(p.tmp, p.path); err != nil {
		return errors.Errorf("unable to rename %s -> %s: %v", p.tmp, p.path, err)
	}

	w.logger.Info("part ready", zap.String("writer", w.name), zap.String("path", p.path))

	w.m.Lock()
	defer w.m.Unlock()
	w.files = append(w.files, p.path)
	return nil
}

// discard drops an unfinished part so a failed run leaves no part under its final name.
func (w *Writer) discard(p *part) {
	p.enc.Close()
	p.wc.Close()
	if err := os.Remove(p.tmp); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("unable to remove partial part", zap.String("path", p.tmp), zap.Error(err))
	}
}

func (w *Writer) fail(err error) {
	if err == nil {
		return
	}
	w.m.Lock()
	defer w.m.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) failed() bool {
	w.m.Lock()
	defer w.m.Unlock()
	return w.err != nil
}

// AggregateLocal implements pipeline.Aggregator. It returns the written paths as a sample.StringSlice.
func (w *Writer) AggregateLocal(clones []pipeline.Aggregator) (pipeline.Sample, error) {
	w.once.Do(w.start)

	// no more samples are coming
	close(w.samples)

	if err := w.pool.Wait(); err != nil {
		return nil, errors.Errorf("pool error: %v", err)
	}
	w.pool.Stop()

	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return nil, w.err
	}
	files := append(sample.StringSlice(nil), w.files...)
	sort.Strings(files)
	return files, nil
}

// Finalize implements pipeline.Aggregator by writing the DONE marker.
func (w *Writer) Finalize() error {
	return writeDoneFile(w.dir)
}

func writeDoneFile(dir string) error {
	outf, err := fileutil.NewBufferedWriter(filepath.Join(dir, DoneFilename))
	if err != nil {
		return err
	}

	if _, err := outf.Write([]byte("done")); err != nil {
		outf.Close()
		return err
	}

	return outf.Close()
}

// IsDone returns true if the directory carries a DONE marker.
func IsDone(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, DoneFilename))
	return err == nil
}
