package dicom

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/odincare/dcmvolume/dicomlog"
)

// File is one already-fetched input buffer.
type File struct {
	Name string
	Data []byte
}

// Loader turns a set of files into a volume. Each input format provides
// its own implementation.
type Loader interface {
	Load(ctx context.Context, files []File) (*Volume, error)
}

// ProgressFunc receives the fraction of files decoded so far, in (0, 1].
type ProgressFunc func(ratio float64)

// LoadOptions defines how DicomLoader schedules and reports work.
type LoadOptions struct {
	// Workers bounds concurrent decodes. Zero means one.
	Workers int

	// Progress, if set, is called every ProgressStride completed files and
	// once with 1.0 when every file is decoded. It runs on a single
	// goroutine, never concurrently with itself.
	Progress       ProgressFunc
	ProgressStride int

	// MaxSlices rejects larger inputs. Zero disables the check.
	MaxSlices int

	// Query selects the series Load assembles. Nil accepts a study with a
	// single series only.
	Query *SeriesQuery
}

// LoadOptionsFromConfig copies the process defaults into LoadOptions.
func LoadOptionsFromConfig(c Config) LoadOptions {
	return LoadOptions{
		Workers:        c.Workers,
		ProgressStride: c.ProgressStride,
		MaxSlices:      c.MaxSlices,
	}
}

// DicomLoader loads a stack of single-frame DICOM files.
type DicomLoader struct {
	Options LoadOptions
}

var _ Loader = (*DicomLoader)(nil)

// Load decodes files and assembles the series picked by Options.Query.
func (l *DicomLoader) Load(ctx context.Context, files []File) (*Volume, error) {
	return l.LoadSeries(ctx, files, l.Options.Query)
}

// fileError attaches the file name to err.
func fileError(err error, name string) error {
	var de *Error
	if errors.As(err, &de) && de.File == "" {
		cp := *de
		cp.File = name
		return errors.WithStack(&cp)
	}
	return errors.Wrapf(err, "%s", name)
}

// ReadSeries decodes every file on a bounded pool of workers and groups the
// slices by series. The first failing file cancels the rest: files not yet
// started are never decoded, files in flight finish and are discarded, and
// only that first error is returned.
func (l *DicomLoader) ReadSeries(ctx context.Context, files []File) (*Classifier, error) {
	if len(files) == 0 {
		return nil, newError(KindEmptySeries, "no input files")
	}
	if l.Options.MaxSlices > 0 && len(files) > l.Options.MaxSlices {
		return nil, newError(KindWrongNumSlices, "%d files, limit %d", len(files), l.Options.MaxSlices)
	}
	workers := l.Options.Workers
	if workers <= 0 {
		workers = 1
	}
	stride := l.Options.ProgressStride
	if stride <= 0 {
		stride = DefaultProgressStride
	}
	progress := l.Options.Progress
	if progress == nil {
		progress = func(float64) {}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	c := NewClassifier()
	results := make(chan *Slice)
	collected := make(chan struct{})
	total := len(files)
	go func() {
		defer close(collected)
		done := 0
		for s := range results {
			c.Add(s)
			done++
			if done%stride == 0 && done != total {
				progress(float64(done) / float64(total))
			}
		}
	}()

	for i := range files {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			// g.Go may have waited for a slot while another file failed.
			if err := gctx.Err(); err != nil {
				return err
			}
			f := files[i]
			s, err := DecodeSlice(f.Data, DecodeOptions{Index: i, FileName: f.Name})
			if err != nil {
				dicomlog.WithFile(f.Name).WithError(err).Debug("dicom.ReadSeries: decode failed")
				return fileError(err, f.Name)
			}
			select {
			case results <- s:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	err := g.Wait()
	close(results)
	<-collected
	if err == nil {
		// Cancelled by the caller before any file failed.
		err = ctx.Err()
	}
	if err != nil {
		c.Release()
		return nil, err
	}
	progress(1.0)
	logrus.WithFields(logrus.Fields{
		"files":  total,
		"series": len(c.series),
	}).Debug("dicom.ReadSeries: done")
	return c, nil
}

// LoadSeries decodes files and assembles the one series matching q.
//
// When the study holds a single series every file must belong to it. With
// several series q must select exactly one of them.
func (l *DicomLoader) LoadSeries(ctx context.Context, files []File, q *SeriesQuery) (*Volume, error) {
	c, err := l.ReadSeries(ctx, files)
	if err != nil {
		return nil, err
	}
	defer c.Release()

	all := c.Series()
	if q == nil && len(all) > 1 {
		return nil, newError(KindAmbiguousSeries, "%d series found:\n%s", len(all), describeSeries(all))
	}
	matches, err := c.Find(q)
	if err != nil {
		return nil, errors.Wrap(err, "bad series query")
	}
	switch len(matches) {
	case 0:
		return nil, newError(KindEmptySeries, "no series matches the query")
	case 1:
	default:
		return nil, newError(KindAmbiguousSeries, "%d series match the query:\n%s", len(matches), describeSeries(matches))
	}

	se := matches[0]
	opts := AssembleOptions{}
	if len(all) == 1 {
		opts.ZDim = uint32(len(files))
	}
	vol, err := Assemble(se, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "series %08x", se.Hash)
	}
	return vol, nil
}

func describeSeries(series []*Series) string {
	lines := make([]string, len(series))
	for i, se := range series {
		lines[i] = "  " + se.Descr.String()
	}
	return strings.Join(lines, "\n")
}
