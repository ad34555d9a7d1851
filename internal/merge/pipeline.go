// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge implements the ordered multi-format merge pipeline. A job
// walks a snapshot of the file list in order, converts non-PDF inputs into
// a per-job scratch directory, and concatenates everything into one PDF.
// The output file exists only if the job completes.
package merge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bradhe/stopwatch"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/docmerge/internal/convert"
	"github.com/pdiddy/docmerge/internal/pdfops"
	"github.com/pdiddy/docmerge/internal/scratch"
	"github.com/pdiddy/docmerge/pkg/types"
)

const mergedName = "merged.pdf"

// Recorder stores a summary of every finished job.
type Recorder interface {
	Record(ctx context.Context, rec types.JobRecord) error
}

// Publisher copies a finished output somewhere else and returns its key.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// Pipeline runs merge jobs. It holds no per-job state and may be reused,
// but callers run one job at a time.
type Pipeline struct {
	converters convert.Set
	scratchDir string
	log        logrus.FieldLogger
	recorder   Recorder
	publisher  Publisher

	concat    func(inputs []string, out string) error
	pageCount func(path string) (int, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScratchDir sets the parent directory of per-job scratch directories.
func WithScratchDir(dir string) Option {
	return func(p *Pipeline) { p.scratchDir = dir }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithRecorder records every finished job.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithPublisher publishes every completed output.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// New returns a Pipeline using converters for non-PDF inputs.
func New(converters convert.Set, opts ...Option) *Pipeline {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	p := &Pipeline{
		converters: converters,
		log:        quiet,
		concat:     pdfops.Merge,
		pageCount:  pdfops.PageCount,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one job over files, writing the result to output. progress
// receives progress and finalizing events while the job runs and exactly one
// terminal event (completed or aborted) before Run returns. Input errors
// (ErrNoFiles, ErrNoOutput) return before a job exists and emit no events.
//
// Image conversion failures are logged and the image is skipped. Document
// and web conversion failures abort the job with a *ConversionError. Any
// other failure, including a panic, aborts with the underlying error. The
// scratch directory is removed on every path.
func (p *Pipeline) Run(ctx context.Context, files []types.FileEntry, output string, progress func(types.Event)) (res *types.JobResult, err error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if output == "" {
		return nil, ErrNoOutput
	}
	if progress == nil {
		progress = func(types.Event) {}
	}

	job := newJob(files, output)
	log := p.log.WithField("job", job.ID)
	watch := stopwatch.Start()

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("unexpected failure while merging: %v", r)
		}
		watch.Stop()
		job.elapsed = time.Duration(watch.Milliseconds()) * time.Millisecond
		if res != nil {
			res.Elapsed = job.elapsed
		}
		res = p.finish(ctx, job, res, err, log)
		progress(job.terminalEvent(res, err))
	}()

	store, err := scratch.New(p.scratchDir, log)
	if err != nil {
		return nil, fmt.Errorf("preparing scratch space: %w", err)
	}
	defer store.Cleanup()
	job.scratch = store
	job.state = types.JobRunning

	log.WithFields(logrus.Fields{"files": len(files), "output": output}).Info("merge started")
	if err := p.process(ctx, job, progress, log); err != nil {
		return nil, err
	}
	return job.result(), nil
}

// process converts every input in order and writes the merged output.
func (p *Pipeline) process(ctx context.Context, job *Job, progress func(types.Event), log logrus.FieldLogger) error {
	total := len(job.files)
	for i, f := range job.files {
		job.cursor = i
		progress(types.Event{JobID: job.ID, Type: types.EventProgress, Index: i + 1, Total: total, Name: f.Name()})

		switch {
		case f.Kind == types.KindPDF:
			job.include(f.Path, f.Path)

		case f.Kind.NeedsConversion():
			conv, ok := p.converters.For(f.Kind)
			if !ok {
				log.WithField("file", f.Path).Debug("no converter configured, skipping")
				job.skip(f.Path, fmt.Sprintf("no %s converter configured", f.Kind))
				continue
			}
			dst := job.scratch.Artifact(i)
			if err := conv.ToPDF(ctx, f.Path, dst); err != nil {
				ce := &ConversionError{Path: f.Path, Kind: f.Kind, Fatal: f.Kind.Fatal(), Err: err}
				if ce.Fatal {
					return ce
				}
				log.WithError(err).WithField("file", f.Path).Warn("image conversion failed, skipping")
				job.skip(f.Path, err.Error())
				continue
			}
			job.include(f.Path, dst)

		default:
			log.WithField("file", f.Path).Debug("unsupported file type, skipping")
			job.skip(f.Path, "unsupported file type")
		}
	}
	job.cursor = total

	if len(job.sources) == 0 {
		return ErrNothingToMerge
	}

	progress(types.Event{JobID: job.ID, Type: types.EventFinalizing, Total: total})
	merged := job.scratch.Path(mergedName)
	if err := p.concat(job.sources, merged); err != nil {
		return err
	}
	pages, err := p.pageCount(merged)
	if err != nil {
		return err
	}
	if err := moveFile(merged, job.output); err != nil {
		return fmt.Errorf("writing %s: %w", job.output, err)
	}
	job.pages = pages
	return nil
}

// finish moves the job to its terminal state, publishes a completed output
// and records the job. Publishing and recording failures are logged only.
func (p *Pipeline) finish(ctx context.Context, job *Job, res *types.JobResult, err error, log logrus.FieldLogger) *types.JobResult {
	if err != nil {
		job.state = types.JobAborted
		log.WithError(err).WithField("processed", job.cursor).Error("merge aborted")
	} else {
		job.state = types.JobCompleted
		if p.publisher != nil {
			key, perr := p.publisher.Publish(ctx, job.output)
			if perr != nil {
				log.WithError(perr).Warn("publishing output failed")
			} else {
				res.RemoteKey = key
			}
		}
		log.WithFields(logrus.Fields{
			"pages":      res.Pages,
			"skipped":    len(res.Skipped),
			"elapsed_ms": job.elapsed.Milliseconds(),
		}).Info("merge completed")
	}

	if p.recorder != nil {
		if rerr := p.recorder.Record(ctx, job.record(res, err)); rerr != nil {
			log.WithError(rerr).Warn("recording job history failed")
		}
	}
	return res
}

// moveFile renames src to dst, falling back to copy-then-rename across
// devices so dst never holds a partial file.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".docmerge-*.pdf")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Job is the run state of one pipeline invocation. It owns its scratch
// store and works on an immutable snapshot of the file list.
type Job struct {
	ID        string
	startedAt time.Time
	files     []types.FileEntry
	output    string
	scratch   *scratch.Store
	state     types.JobState
	cursor    int

	sources  []string // PDFs to concatenate, in order
	included []string // inputs behind sources
	skipped  []types.SkippedFile
	pages    int
	elapsed  time.Duration
}

func newJob(files []types.FileEntry, output string) *Job {
	snapshot := make([]types.FileEntry, len(files))
	copy(snapshot, files)
	return &Job{
		ID:        uuid.NewString(),
		startedAt: time.Now().UTC(),
		files:     snapshot,
		output:    output,
		state:     types.JobIdle,
	}
}

func (j *Job) include(input, pdf string) {
	j.included = append(j.included, input)
	j.sources = append(j.sources, pdf)
}

func (j *Job) skip(input, reason string) {
	j.skipped = append(j.skipped, types.SkippedFile{Path: input, Reason: reason})
}

func (j *Job) result() *types.JobResult {
	return &types.JobResult{
		JobID:    j.ID,
		Output:   j.output,
		Pages:    j.pages,
		Included: j.included,
		Skipped:  j.skipped,
	}
}

func (j *Job) terminalEvent(res *types.JobResult, err error) types.Event {
	ev := types.Event{JobID: j.ID, Type: types.EventCompleted, Total: len(j.files), Result: res}
	if err != nil {
		ev.Type = types.EventAborted
		ev.Err = err
	}
	return ev
}

func (j *Job) record(res *types.JobResult, err error) types.JobRecord {
	inputs := make([]string, len(j.files))
	for i, f := range j.files {
		inputs[i] = f.Path
	}
	rec := types.JobRecord{
		ID:        j.ID,
		StartedAt: j.startedAt,
		Output:    j.output,
		State:     j.state,
		Inputs:    inputs,
		Skipped:   j.skipped,
		Elapsed:   j.elapsed,
	}
	if res != nil {
		rec.Pages = res.Pages
		rec.RemoteKey = res.RemoteKey
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}
