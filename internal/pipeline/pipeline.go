// Package pipeline drives the session through one background-removal
// cycle: model download, model load, decode, inference and encoding.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cutoutd/internal/catalog"
	"cutoutd/internal/download"
	"cutoutd/internal/imageproc"
	"cutoutd/internal/session"
	"cutoutd/pkg/types"
)

// Status texts shown while a cycle runs.
const (
	StatusDownloading   = "Downloading model..."
	StatusLoadingModel  = "Loading model..."
	StatusDecoding      = "Decoding image..."
	StatusPreprocessing = "Preprocessing..."
	StatusInference     = "Running inference..."
	StatusFinalizing    = "Finalizing..."
)

// Config encapsulates the collaborators of a Pipeline.
type Config struct {
	Session *session.Session
	Catalog *catalog.Catalog
	// ModelsDir holds downloaded model files.
	ModelsDir string
	// Downloader fetches missing models. Nil disables downloading.
	Downloader *download.Downloader
	// Loader opens the segmentation runtime. Nil means inference is not
	// available and every cycle fails with a dependency error.
	Loader Loader
	Logger zerolog.Logger
}

// Pipeline runs at most one cycle at a time; starting a new cycle cancels
// the one in flight.
type Pipeline struct {
	sess   *session.Session
	cat    *catalog.Catalog
	dir    string
	dl     *download.Downloader
	loader Loader
	log    zerolog.Logger
	pre    *imageproc.Preprocessor
	post   *imageproc.Postprocessor

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
	wg     sync.WaitGroup

	// slot serializes use of the loaded segmenter.
	slot    chan struct{}
	seg     Segmenter
	segPath string
}

// New constructs a Pipeline. Catalog defaults to the builtin one.
func New(cfg Config) *Pipeline {
	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	pre := imageproc.DefaultPreprocessor()
	return &Pipeline{
		sess:   cfg.Session,
		cat:    cat,
		dir:    cfg.ModelsDir,
		dl:     cfg.Downloader,
		loader: cfg.Loader,
		log:    cfg.Logger,
		pre:    pre,
		post:   imageproc.NewPostprocessor(pre.Size()),
		slot:   make(chan struct{}, 1),
	}
}

// Process runs a full cycle for payload and returns the encoded result.
// An empty modelID selects the session's current model. Every failure is
// reported to the session before being returned.
func (p *Pipeline) Process(ctx context.Context, payload, modelID string) (string, error) {
	c, mdl, runCtx, done, err := p.begin(ctx, payload, modelID)
	if err != nil {
		return "", err
	}
	defer done()
	return p.run(runCtx, c, mdl, payload)
}

// Start begins a cycle and runs it in the background. ctx bounds the
// background work and should outlive the caller's request. Model
// validation happens before Start returns.
func (p *Pipeline) Start(ctx context.Context, payload, modelID string) (*session.Cycle, types.Model, error) {
	c, mdl, runCtx, done, err := p.begin(ctx, payload, modelID)
	if err != nil {
		return c, mdl, err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer done()
		_, _ = p.run(runCtx, c, mdl, payload)
	}()
	return c, mdl, nil
}

// Cancel stops the cycle in flight, if any. A cycle that is still current
// when canceled is failed; one already superseded ends silently.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
}

// Close cancels the cycle in flight, waits for background work and
// releases the loaded segmenter.
func (p *Pipeline) Close() error {
	p.Cancel()
	p.wg.Wait()

	p.slot <- struct{}{}
	defer func() { <-p.slot }()
	if p.seg == nil {
		return nil
	}
	err := p.seg.Close()
	p.seg, p.segPath = nil, ""
	return err
}

// Catalog returns the model catalog in use.
func (p *Pipeline) Catalog() *catalog.Catalog { return p.cat }

// ModelsDir returns the directory downloaded models live in.
func (p *Pipeline) ModelsDir() string { return p.dir }

// begin starts a session cycle and cancels the run in flight. Both happen
// under mu so cycle order and context order agree. A rejected model still
// supersedes the previous run.
func (p *Pipeline) begin(ctx context.Context, payload, modelID string) (*session.Cycle, types.Model, context.Context, func(), error) {
	if modelID == "" {
		modelID = p.sess.SelectedModel()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	gen := p.gen

	c := p.sess.Begin(payload)
	mdl, ok := p.cat.Lookup(modelID)
	if !ok {
		err := ErrModelNotFound(modelID)
		c.Fail(err.Error())
		p.log.Info().Uint64("cycle", c.ID()).Str("model", modelID).Msg("cycle rejected: unknown model")
		return c, types.Model{}, nil, nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	return c, mdl, runCtx, func() {
		cancel()
		p.mu.Lock()
		if p.gen == gen {
			p.cancel = nil
		}
		p.mu.Unlock()
	}, nil
}

func (p *Pipeline) run(ctx context.Context, c *session.Cycle, mdl types.Model, payload string) (string, error) {
	start := time.Now()
	p.log.Info().Uint64("cycle", c.ID()).Str("model", mdl.ID).Msg("cycle start")
	result, err := p.execute(ctx, c, mdl, payload)
	if err != nil {
		if !c.Current() {
			err = ErrSuperseded
		}
		if errors.Is(err, ErrSuperseded) {
			p.log.Info().Uint64("cycle", c.ID()).Dur("dur", time.Since(start)).Msg("cycle superseded")
			return "", err
		}
		c.Fail(err.Error())
		p.log.Error().Uint64("cycle", c.ID()).Str("model", mdl.ID).Dur("dur", time.Since(start)).Err(err).Msg("cycle failed")
		return "", err
	}
	p.log.Info().Uint64("cycle", c.ID()).Str("model", mdl.ID).Dur("dur", time.Since(start)).Msg("cycle done")
	return result, nil
}

// step applies a session update and aborts when the cycle went stale.
func step(ctx context.Context, ok bool) error {
	if !ok {
		return ErrSuperseded
	}
	return ctx.Err()
}

func (p *Pipeline) execute(ctx context.Context, c *session.Cycle, mdl types.Model, payload string) (string, error) {
	path, err := catalog.ModelPath(p.dir, mdl.ID)
	if err != nil {
		return "", fmt.Errorf("resolve model path: %w", err)
	}
	if !catalog.IsDownloaded(p.dir, mdl.ID) {
		if err := p.download(ctx, c, mdl.ID, path); err != nil {
			return "", err
		}
	}

	// Admission: a single inference at a time.
	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-p.slot }()

	seg, err := p.segmenter(ctx, c, path)
	if err != nil {
		return "", err
	}

	if err := step(ctx, c.Processing(StatusDecoding) && c.Progress(10)); err != nil {
		return "", err
	}
	img, _, err := imageproc.Decode(payload)
	if err != nil {
		return "", err
	}

	if err := step(ctx, c.Status(StatusPreprocessing) && c.Progress(25)); err != nil {
		return "", err
	}
	input := p.pre.Preprocess(img)

	if err := step(ctx, c.Status(StatusInference) && c.Progress(50)); err != nil {
		return "", err
	}
	mask, err := seg.Predict(ctx, input)
	if err != nil {
		return "", fmt.Errorf("inference failed: %w", err)
	}

	if err := step(ctx, c.Status(StatusFinalizing) && c.Progress(90)); err != nil {
		return "", err
	}
	out, err := p.post.Postprocess(mask, img)
	if err != nil {
		return "", fmt.Errorf("failed to postprocess: %w", err)
	}
	result := imageproc.Encode(out)
	if !c.Result(result) || !c.Complete() {
		return "", ErrSuperseded
	}
	return result, nil
}

func (p *Pipeline) download(ctx context.Context, c *session.Cycle, id, path string) error {
	if p.dl == nil {
		return ErrDependencyUnavailable("model " + id + " is not downloaded and downloading is disabled")
	}
	if err := step(ctx, c.Loading(StatusDownloading)); err != nil {
		return err
	}
	p.log.Info().Uint64("cycle", c.ID()).Str("model", id).Str("url", p.dl.URL(id)).Msg("model download start")
	err := p.dl.Download(ctx, id, path, func(downloaded, total int64) {
		c.DownloadProgress(downloaded, total)
	})
	if err != nil {
		return fmt.Errorf("failed to download requested model: %w", err)
	}
	p.log.Info().Uint64("cycle", c.ID()).Str("model", id).Msg("model download done")
	return nil
}

// segmenter returns the loaded segmenter for path, reloading when the model
// changed. Caller must hold the slot.
func (p *Pipeline) segmenter(ctx context.Context, c *session.Cycle, path string) (Segmenter, error) {
	if p.seg != nil && p.segPath == path {
		return p.seg, nil
	}
	if p.loader == nil {
		return nil, ErrDependencyUnavailable("segmentation runtime not configured")
	}
	if p.seg != nil {
		if err := p.seg.Close(); err != nil {
			p.log.Warn().Err(err).Str("path", p.segPath).Msg("segmenter close failed")
		}
		p.seg, p.segPath = nil, ""
	}
	if err := step(ctx, c.Loading(StatusLoadingModel)); err != nil {
		return nil, err
	}
	seg, err := p.loader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize segmentation session: %w", err)
	}
	p.seg, p.segPath = seg, path
	return seg, nil
}
