package httpapi

import (
	"context"
	"strings"

	"cutoutd/internal/pipeline"
	"cutoutd/internal/session"
	"cutoutd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Session() *session.Session
	// Reset abandons the cycle in flight and clears the current images.
	Reset()
	// Idle abandons the cycle in flight and returns to idle, keeping images.
	Idle()
	Models() ([]types.ModelStatus, error)
	SelectModel(id string) error
	Process(ctx context.Context, req types.ProcessRequest) (types.ProcessResponse, error)
}

// App is the Service backed by a session and its pipeline.
type App struct {
	sess *session.Session
	pipe *pipeline.Pipeline
}

// NewService wires a session and its pipeline into a Service.
func NewService(sess *session.Session, pipe *pipeline.Pipeline) *App {
	return &App{sess: sess, pipe: pipe}
}

func (a *App) Session() *session.Session { return a.sess }

func (a *App) Reset() {
	a.sess.Reset()
	a.pipe.Cancel()
}

func (a *App) Idle() {
	a.sess.EnterIdle()
	a.pipe.Cancel()
}

// Models lists the catalog with each entry's download and selection state.
func (a *App) Models() ([]types.ModelStatus, error) {
	cat := a.pipe.Catalog()
	have, err := cat.Downloaded(a.pipe.ModelsDir())
	if err != nil {
		return nil, err
	}
	got := make(map[string]bool, len(have))
	for _, id := range have {
		got[id] = true
	}
	selected := a.sess.SelectedModel()
	models := cat.Models()
	out := make([]types.ModelStatus, 0, len(models))
	for _, m := range models {
		out = append(out, types.ModelStatus{Model: m, Downloaded: got[m.ID], Selected: m.ID == selected})
	}
	return out, nil
}

// SelectModel validates id against the catalog before recording it.
func (a *App) SelectModel(id string) error {
	id = strings.TrimSpace(id)
	if _, ok := a.pipe.Catalog().Lookup(id); !ok {
		return pipeline.ErrModelNotFound(id)
	}
	a.sess.SetSelectedModel(id)
	return nil
}

// Process starts a background cycle bounded by ctx.
func (a *App) Process(ctx context.Context, req types.ProcessRequest) (types.ProcessResponse, error) {
	c, mdl, err := a.pipe.Start(ctx, req.Image, strings.TrimSpace(req.Model))
	if err != nil {
		return types.ProcessResponse{}, err
	}
	return types.ProcessResponse{Cycle: c.ID(), Model: mdl.ID}, nil
}

var _ Service = (*App)(nil)
