package main

import (
	"context"
	"fmt"

	"github.com/chazu/batoms/pkg/engine"
	"github.com/chazu/batoms/pkg/kernel"
	"github.com/chazu/batoms/pkg/kernel/sdfx"
	"github.com/chazu/batoms/pkg/model"
	"github.com/chazu/batoms/pkg/pipeline"
	"github.com/chazu/batoms/pkg/scene"
	"github.com/sirupsen/logrus"
)

// App evaluates structure scripts and runs them through the pipeline. It
// backs every CLI command and can be driven directly by an editor.
type App struct {
	cfg      Config
	log      logrus.FieldLogger
	engine   *engine.Engine
	pipeline *pipeline.Pipeline
	kernel   kernel.Kernel
}

// MeshData is the JSON-serializable mesh format of one instancer template.
type MeshData struct {
	Vertices []float32 `json:"vertices" yaml:"-"`
	Normals  []float32 `json:"normals" yaml:"-"`
	Indices  []uint32  `json:"indices" yaml:"-"`

	Name      string `json:"name" yaml:"name"`
	Color     string `json:"color" yaml:"color"`
	Triangles int    `json:"triangles" yaml:"triangles"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line" yaml:"line"`
	Col     int    `json:"col" yaml:"col"`
	Message string `json:"message" yaml:"message"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Result   *pipeline.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Meshes   []MeshData       `json:"meshes" yaml:"meshes"`
	Errors   []EvalErrorData  `json:"errors" yaml:"errors"`
	Warnings []EvalErrorData  `json:"warnings" yaml:"warnings"`
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	return NewAppWithConfig(DefaultConfig(), logrus.StandardLogger())
}

// NewAppWithConfig creates an App using cfg for script defaults, detector
// parallelism and instancer resolution.
func NewAppWithConfig(cfg Config, log logrus.FieldLogger) *App {
	eng := engine.NewEngine()
	eng.Timeout = cfg.ScriptTimeout
	eng.NewSystem = func() *model.System {
		sys := model.New()
		sys.Cavity.Resolution = cfg.Cavity.Resolution
		sys.Cavity.MinRadius = cfg.Cavity.MinRadius
		return sys
	}
	p := pipeline.New()
	p.Log = log
	p.Detector.Workers = cfg.Workers
	return &App{
		cfg:      cfg,
		log:      log,
		engine:   eng,
		pipeline: p,
		kernel:   sdfx.NewWithCells(cfg.Instancer.MeshCells),
	}
}

// Load evaluates source into a System. Script errors come back as
// EvalErrorData; err is only set for fatal failures.
func (a *App) Load(source string) (*model.System, []EvalErrorData, error) {
	sys, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		return nil, nil, err
	}
	if len(evalErrs) > 0 {
		out := make([]EvalErrorData, len(evalErrs))
		for i, e := range evalErrs {
			out[i] = EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message}
		}
		return nil, out, nil
	}
	return sys, nil, nil
}

// Pipeline returns the pipeline the App runs systems through.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Evaluate takes script source and returns the computed structure data,
// instancer meshes and errors. Each call starts from an empty scene;
// cavity buckets persist per label across calls.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	fail := func(msg string) EvalResult {
		result.Errors = append(result.Errors, EvalErrorData{Message: msg})
		return result
	}

	sys, evalErrs, err := a.Load(source)
	if err != nil {
		a.log.WithError(err).Error("evaluate: fatal error")
		return fail(err.Error())
	}
	if len(evalErrs) > 0 {
		result.Errors = append(result.Errors, evalErrs...)
		return result
	}
	if sys.NumAtoms() == 0 {
		return result
	}

	a.pipeline.Scene = scene.New()
	res, err := a.pipeline.Run(context.Background(), sys)
	if err != nil {
		a.log.WithError(err).Error("evaluate: pipeline failed")
		return fail(err.Error())
	}
	result.Result = res
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.String()})
	}

	meshes, err := a.pipeline.Instancers(sys, res, a.kernel)
	if err != nil {
		a.log.WithError(err).Error("evaluate: instancers failed")
		return fail("tessellation failed: " + err.Error())
	}
	for _, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices:  m.Vertices,
			Normals:   m.Normals,
			Indices:   m.Indices,
			Name:      m.Name,
			Color:     a.templateColor(m.Name),
			Triangles: m.TriangleCount(),
		})
	}
	return result
}

// templateColor returns the hex color of the named instancer template.
func (a *App) templateColor(name string) string {
	o, ok := a.pipeline.Scene.Find(name)
	if !ok || o.Template == nil {
		return "#808080"
	}
	c := o.Template.Color
	return fmt.Sprintf("#%02X%02X%02X", channel(c[0]), channel(c[1]), channel(c[2]))
}

func channel(v float64) int {
	return int(max(0, min(1, v))*255 + 0.5)
}
