package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chazu/parasurf/pkg/asset"
	"github.com/chazu/parasurf/pkg/engine"
	"github.com/chazu/parasurf/pkg/mesh"
	"github.com/chazu/parasurf/pkg/tessellate"
	"github.com/chazu/parasurf/pkg/world"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// colorPalette is a default palette used to assign distinct colors to solid views.
var colorPalette = []string{
	"#7F1AB2", "#4A90D9", "#E67E22", "#2ECC71",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// edgeColor is used for wireframe and point views.
const edgeColor = "#000000"

// App is the Wails backend. It exposes methods to the frontend via bindings.
// Bindings may be called from several goroutines; mu serializes every
// access to the world.
type App struct {
	ctx     context.Context
	engine  *engine.Engine
	baseDir string // texture paths in scripts are relative to this

	mu      sync.Mutex
	world   *world.World
	texture *asset.Texture
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
// Non-finite texture coordinates are sent as -1 and colored transparent.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	UVs      []float32 `json:"uvs"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Topology string    `json:"topology"`
	Color    string    `json:"color"`
	// Colors holds one RGBA quadruple in [0, 1] per vertex, sampled from
	// the scene texture. It is empty for untextured scenes and edge views.
	Colors []float32 `json:"colors"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// CameraData is the camera pose sent with every frame.
type CameraData struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	Up       [3]float64 `json:"up"`
}

// FrameData is what the frontend draws after each Frame call.
type FrameData struct {
	Meshes []MeshData `json:"meshes"`
	Camera CameraData `json:"camera"`
	Done   bool       `json:"done"`
}

// NewApp creates a new App whose scripts resolve textures relative to baseDir.
func NewApp(baseDir string) *App {
	return &App{
		engine:  engine.NewEngine(),
		baseDir: baseDir,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// Init loads the startup scene. Script errors and texture load failures
// are returned; the caller treats them as fatal.
func (a *App) Init(source string) error {
	w, tex, result, err := a.build(source)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("startup scene: %s", strings.Join(msgs, "; "))
	}
	a.mu.Lock()
	a.world, a.texture = w, tex
	a.mu.Unlock()
	return nil
}

// Evaluate takes scene script source and replaces the current world with
// the result. On any error the previous world stays loaded.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	w, tex, r, err := a.build(source)
	if err != nil {
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	result.Errors = append(result.Errors, r.Errors...)
	result.Warnings = append(result.Warnings, r.Warnings...)
	if w == nil {
		return result
	}

	a.mu.Lock()
	a.world, a.texture = w, tex
	result.Meshes = meshData(w, tex)
	a.mu.Unlock()
	return result
}

// build evaluates source into a fresh world and loads its texture. Script
// and validation problems are returned in the result with a nil world; the
// error return is reserved for timeouts, panics and texture failures.
func (a *App) build(source string) (*world.World, *asset.Texture, EvalResult, error) {
	var result EvalResult
	r, err := a.engine.Load(source)
	if err != nil {
		return nil, nil, result, fmt.Errorf("evaluate: %w", err)
	}
	for _, e := range r.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Error()})
	}
	for _, wn := range r.Warnings {
		log.Printf("scene warning: %s", wn)
		result.Warnings = append(result.Warnings, EvalErrorData{Message: wn.String()})
	}
	if !r.OK() {
		return nil, nil, result, nil
	}

	w, err := world.New(r.Scene)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return nil, nil, result, nil
	}

	var tex *asset.Texture
	if path := r.Scene.Texture; path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.baseDir, path)
		}
		tex, err = asset.LoadTexture(path)
		if err != nil {
			return nil, nil, result, err
		}
		width, height := tex.Size()
		log.Printf("loaded texture %s (%s, %dx%d)", tex.Path, tex.Format, width, height)
	}
	return w, tex, result, nil
}

// Click queues a zero (left) or pole (right) at the normalized cursor
// position x, y in [0, 1].
func (a *App) Click(button string, x, y float64) error {
	var b world.Button
	switch button {
	case "left":
		b = world.ButtonLeft
	case "right":
		b = world.ButtonRight
	default:
		return fmt.Errorf("click: unknown button %q", button)
	}
	return a.push(world.Click{Button: b, Pos: v2.Vec{X: x, Y: y}})
}

// Drag queues a camera orbit by the pointer delta in pixels.
func (a *App) Drag(dx, dy float64) error {
	return a.push(world.Drag{DX: dx, DY: dy})
}

// KeyPress queues a key event. Only "Escape" has an effect.
func (a *App) KeyPress(key string) error {
	code := world.KeyOther
	if key == "Escape" {
		code = world.KeyEscape
	}
	return a.push(world.Key{Code: code})
}

// Focus queues a change of the entity receiving clicks.
func (a *App) Focus(name string) error {
	return a.push(world.Focus{Name: name})
}

func (a *App) push(ev world.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.world == nil {
		return fmt.Errorf("no scene loaded")
	}
	a.world.Push(ev)
	return nil
}

// Frame applies queued input, rebuilds changed meshes and returns what to
// draw. Escape quits the application.
func (a *App) Frame() FrameData {
	a.mu.Lock()
	defer a.mu.Unlock()

	frame := FrameData{Meshes: []MeshData{}}
	if a.world == nil {
		return frame
	}
	if err := a.world.Tick(); err != nil {
		log.Printf("Frame: %v", err)
	}

	frame.Meshes = meshData(a.world, a.texture)
	cam := a.world.Camera()
	frame.Camera = CameraData{
		Position: [3]float64{cam.Position.X, cam.Position.Y, cam.Position.Z},
		Target:   [3]float64{cam.Target.X, cam.Target.Y, cam.Target.Z},
		Up:       [3]float64{cam.Up.X, cam.Up.Y, cam.Up.Z},
	}
	frame.Done = a.world.Done()
	if frame.Done && a.ctx != nil {
		runtime.Quit(a.ctx)
	}
	return frame
}

// Texture returns the scene texture as a PNG data URL, or "" if the scene
// has none.
func (a *App) Texture() (string, error) {
	a.mu.Lock()
	tex := a.texture
	a.mu.Unlock()
	if tex == nil {
		return "", nil
	}
	return tex.DataURL()
}

// meshData flattens every published mesh of w for the frontend, in the
// order each entity lists its views. Solid meshes are colored from tex.
func meshData(w *world.World, tex *asset.Texture) []MeshData {
	out := []MeshData{}
	for i, e := range w.Entities() {
		for _, topo := range e.Views() {
			m := e.Mesh(topo)
			if m == nil {
				continue
			}
			color := colorPalette[i%len(colorPalette)]
			if topo != tessellate.Triangles {
				out = append(out, toMeshData(m, edgeColor, nil))
				continue
			}
			out = append(out, toMeshData(m, color, tex))
		}
	}
	return out
}

func toMeshData(m *mesh.Mesh, color string, tex *asset.Texture) MeshData {
	md := MeshData{
		Vertices: make([]float32, 0, 3*len(m.Positions)),
		Normals:  make([]float32, 0, 3*len(m.Normals)),
		UVs:      make([]float32, 0, 2*len(m.UVs)),
		Indices:  m.Indices,
		PartName: m.Name,
		Topology: m.Topology.String(),
		Color:    color,
		Colors:   []float32{},
	}
	for _, p := range m.Positions {
		md.Vertices = append(md.Vertices, p[0], p[1], p[2])
	}
	for _, n := range m.Normals {
		md.Normals = append(md.Normals, n[0], n[1], n[2])
	}
	for _, uv := range m.UVs {
		md.UVs = append(md.UVs, jsonSafe(uv[0]), jsonSafe(uv[1]))
	}
	if tex != nil {
		for _, uv := range m.UVs {
			r, g, b, a := tex.At(float64(uv[0]), float64(uv[1])).RGBA()
			md.Colors = append(md.Colors, unit16(r), unit16(g), unit16(b), unit16(a))
		}
	}
	return md
}

// unit16 maps a 16-bit color channel onto [0, 1].
func unit16(c uint32) float32 {
	return float32(c) / 0xffff
}

// jsonSafe replaces NaN and infinities, which encoding/json rejects.
func jsonSafe(f float32) float32 {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return -1
	}
	return f
}
