package main

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Evaluate binding: live reload from the editor.
// ---------------------------------------------------------------------------

func TestEvaluateEmptySource(t *testing.T) {
	app := NewApp(".")
	result := app.Evaluate("")

	if len(result.Errors) != 0 || len(result.Meshes) != 0 || len(result.Warnings) != 0 {
		t.Errorf("empty source: %+v", result)
	}
	// Slices must be non-nil so JSON carries [] rather than null.
	if result.Meshes == nil || result.Errors == nil || result.Warnings == nil {
		t.Error("result slices should be non-nil")
	}
}

func TestEvaluateSyntaxErrorKeepsWorld(t *testing.T) {
	app := NewApp(".")
	if r := app.Evaluate(`(surface "a" :resolution 2)`); len(r.Errors) != 0 || len(r.Meshes) != 1 {
		t.Fatalf("first evaluate: %+v", r.Errors)
	}

	result := app.Evaluate("(+ 1 2)\n(surface \"b\"")
	if len(result.Errors) == 0 {
		t.Fatal("expected an eval error for unmatched parens")
	}
	if result.Errors[0].Message == "" {
		t.Error("eval error should have a message")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
	if frame := app.Frame(); len(frame.Meshes) != 1 || frame.Meshes[0].PartName != "a" {
		t.Error("a failed evaluate must keep the previous world")
	}
}

func TestEvaluateValidationError(t *testing.T) {
	app := NewApp(".")
	result := app.Evaluate(`(surface "a") (surface "a")`)
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0].Message, "duplicate") {
		t.Errorf("errors = %+v, want a duplicate name error", result.Errors)
	}
}

func TestEvaluateWarnings(t *testing.T) {
	app := NewApp(".")
	result := app.Evaluate(`(surface "fat" :shape (torus :a 1 :b 2) :resolution 4)`)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Message, "self-intersects") {
		t.Errorf("warnings = %+v", result.Warnings)
	}
	if len(result.Meshes) != 1 {
		t.Errorf("warnings must not block meshes, got %d", len(result.Meshes))
	}
}

func TestEvaluateMissingTextureIsReported(t *testing.T) {
	app := NewApp(t.TempDir())
	result := app.Evaluate(`(texture "gone.png") (surface "a" :resolution 2)`)
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Message, "asset load failed") {
		t.Errorf("errors = %+v", result.Errors)
	}
}

func TestEvaluateRapid(t *testing.T) {
	app := NewApp(".")
	for i := 0; i < 10; i++ {
		result := app.Evaluate(`(surface "a" :shape (sphere) :resolution 6)`)
		if len(result.Errors) != 0 {
			t.Fatalf("iteration %d: %+v", i, result.Errors)
		}
	}
}

// ---------------------------------------------------------------------------
// Input bindings.
// ---------------------------------------------------------------------------

func TestInputWithoutScene(t *testing.T) {
	app := NewApp(".")
	if err := app.Click("left", 0, 0); err == nil {
		t.Error("click without a scene should fail")
	}
	if frame := app.Frame(); len(frame.Meshes) != 0 || frame.Meshes == nil {
		t.Errorf("frame without a scene = %+v", frame)
	}
}

func TestUnknownButton(t *testing.T) {
	app := NewApp(".")
	app.Evaluate(`(surface "a" :resolution 2)`)
	if err := app.Click("middle", 0.5, 0.5); err == nil {
		t.Error("expected an error for an unknown button")
	}
}

func TestFocusUnknownEntityKeepsSession(t *testing.T) {
	app := NewApp(".")
	app.Evaluate(`(surface "a" :resolution 2)`)
	if err := app.Focus("ghost"); err != nil {
		t.Fatal(err)
	}
	frame := app.Frame()
	if frame.Done || len(frame.Meshes) != 1 {
		t.Errorf("bad focus should only be logged: %+v", frame)
	}
}

func TestEscapeQuits(t *testing.T) {
	app := NewApp(".")
	app.Evaluate(`(surface "a" :resolution 2)`)
	app.KeyPress("a")
	if app.Frame().Done {
		t.Fatal("only Escape should end the session")
	}
	app.KeyPress("Escape")
	if !app.Frame().Done {
		t.Error("Escape should end the session")
	}
}

func TestDragMovesCamera(t *testing.T) {
	app := NewApp(".")
	app.Evaluate(`(surface "a" :resolution 2)`)
	start := app.Frame().Camera.Position
	if err := app.Drag(30, 0); err != nil {
		t.Fatal(err)
	}
	if app.Frame().Camera.Position == start {
		t.Error("drag should orbit the camera")
	}
}

func TestColorPaletteWrapping(t *testing.T) {
	app := NewApp(".")
	src := ""
	for i := 0; i < len(colorPalette)+1; i++ {
		src += `(surface "s` + string(rune('a'+i)) + `" :shape (plane) :resolution 1)`
	}
	result := app.Evaluate(src)
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %+v", result.Errors)
	}
	if len(result.Meshes) != len(colorPalette)+1 {
		t.Fatalf("got %d meshes", len(result.Meshes))
	}
	if result.Meshes[len(colorPalette)].Color != colorPalette[0] {
		t.Errorf("palette should wrap, got %s", result.Meshes[len(colorPalette)].Color)
	}
}
