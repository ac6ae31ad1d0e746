package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/parasurf/pkg/scene"
	"github.com/chazu/parasurf/pkg/surface"
	"github.com/chazu/parasurf/pkg/tessellate"
	v2 "github.com/deadsy/sdfx/vec/v2"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites scene script source before it reaches zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal).
//     Keywords never collide with user variables this way.
//
//  2. Kebab-case to underscore: sphere-chart -> sphere_chart.
//     zygomys reads a hyphen inside a symbol as subtraction.
//
//  3. ; line comments become // comments.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			i = copyQuoted(&result, b, i, '"', true)
			continue
		case b[i] == '`':
			i = copyQuoted(&result, b, i, '`', false)
			continue
		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, b[i], b[i+1])
			i += 2
			continue
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
			continue
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			// Only between identifier characters; a lone - is subtraction.
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

// copyQuoted copies a quoted literal starting at b[i] and returns the index
// just past its closing quote.
func copyQuoted(dst *[]byte, b []byte, i int, quote byte, escapes bool) int {
	*dst = append(*dst, b[i])
	i++
	for i < len(b) && b[i] != quote {
		if escapes && b[i] == '\\' && i+1 < len(b) {
			*dst = append(*dst, b[i], b[i+1])
			i += 2
			continue
		}
		*dst = append(*dst, b[i])
		i++
	}
	if i < len(b) {
		*dst = append(*dst, b[i])
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec2 wraps a domain point.
type sexpVec2 struct {
	vec v2.Vec
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpComplex wraps a complex number.
type sexpComplex struct {
	val complex128
}

func (c *sexpComplex) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(cx %g %g)", real(c.val), imag(c.val))
}
func (c *sexpComplex) Type() *zygo.RegisteredType { return nil }

// sexpShape wraps a shape produced by torus, plane, sphere or sphere-chart.
type sexpShape struct {
	spec scene.ShapeSpec
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", s.spec.Kind)
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpMero wraps the seed of a rational function.
type sexpMero struct {
	spec scene.MeroSpec
}

func (m *sexpMero) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mero %d zeros %d poles)", len(m.spec.Zeros), len(m.spec.Poles))
}
func (m *sexpMero) Type() *zygo.RegisteredType { return nil }

// sexpEntityRef names an entity created by surface.
type sexpEntityRef struct {
	name string
}

func (r *sexpEntityRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(entity %q)", r.name)
}
func (r *sexpEntityRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string and returns the
// keyword name without its prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Trailing keyword is a flag.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, describeSexp(s))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, describeSexp(s))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, describeSexp(s))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, describeSexp(s))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toComplex accepts (cx re im) or a plain real number.
func toComplex(s zygo.Sexp) (complex128, error) {
	if c, ok := s.(*sexpComplex); ok {
		return c.val, nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return 0, fmt.Errorf("expected complex, got %T (%s)", s, describeSexp(s))
	}
	return complex(f, 0), nil
}

func toVec2(s zygo.Sexp) (v2.Vec, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return v2.Vec{}, fmt.Errorf("expected vec2, got %T (%s)", s, describeSexp(s))
}

func toShape(s zygo.Sexp) (scene.ShapeSpec, error) {
	if sh, ok := s.(*sexpShape); ok {
		return sh.spec, nil
	}
	return scene.ShapeSpec{}, fmt.Errorf("expected shape, got %T (%s)", s, describeSexp(s))
}

func toMero(s zygo.Sexp) (scene.MeroSpec, error) {
	if m, ok := s.(*sexpMero); ok {
		return m.spec, nil
	}
	return scene.MeroSpec{}, fmt.Errorf("expected mero, got %T (%s)", s, describeSexp(s))
}

// toEntityName accepts an entity reference or a plain name.
func toEntityName(s zygo.Sexp) (string, error) {
	if r, ok := s.(*sexpEntityRef); ok {
		return r.name, nil
	}
	name, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected entity or name: %w", err)
	}
	return name, nil
}

// toResolution accepts N, or a two-element list or array [NX NY].
func toResolution(s zygo.Sexp) (surface.Resolution, error) {
	switch s.(type) {
	case *zygo.SexpInt, *zygo.SexpFloat:
		n, err := toInt(s)
		return surface.Resolution{X: n, Y: n}, err
	}
	items, err := sexpListToSlice(s)
	if err != nil || len(items) != 2 {
		return surface.Resolution{}, fmt.Errorf("expected N or [NX NY], got %s", describeSexp(s))
	}
	x, err := toInt(items[0])
	if err != nil {
		return surface.Resolution{}, err
	}
	y, err := toInt(items[1])
	if err != nil {
		return surface.Resolution{}, err
	}
	return surface.Resolution{X: x, Y: y}, nil
}

func toViews(s zygo.Sexp) ([]tessellate.Topology, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		// A single view keyword is accepted on its own.
		items = []zygo.Sexp{s}
	}
	views := make([]tessellate.Topology, 0, len(items))
	for _, item := range items {
		name, err := toKeywordString(item)
		if err != nil {
			return nil, err
		}
		t, err := tessellate.ParseTopology(name)
		if err != nil {
			return nil, err
		}
		views = append(views, t)
	}
	return views, nil
}

func toComplexList(s zygo.Sexp) ([]complex128, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, 0, len(items))
	for _, item := range items {
		c, err := toComplex(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// floatKW reads an optional numeric keyword into dst.
func floatKW(pa kwArgs, fn, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene script builtins into a zygomys
// environment. The builtins populate s during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene) {

	// -----------------------------------------------------------------------
	// (texture "phase.png")
	// -----------------------------------------------------------------------
	env.AddFunction("texture", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("texture requires a path argument")
		}
		path, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("texture: %w", err)
		}
		s.Texture = path
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (defaults :resolution 64 :views (list :triangles))
	// -----------------------------------------------------------------------
	env.AddFunction("defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if v, ok := pa.kw["resolution"]; ok {
			r, err := toResolution(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: resolution: %w", err)
			}
			s.Defaults.Resolution = r
		}
		if v, ok := pa.kw["views"]; ok {
			views, err := toViews(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: views: %w", err)
			}
			s.Defaults.Views = views
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (vec2 0.5 1)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{vec: v2.Vec{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// (cx 0.25 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("cx", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 || len(args) > 2 {
			return zygo.SexpNull, fmt.Errorf("cx requires 1 or 2 arguments, got %d", len(args))
		}
		re, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cx: re: %w", err)
		}
		var im float64
		if len(args) == 2 {
			if im, err = toFloat64(args[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("cx: im: %w", err)
			}
		}
		return &sexpComplex{val: complex(re, im)}, nil
	})

	// -----------------------------------------------------------------------
	// (torus :a 1.0 :b 0.4)
	// -----------------------------------------------------------------------
	env.AddFunction("torus", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := scene.DefaultTorus()
		if err := floatKW(pa, "torus", "a", &spec.A); err != nil {
			return zygo.SexpNull, err
		}
		if err := floatKW(pa, "torus", "b", &spec.B); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpShape{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (plane :height :wave)
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := scene.ShapeSpec{Kind: scene.ShapePlane, Height: scene.HeightFlat}
		if v, ok := pa.kw["height"]; ok {
			h, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: height: %w", err)
			}
			spec.Height = h
		}
		return &sexpShape{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 1)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := scene.ShapeSpec{Kind: scene.ShapeSphere, Radius: 1}
		if err := floatKW(pa, "sphere", "radius", &spec.Radius); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpShape{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere-chart :radius 1 :hemisphere :south)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere_chart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := scene.ShapeSpec{Kind: scene.ShapeSphereChart, Radius: 1, Hemisphere: surface.North}
		if err := floatKW(pa, "sphere-chart", "radius", &spec.Radius); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["hemisphere"]; ok {
			h, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere-chart: hemisphere: %w", err)
			}
			switch h {
			case "north":
				spec.Hemisphere = surface.North
			case "south":
				spec.Hemisphere = surface.South
			default:
				return zygo.SexpNull, fmt.Errorf("sphere-chart: invalid hemisphere %q, expected north or south", h)
			}
		}
		return &sexpShape{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (mero :factor (cx 1 0) :zeros (list (cx 0.25 0.5)) :poles (list ...))
	// -----------------------------------------------------------------------
	env.AddFunction("mero", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := scene.MeroSpec{Factor: 1}
		if v, ok := pa.kw["factor"]; ok {
			c, err := toComplex(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mero: factor: %w", err)
			}
			spec.Factor = c
		}
		if v, ok := pa.kw["zeros"]; ok {
			zs, err := toComplexList(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mero: zeros: %w", err)
			}
			spec.Zeros = zs
		}
		if v, ok := pa.kw["poles"]; ok {
			ps, err := toComplexList(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mero: poles: %w", err)
			}
			spec.Poles = ps
		}
		return &sexpMero{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (surface "donut" :shape (torus) :resolution 100 :views (list :triangles)
	//          :uv :mero :mero (mero ...))
	// -----------------------------------------------------------------------
	env.AddFunction("surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("surface requires a name argument")
		}
		entName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("surface: name: %w", err)
		}

		e := &scene.Entity{
			Name:   entName,
			Shape:  scene.DefaultTorus(),
			UV:     scene.UVZero,
			Source: scene.SourceRef{Expr: describeCall("surface", args)},
		}

		if v, ok := pa.kw["shape"]; ok {
			sh, err := toShape(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface %q: shape: %w", entName, err)
			}
			e.Shape = sh
		}

		start, hasStart := pa.kw["start"]
		end, hasEnd := pa.kw["end"]
		if hasStart || hasEnd {
			d := e.Shape.DefaultDomain()
			if hasStart {
				if d.Start, err = toVec2(start); err != nil {
					return zygo.SexpNull, fmt.Errorf("surface %q: start: %w", entName, err)
				}
			}
			if hasEnd {
				if d.End, err = toVec2(end); err != nil {
					return zygo.SexpNull, fmt.Errorf("surface %q: end: %w", entName, err)
				}
			}
			e.Domain = &d
		}

		if v, ok := pa.kw["resolution"]; ok {
			r, err := toResolution(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface %q: resolution: %w", entName, err)
			}
			e.Resolution = r
		}
		if v, ok := pa.kw["views"]; ok {
			views, err := toViews(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface %q: views: %w", entName, err)
			}
			e.Views = views
		}
		if v, ok := pa.kw["mero"]; ok {
			m, err := toMero(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface %q: mero: %w", entName, err)
			}
			e.Mero = &m
			e.UV = scene.UVMero
		}
		if v, ok := pa.kw["uv"]; ok {
			mode, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface %q: uv: %w", entName, err)
			}
			switch mode {
			case "zero":
				e.UV = scene.UVZero
			case "domain":
				e.UV = scene.UVDomain
			case "mero":
				e.UV = scene.UVMero
			default:
				return zygo.SexpNull, fmt.Errorf("surface %q: invalid uv mode %q, expected zero, domain, or mero", entName, mode)
			}
		}
		if v, ok := pa.kw["encoding"]; ok {
			enc, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface %q: encoding: %w", entName, err)
			}
			e.Encoding = enc
		}

		s.AddEntity(e)
		return &sexpEntityRef{name: entName}, nil
	})

	// -----------------------------------------------------------------------
	// (focus "donut")
	// -----------------------------------------------------------------------
	env.AddFunction("focus", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("focus requires one entity argument")
		}
		entName, err := toEntityName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("focus: %w", err)
		}
		s.Focus = entName
		return args[0], nil
	})
}

// describeCall renders a builtin call back into script form, with keywords
// restored, for SourceRef.
func describeCall(fn string, args []zygo.Sexp) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, fn)
	for _, a := range args {
		parts = append(parts, describeSexp(a))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func describeSexp(a zygo.Sexp) string {
	switch v := a.(type) {
	case *zygo.SexpStr:
		if kw, ok := isKW(v); ok {
			return ":" + kw
		}
		return fmt.Sprintf("%q", v.S)
	case *zygo.SexpInt:
		return fmt.Sprintf("%d", v.Val)
	case *zygo.SexpFloat:
		return fmt.Sprintf("%g", v.Val)
	case *sexpVec2, *sexpComplex, *sexpShape, *sexpMero, *sexpEntityRef:
		return v.SexpString(nil)
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := sexpListToSlice(v)
		if err != nil {
			return "(...)"
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = describeSexp(item)
		}
		return "(list " + strings.Join(parts, " ") + ")"
	}
	return "?"
}
