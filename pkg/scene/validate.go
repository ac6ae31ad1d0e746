package scene

import (
	"fmt"
	"math"

	"github.com/chazu/parasurf/pkg/mero"
	"github.com/chazu/parasurf/pkg/surface"
	"github.com/chazu/parasurf/pkg/tessellate"
)

// ValidationSeverity indicates whether a validation finding blocks loading
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks loading
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Entity   string             // which entity has the problem (empty if scene-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] entity %q: %s", e.Severity, e.Entity, e.Message)
}

// ValidationResult splits findings into blocking errors and warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs every check on the scene. It never mutates the scene.
func Validate(s *Scene) ValidationResult {
	var all []ValidationError
	all = append(all, validateNames(s)...)
	all = append(all, validateFocus(s)...)
	for _, e := range s.Entities {
		all = append(all, validateShape(e)...)
		all = append(all, validateGrid(s, e)...)
		all = append(all, validateViews(e)...)
		all = append(all, validateTexturing(s, e)...)
	}

	var result ValidationResult
	for _, v := range all {
		if v.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, v)
		} else {
			result.Errors = append(result.Errors, v)
		}
	}
	return result
}

func finding(e *Entity, sev ValidationSeverity, format string, args ...interface{}) ValidationError {
	return ValidationError{
		Entity:   e.Name,
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
	}
}

// validateNames checks that every entity has a unique non-empty name.
func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, e := range s.Entities {
		if e.Name == "" {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("entity #%d has no name", i+1),
				Severity: SeverityError,
			})
			continue
		}
		if seen[e.Name] {
			errs = append(errs, finding(e, SeverityError, "duplicate entity name"))
		}
		seen[e.Name] = true
	}
	return errs
}

// validateFocus checks that an explicit focus names an existing entity.
func validateFocus(s *Scene) []ValidationError {
	if s.Focus == "" || s.Lookup(s.Focus) != nil {
		return nil
	}
	return []ValidationError{{
		Message:  fmt.Sprintf("focus names unknown entity %q", s.Focus),
		Severity: SeverityError,
	}}
}

// validateShape checks shape parameters.
func validateShape(e *Entity) []ValidationError {
	var errs []ValidationError
	sh := e.Shape
	switch sh.Kind {
	case ShapeTorus:
		if sh.A <= 0 || sh.B <= 0 {
			errs = append(errs, finding(e, SeverityError, "torus radii must be positive (a=%g, b=%g)", sh.A, sh.B))
		} else if sh.B > sh.A {
			errs = append(errs, finding(e, SeverityWarning,
				"torus tube radius %g exceeds ring radius %g; the surface self-intersects", sh.B, sh.A))
		}
	case ShapeSphere, ShapeSphereChart:
		if sh.Radius <= 0 {
			errs = append(errs, finding(e, SeverityError, "%s radius must be positive, got %g", sh.Kind, sh.Radius))
		}
	}
	if _, err := sh.Func(); err != nil {
		errs = append(errs, finding(e, SeverityError, "%v", err))
	}
	return errs
}

// validateGrid checks the domain and the resolved resolution.
func validateGrid(s *Scene, e *Entity) []ValidationError {
	var errs []ValidationError
	if err := e.ResolvedDomain().Validate(); err != nil {
		errs = append(errs, finding(e, SeverityError, "%v", err))
	}
	if e.Resolution.X < 0 || e.Resolution.Y < 0 {
		errs = append(errs, finding(e, SeverityError, "negative resolution %dx%d", e.Resolution.X, e.Resolution.Y))
	} else if err := e.ResolvedResolution(s.Defaults).Validate(); err != nil {
		errs = append(errs, finding(e, SeverityError, "%v", err))
	}
	return errs
}

// validateViews checks for unknown or repeated view topologies.
func validateViews(e *Entity) []ValidationError {
	var errs []ValidationError
	seen := make(map[tessellate.Topology]bool)
	for _, v := range e.Views {
		if v.Stride() == 0 {
			errs = append(errs, finding(e, SeverityError, "unknown view %v", v))
			continue
		}
		if seen[v] {
			errs = append(errs, finding(e, SeverityWarning, "view %v listed twice", v))
		}
		seen[v] = true
	}
	return errs
}

// validateTexturing checks the uv mode, encoding and the mero seed.
func validateTexturing(s *Scene, e *Entity) []ValidationError {
	var errs []ValidationError
	if _, err := mero.ParseEncoding(e.Encoding); err != nil {
		errs = append(errs, finding(e, SeverityError, "%v", err))
	}
	if e.Mero != nil && e.UV != UVMero {
		errs = append(errs, finding(e, SeverityWarning, "mero given but uv mode is %v; it will not be shown", e.UV))
	}
	if e.UV == UVMero && s.Texture == "" {
		errs = append(errs, finding(e, SeverityWarning, "mero uv mode without a texture"))
	}
	if e.Mero == nil {
		return errs
	}

	for _, z := range e.Mero.Zeros {
		for _, p := range e.Mero.Poles {
			if z == p {
				errs = append(errs, finding(e, SeverityWarning, "zero and pole coincide at %v", z))
			}
		}
	}

	d := e.ResolvedDomain()
	if d.Validate() != nil {
		return errs
	}
	for _, z := range e.Mero.Zeros {
		if !inDomain(d, z) {
			errs = append(errs, finding(e, SeverityWarning, "zero %v lies outside the domain", z))
		}
	}
	res := e.ResolvedResolution(s.Defaults)
	for _, p := range e.Mero.Poles {
		if !inDomain(d, p) {
			errs = append(errs, finding(e, SeverityWarning, "pole %v lies outside the domain", p))
		} else if onGridNode(d, res, p) {
			errs = append(errs, finding(e, SeverityWarning, "pole %v sits on a grid vertex; its texture coordinate will be non-finite", p))
		}
	}
	return errs
}

func inDomain(d surface.Domain, z complex128) bool {
	x, y := real(z), imag(z)
	return between(x, d.Start.X, d.End.X) && between(y, d.Start.Y, d.End.Y)
}

func between(v, a, b float64) bool {
	return v >= math.Min(a, b) && v <= math.Max(a, b)
}

// onGridNode reports whether z coincides with a sampled vertex parameter.
func onGridNode(d surface.Domain, res surface.Resolution, z complex128) bool {
	if res.Validate() != nil {
		return false
	}
	size := d.Size()
	fi := (real(z) - d.Start.X) / size.X * float64(res.X)
	fj := (imag(z) - d.Start.Y) / size.Y * float64(res.Y)
	const eps = 1e-9
	return math.Abs(fi-math.Round(fi)) < eps && math.Abs(fj-math.Round(fj)) < eps
}
