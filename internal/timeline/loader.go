package timeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Load error codes.
const (
	ErrCodeNotFound  = "E001"
	ErrCodeReadFile  = "E002"
	ErrCodeParse     = "E003"
	ErrCodeNoFiles   = "E004"
	ErrCodeCompile   = "E005"
	ErrCodeDuplicate = "E006"
)

// LoadError reports a problem reading or compiling a timeline source file.
type LoadError struct {
	Code    string
	File    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadResult holds the timelines read from a directory.
type LoadResult struct {
	Timelines []Timeline
	FileCount int
}

// Doc, PhaseDoc and DecorDoc are the on-disk shape shared by CUE and YAML
// files. Times are whole milliseconds.
type PhaseDoc struct {
	ID         string    `json:"id" yaml:"id"`
	StartMs    int64     `json:"start_ms" yaml:"start_ms"`
	DurationMs int64     `json:"duration_ms" yaml:"duration_ms"`
	Target     string    `json:"target" yaml:"target"`
	Action     string    `json:"action,omitempty" yaml:"action,omitempty"`
	Decor      *DecorDoc `json:"decor,omitempty" yaml:"decor,omitempty"`
}

type DecorDoc struct {
	ParticleCount int    `json:"particle_count,omitempty" yaml:"particle_count,omitempty"`
	StaggerMs     int64  `json:"stagger_ms,omitempty" yaml:"stagger_ms,omitempty"`
	ColorBias     string `json:"color_bias,omitempty" yaml:"color_bias,omitempty"`
}

type Doc struct {
	ID            string     `json:"id,omitempty" yaml:"id,omitempty"`
	TotalMs       int64      `json:"total_ms" yaml:"total_ms"`
	UsesParticles bool       `json:"uses_particles,omitempty" yaml:"uses_particles,omitempty"`
	Phases        []PhaseDoc `json:"phases" yaml:"phases"`
}

type yamlFile struct {
	Timelines []Doc `yaml:"timelines"`
}

// Compile converts the document into a Timeline. It does not validate.
func (d Doc) Compile() Timeline {
	tl := Timeline{
		ID:            Identifier(d.ID),
		Total:         ms(d.TotalMs),
		UsesParticles: d.UsesParticles,
		Phases:        make([]Phase, 0, len(d.Phases)),
	}
	for _, p := range d.Phases {
		phase := Phase{
			ID:       PhaseID(p.ID),
			Start:    ms(p.StartMs),
			Duration: ms(p.DurationMs),
			Target:   Target(p.Target),
			Action:   Action(p.Action),
		}
		if p.Decor != nil {
			phase.Decor = &Decor{
				ParticleCount: p.Decor.ParticleCount,
				Stagger:       ms(p.Decor.StaggerMs),
				ColorBias:     p.Decor.ColorBias,
			}
		}
		tl.Phases = append(tl.Phases, phase)
	}
	return tl
}

// LoadDir reads every .cue, .yaml and .yml file in dir (non-recursive),
// compiles the timelines they declare and validates each one.
//
// All problems are collected; the result holds every timeline that loaded
// cleanly.
func LoadDir(dir string) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("timelines directory not found: %s", dir), Err: err}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeReadFile, Message: "reading directory", Err: err}}
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".cue", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no timeline files found in %s", dir)}}
	}

	result := &LoadResult{FileCount: len(files)}
	var errs []error
	seen := make(map[Identifier]string)

	for _, path := range files {
		docs, err := LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, tl := range docs {
			if prev, dup := seen[tl.ID]; dup {
				errs = append(errs, &LoadError{
					Code:    ErrCodeDuplicate,
					File:    path,
					Message: fmt.Sprintf("timeline %q already declared in %s", tl.ID, prev),
				})
				continue
			}
			if verrs := Validate(tl); len(verrs) > 0 {
				for _, v := range verrs {
					errs = append(errs, &LoadError{Code: v.Code, File: path, Message: fmt.Sprintf("%s: %s", tl.ID, v.Message), Err: v})
				}
				continue
			}
			seen[tl.ID] = path
			result.Timelines = append(result.Timelines, tl)
		}
	}

	return result, errs
}

// LoadFile compiles the timelines declared in a single CUE or YAML file.
// It does not validate them.
func LoadFile(path string) ([]Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFile, File: path, Message: "reading file", Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return compileCUE(path, data)
	case ".yaml", ".yml":
		return compileYAML(path, data)
	default:
		return nil, &LoadError{Code: ErrCodeParse, File: path, Message: "unsupported file extension"}
	}
}

// compileYAML parses a YAML timeline file. Unknown fields are rejected so
// typos surface instead of silently dropping phases.
func compileYAML(path string, data []byte) ([]Timeline, error) {
	var f yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, File: path, Message: "parsing YAML", Err: err}
	}

	out := make([]Timeline, 0, len(f.Timelines))
	for _, d := range f.Timelines {
		out = append(out, d.Compile())
	}
	return out, nil
}

// compileCUE evaluates a CUE file and extracts every field under the
// top-level "timeline" struct. The field label is the timeline identifier.
//
//	timeline: "prep-to-session": {
//		total_ms: 2400
//		phases: [{id: "softening", start_ms: 0, duration_ms: 600, target: "outgoing"}]
//	}
func compileCUE(path string, data []byte) ([]Timeline, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, File: path, Message: "building CUE value", Err: err}
	}

	root := value.LookupPath(cue.ParsePath("timeline"))
	if !root.Exists() {
		return nil, nil
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCompile, File: path, Message: "iterating timelines", Err: err}
	}

	var out []Timeline
	for iter.Next() {
		var doc Doc
		if err := iter.Value().Decode(&doc); err != nil {
			return nil, &LoadError{
				Code:    ErrCodeCompile,
				File:    path,
				Message: fmt.Sprintf("decoding timeline %q", iter.Label()),
				Err:     err,
			}
		}
		label := iter.Label()
		if doc.ID != "" && doc.ID != label {
			return nil, &LoadError{
				Code:    ErrCodeCompile,
				File:    path,
				Message: fmt.Sprintf("timeline %q declares mismatched id %q", label, doc.ID),
			}
		}
		doc.ID = label
		out = append(out, doc.Compile())
	}
	return out, nil
}

// IsLoadError reports whether err wraps a LoadError with the given code.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}
