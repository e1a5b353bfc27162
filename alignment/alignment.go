package alignment

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/c360/semalign/annotation"
	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/lattice"
	"github.com/c360/semalign/metric"
)

//go:embed schema.json
var schemaJSON string

// Document is one alignment document: the category lattice and the
// annotation registry for an engine deployment, in their on-disk form.
type Document struct {
	Version     int             `yaml:"version" json:"version"`
	Categories  []CategoryDoc   `yaml:"categories" json:"categories"`
	Annotations []AnnotationDoc `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// CategoryDoc declares one category of the lattice
type CategoryDoc struct {
	Name       string         `yaml:"name" json:"name"`
	Supers     []string       `yaml:"supers,omitempty" json:"supers,omitempty"`
	Properties []string       `yaml:"properties,omitempty" json:"properties,omitempty"`
	Operations []OperationDoc `yaml:"operations,omitempty" json:"operations,omitempty"`
}

// OperationDoc declares one abstract operation. Result is the result
// kind in string form; empty means handle.
type OperationDoc struct {
	Name   string `yaml:"name" json:"name"`
	Arity  int    `yaml:"arity,omitempty" json:"arity,omitempty"`
	Result string `yaml:"result,omitempty" json:"result,omitempty"`
}

// AnnotationDoc binds one (category, operation) pair to an external
// engine name
type AnnotationDoc struct {
	Category  string `yaml:"category" json:"category"`
	Operation string `yaml:"operation" json:"operation"`
	External  string `yaml:"external" json:"external"`
	Theory    string `yaml:"theory,omitempty" json:"theory,omitempty"`
	Variant   string `yaml:"variant,omitempty" json:"variant,omitempty"`
}

// Parse decodes a YAML alignment document and validates it against the
// embedded JSON schema. Validation runs on the generic decoding so that
// unknown fields and wrong types are reported by field path rather than
// silently dropped by the typed unmarshal.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "Alignment", "Parse",
			fmt.Sprintf("decoding document: %v", err))
	}
	if raw == nil {
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "Alignment", "Parse",
			"decoding empty document")
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "Alignment", "Parse",
			fmt.Sprintf("decoding document: %v", err))
	}
	return &doc, nil
}

// validateSchema checks the generic decoding against the embedded
// schema and reports every violation with its field path.
func validateSchema(raw any) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Alignment", "Parse",
			fmt.Sprintf("converting document for validation: %v", err))
	}

	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.WrapFatal(err, "Alignment", "Parse", "running schema validation")
	}
	if !result.Valid() {
		var b strings.Builder
		b.WriteString("document fails schema validation:")
		for _, desc := range result.Errors() {
			fmt.Fprintf(&b, "\n  - %s: %s", desc.Field(), desc.Description())
		}
		return errors.WrapFatal(errors.ErrInvalidConfig, "Alignment", "Parse", b.String())
	}
	return nil
}

// LoadFile reads and parses an alignment document from disk
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Alignment", "LoadFile",
			fmt.Sprintf("reading %s: %v", path, err))
	}
	return Parse(data)
}

// Build compiles the document into a validated lattice and a populated
// annotation registry. The lattice's structural invariants are checked
// here, so a successful Build returns a lattice that is ready for
// handle factories.
func (d *Document) Build() (*lattice.Lattice, *annotation.Registry, error) {
	lat := lattice.New()
	for _, c := range d.Categories {
		ops := make([]lattice.Operation, 0, len(c.Operations))
		for _, op := range c.Operations {
			kind, err := lattice.ParseResultKind(op.Result)
			if err != nil {
				return nil, nil, errors.WrapFatal(errors.ErrInvalidConfig, "Alignment", "Build",
					fmt.Sprintf("category %q operation %q has result kind %q", c.Name, op.Name, op.Result))
			}
			ops = append(ops, lattice.Operation{Name: op.Name, Arity: op.Arity, Kind: kind})
		}
		cat := lattice.Category{
			Name:       c.Name,
			Supers:     c.Supers,
			Properties: c.Properties,
			Operations: ops,
		}
		if err := lat.Add(cat); err != nil {
			return nil, nil, err
		}
	}
	if err := lat.Validate(); err != nil {
		return nil, nil, err
	}

	reg := annotation.NewRegistry()
	for _, a := range d.Annotations {
		if !lat.Has(a.Category) {
			return nil, nil, errors.WrapFatal(errors.ErrCategoryNotFound, "Alignment", "Build",
				fmt.Sprintf("annotation %q.%q names a category the document does not declare",
					a.Category, a.Operation))
		}
		var opts []annotation.Option
		if a.Theory != "" {
			opts = append(opts, annotation.WithTheory(a.Theory))
		}
		if a.Variant != "" {
			opts = append(opts, annotation.WithVariant(a.Variant))
		}
		if err := reg.Register(a.Category, a.Operation, a.External, opts...); err != nil {
			return nil, nil, err
		}
	}
	return lat, reg, nil
}

// Loader parses alignment documents with logging and metrics attached.
// The zero-dependency path is the package functions; services that want
// load counts on their dashboards go through a Loader.
type Loader struct {
	logger    *slog.Logger
	registrar metric.MetricsRegistrar
	loaded    prometheus.Counter
}

// LoaderOption is a functional option for Loader construction.
type LoaderOption func(*Loader)

// WithLogger sets the logger for load reporting
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithMetrics registers the loader's counters with the registrar
func WithMetrics(registrar metric.MetricsRegistrar) LoaderOption {
	return func(l *Loader) {
		l.registrar = registrar
	}
}

// NewLoader creates a loader. With a registrar attached it registers
// the documents_loaded_total counter under the alignment component.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	l := &Loader{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}

	if l.registrar != nil {
		counter := prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alignment_documents_loaded_total",
			Help: "Total number of alignment documents loaded",
		})
		if err := l.registrar.RegisterCounter("alignment", "documents_loaded_total", counter); err != nil {
			return nil, err
		}
		l.loaded = counter
	}
	return l, nil
}

// Load reads, parses, and compiles one alignment document from disk
func (l *Loader) Load(path string) (*lattice.Lattice, *annotation.Registry, error) {
	doc, err := LoadFile(path)
	if err != nil {
		l.logger.Error("alignment document rejected", "path", path, "error", err)
		return nil, nil, err
	}

	lat, reg, err := doc.Build()
	if err != nil {
		l.logger.Error("alignment document rejected", "path", path, "error", err)
		return nil, nil, err
	}

	if l.loaded != nil {
		l.loaded.Inc()
	}
	l.logger.Info("alignment document loaded",
		"path", path,
		"categories", lat.Len(),
		"annotations", reg.Len())
	return lat, reg, nil
}

// LoadBytes parses and compiles an alignment document already in memory
func (l *Loader) LoadBytes(data []byte) (*lattice.Lattice, *annotation.Registry, error) {
	doc, err := Parse(data)
	if err != nil {
		l.logger.Error("alignment document rejected", "error", err)
		return nil, nil, err
	}

	lat, reg, err := doc.Build()
	if err != nil {
		l.logger.Error("alignment document rejected", "error", err)
		return nil, nil, err
	}

	if l.loaded != nil {
		l.loaded.Inc()
	}
	l.logger.Info("alignment document loaded",
		"categories", lat.Len(),
		"annotations", reg.Len())
	return lat, reg, nil
}
