package alignment

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/lattice"
	"github.com/c360/semalign/metric"
)

func loadTestdata(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "standard.yaml"))
	require.NoError(t, err)
	return data
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse_ValidDocument(t *testing.T) {
	doc, err := Parse(loadTestdata(t))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Version)
	require.Len(t, doc.Categories, 4)
	assert.Equal(t, "set", doc.Categories[0].Name)
	assert.Equal(t, OperationDoc{Name: "cardinality", Arity: 1, Result: "value"}, doc.Categories[0].Operations[0])
	assert.Equal(t, []string{"magma"}, doc.Categories[3].Supers)
	assert.Equal(t, []string{"is-magma", "is-associative"}, doc.Categories[3].Properties)

	require.Len(t, doc.Annotations, 5)
	assert.Equal(t, AnnotationDoc{
		Category:  "magma",
		Operation: "combine",
		External:  "Product",
		Theory:    "magma",
	}, doc.Annotations[4])
}

func TestParse_DocumentShape(t *testing.T) {
	doc, err := Parse(loadTestdata(t))
	require.NoError(t, err)

	want := &Document{
		Version: 1,
		Categories: []CategoryDoc{
			{
				Name: "set",
				Operations: []OperationDoc{
					{Name: "cardinality", Arity: 1, Result: "value"},
					{Name: "an_element", Arity: 1},
				},
			},
			{
				Name:       "finite-set",
				Supers:     []string{"set"},
				Properties: []string{"is-finite"},
				Operations: []OperationDoc{
					{Name: "list", Arity: 1, Result: "handle-list"},
					{Name: "iterate", Arity: 1, Result: "iterator"},
				},
			},
			{
				Name:       "magma",
				Supers:     []string{"set"},
				Properties: []string{"is-magma"},
				Operations: []OperationDoc{{Name: "combine", Arity: 2}},
			},
			{
				Name:       "semigroup",
				Supers:     []string{"magma"},
				Properties: []string{"is-magma", "is-associative"},
			},
		},
		Annotations: []AnnotationDoc{
			{Category: "set", Operation: "cardinality", External: "Size"},
			{Category: "set", Operation: "an_element", External: "Representative"},
			{Category: "finite-set", Operation: "list", External: "Elements"},
			{Category: "finite-set", Operation: "iterate", External: "Iterator"},
			{Category: "magma", Operation: "combine", External: "Product", Theory: "magma"},
		},
	}

	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing version",
			doc:  "categories:\n  - name: set\n",
			want: "version is required",
		},
		{
			name: "unsupported version",
			doc:  "version: 2\ncategories:\n  - name: set\n",
			want: "must be one of the following",
		},
		{
			name: "missing categories",
			doc:  "version: 1\n",
			want: "categories is required",
		},
		{
			name: "empty categories",
			doc:  "version: 1\ncategories: []\n",
			want: "categories",
		},
		{
			name: "category without name",
			doc:  "version: 1\ncategories:\n  - supers: [set]\n",
			want: "name is required",
		},
		{
			name: "unknown field",
			doc:  "version: 1\nflavor: blue\ncategories:\n  - name: set\n",
			want: "Additional property flavor is not allowed",
		},
		{
			name: "unknown result kind",
			doc: "version: 1\ncategories:\n  - name: set\n    operations:\n" +
				"      - {name: pair, arity: 2, result: tuple}\n",
			want: "must be one of the following",
		},
		{
			name: "annotation without external",
			doc: "version: 1\ncategories:\n  - name: set\nannotations:\n" +
				"  - {category: set, operation: cardinality}\n",
			want: "external is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, errors.IsFatal(err), "schema violations are fatal: %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	doc, err := Parse([]byte("version: [1\ncategories"))
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, errors.IsFatal(err))
}

func TestParse_EmptyDocument(t *testing.T) {
	for _, data := range []string{"", "# nothing but a comment\n"} {
		doc, err := Parse([]byte(data))
		require.Error(t, err)
		assert.Nil(t, doc)
	}
}

func TestBuild(t *testing.T) {
	doc, err := Parse(loadTestdata(t))
	require.NoError(t, err)

	lat, reg, err := doc.Build()
	require.NoError(t, err)

	assert.True(t, lat.Validated())
	assert.Equal(t, 4, lat.Len())
	root, err := lat.Root()
	require.NoError(t, err)
	assert.Equal(t, "set", root)

	// Inherited operations carry their declaring category and result kind
	ops, err := lat.EffectiveOperations("semigroup")
	require.NoError(t, err)
	byName := make(map[string]lattice.Declared, len(ops))
	for _, d := range ops {
		byName[d.Op.Name] = d
	}
	require.Contains(t, byName, "combine")
	assert.Equal(t, "magma", byName["combine"].Category)
	assert.Equal(t, lattice.ResultHandle, byName["combine"].Op.Kind)
	require.Contains(t, byName, "cardinality")
	assert.Equal(t, "set", byName["cardinality"].Category)
	assert.Equal(t, lattice.ResultValue, byName["cardinality"].Op.Kind)

	finiteOps, err := lat.EffectiveOperations("finite-set")
	require.NoError(t, err)
	kinds := make(map[string]lattice.ResultKind, len(finiteOps))
	for _, d := range finiteOps {
		kinds[d.Op.Name] = d.Op.Kind
	}
	assert.Equal(t, lattice.ResultHandleList, kinds["list"])
	assert.Equal(t, lattice.ResultIterator, kinds["iterate"])

	matched, err := lat.MatchNames("is-magma", "is-associative")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "semigroup", matched[0].Name)

	assert.Equal(t, 5, reg.Len())
	a, err := reg.Lookup("magma", "combine")
	require.NoError(t, err)
	assert.Equal(t, "Product", a.External)
	assert.Equal(t, "magma", a.Theory)
}

func TestBuild_UnknownSuper(t *testing.T) {
	doc, err := Parse([]byte("version: 1\ncategories:\n  - name: magma\n    supers: [missing]\n"))
	require.NoError(t, err)

	_, _, err = doc.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrClassification)
}

func TestBuild_AnnotationNamesUnknownCategory(t *testing.T) {
	doc, err := Parse([]byte(
		"version: 1\ncategories:\n  - name: set\nannotations:\n" +
			"  - {category: group, operation: invert, external: Inverse}\n"))
	require.NoError(t, err)

	_, _, err = doc.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCategoryNotFound)
	assert.True(t, errors.IsFatal(err))
}

func TestBuild_ConflictingAnnotations(t *testing.T) {
	conflicting, err := Parse([]byte(
		"version: 1\ncategories:\n  - name: magma\nannotations:\n" +
			"  - {category: magma, operation: combine, external: Product}\n" +
			"  - {category: magma, operation: combine, external: Sum}\n"))
	require.NoError(t, err)

	_, _, err = conflicting.Build()
	require.Error(t, err)
	var dup *errors.DuplicateAnnotationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Product", dup.Existing)
	assert.Equal(t, "Sum", dup.Proposed)

	// Repeating the identical binding is idempotent
	repeated, err := Parse([]byte(
		"version: 1\ncategories:\n  - name: magma\nannotations:\n" +
			"  - {category: magma, operation: combine, external: Product}\n" +
			"  - {category: magma, operation: combine, external: Product}\n"))
	require.NoError(t, err)

	_, reg, err := repeated.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestBuild_RejectsResultKindOffTheSchemaPath(t *testing.T) {
	// Documents constructed in code bypass Parse, so Build checks too
	doc := &Document{
		Version: 1,
		Categories: []CategoryDoc{
			{Name: "set", Operations: []OperationDoc{{Name: "pair", Arity: 2, Result: "tuple"}}},
		},
	}

	_, _, err := doc.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestLoadFile(t *testing.T) {
	doc, err := LoadFile(filepath.Join("testdata", "standard.yaml"))
	require.NoError(t, err)
	assert.Len(t, doc.Categories, 4)

	_, err = LoadFile(filepath.Join("testdata", "does-not-exist.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestLoader_LoadsAndCounts(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	loader, err := NewLoader(WithMetrics(registry), WithLogger(discardLogger()))
	require.NoError(t, err)

	path := filepath.Join("testdata", "standard.yaml")
	lat, reg, err := loader.Load(path)
	require.NoError(t, err)
	require.NotNil(t, lat)
	require.NotNil(t, reg)
	assert.True(t, lat.Validated())

	_, _, err = loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, counterValue(t, registry, "alignment_documents_loaded_total"))
}

func TestLoader_DuplicateMetricRegistration(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	_, err := NewLoader(WithMetrics(registry))
	require.NoError(t, err)

	_, err = NewLoader(WithMetrics(registry))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoader_RejectsBadDocument(t *testing.T) {
	loader, err := NewLoader(WithLogger(discardLogger()))
	require.NoError(t, err)

	lat, reg, err := loader.LoadBytes([]byte("version: 2\ncategories: []\n"))
	require.Error(t, err)
	assert.Nil(t, lat)
	assert.Nil(t, reg)

	_, _, err = loader.Load(filepath.Join("testdata", "does-not-exist.yaml"))
	require.Error(t, err)
}

func counterValue(t *testing.T, registry *metric.MetricsRegistry, name string) float64 {
	t.Helper()
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
