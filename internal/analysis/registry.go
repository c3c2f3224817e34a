package analysis

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"nbdt-analysis/internal/rules"
)

// Option keys a variant may accept from configuration.
const (
	OptClasses   = "classes"
	OptDataset   = "dataset"
	OptPathGraph = "path_graph"
	OptPathWNIDs = "path_wnids"
	OptMetric    = "metric"
)

// ErrUnknownAnalyzer is returned for unregistered variant names.
var ErrUnknownAnalyzer = errors.New("analysis: unknown analyzer")

// Options carries everything a variant may be built from. Variants read
// only the fields named in their Accepts list.
type Options struct {
	Classes   []string
	// Dataset selects GraphRoot/<dataset>.yaml when PathGraph is empty.
	Dataset   string
	PathGraph string
	// PathWNIDs relabels classes by WordNet id when matching hierarchy leaves.
	PathWNIDs string
	GraphRoot string
	Metric    string
	Out       io.Writer
}

// Variant describes a constructible analyzer.
type Variant struct {
	Name    string
	Accepts []string
	build   func(Options) (Analyzer, error)
}

// AcceptsOption reports whether the variant reads the option key.
func (v Variant) AcceptsOption(key string) bool { return slices.Contains(v.Accepts, key) }

var ruleOptions = []string{OptClasses, OptDataset, OptPathGraph, OptPathWNIDs, OptMetric}

var variants = []Variant{
	{
		Name:    "Noop",
		Accepts: []string{OptClasses},
		build: func(o Options) (Analyzer, error) {
			return withOutput(NewNoop(o.Classes), o.Out), nil
		},
	},
	{
		Name:    "ConfusionMatrix",
		Accepts: []string{OptClasses},
		build: func(o Options) (Analyzer, error) {
			a, err := NewConfusionMatrix(o.Classes)
			if err != nil {
				return nil, err
			}
			return withOutput(a, o.Out), nil
		},
	},
	{
		Name:    "IgnoredSamples",
		Accepts: []string{OptClasses},
		build: func(o Options) (Analyzer, error) {
			return withOutput(NewIgnoredSamples(o.Classes), o.Out), nil
		},
	},
	{
		Name:    "HardEmbeddedDecisionRules",
		Accepts: ruleOptions,
		build: func(o Options) (Analyzer, error) {
			h, err := hierarchyOrFlat(o)
			if err != nil {
				return nil, err
			}
			a, err := NewHardEmbeddedDecisionRules(h, o.Metric, o.Classes)
			if err != nil {
				return nil, err
			}
			return withOutput(a, o.Out), nil
		},
	},
	{
		Name:    "SoftEmbeddedDecisionRules",
		Accepts: ruleOptions,
		build: func(o Options) (Analyzer, error) {
			h, err := hierarchyOrFlat(o)
			if err != nil {
				return nil, err
			}
			a, err := NewSoftEmbeddedDecisionRules(h, o.Metric, o.Classes)
			if err != nil {
				return nil, err
			}
			return withOutput(a, o.Out), nil
		},
	},
}

type outputSetter interface {
	Analyzer
	SetOutput(io.Writer)
}

func withOutput(a outputSetter, w io.Writer) Analyzer {
	if w != nil {
		a.SetOutput(w)
	}
	return a
}

func hierarchyOrFlat(o Options) (*rules.Hierarchy, error) {
	path := o.PathGraph
	if path == "" && o.Dataset != "" {
		path = rules.DefaultGraphPath(o.GraphRoot, o.Dataset)
	}
	if path == "" {
		if o.PathWNIDs != "" {
			return nil, fmt.Errorf("%s needs %s or %s", OptPathWNIDs, OptPathGraph, OptDataset)
		}
		return rules.Flat(o.Classes)
	}
	labels := o.Classes
	if o.PathWNIDs != "" {
		ids, err := rules.LoadWNIDs(o.PathWNIDs)
		if err != nil {
			return nil, err
		}
		if len(ids) != len(o.Classes) {
			return nil, fmt.Errorf("%s: %d ids for %d classes", OptPathWNIDs, len(ids), len(o.Classes))
		}
		labels = ids
	}
	return rules.Load(path, labels)
}

// Lookup returns the variant registered under name.
func Lookup(name string) (Variant, error) {
	for _, v := range variants {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q", ErrUnknownAnalyzer, name)
}

// New builds the named analyzer from opts.
func New(name string, opts Options) (Analyzer, error) {
	v, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	a, err := v.build(opts)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return a, nil
}

// Accepts reports whether the named analyzer reads the option key. Unknown
// analyzers accept nothing.
func Accepts(name, key string) bool {
	v, err := Lookup(name)
	if err != nil {
		return false
	}
	return v.AcceptsOption(key)
}

// Variants lists every registered analyzer in registration order.
func Variants() []Variant {
	return slices.Clone(variants)
}
