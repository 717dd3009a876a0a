package analyzer

import (
	"fmt"
	"os"
	"strings"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/src-d/go-errors.v1"

	"gopkg.in/src-d/go-dips.v0/sql"
)

const debugAnalyzerKey = "DEBUG_ANALYZER"

const maxAnalysisIterations = 1000

// ErrMaxAnalysisIters is thrown when the analysis iterations are exceeded
var ErrMaxAnalysisIters = errors.NewKind("exceeded max analysis iterations (%d)")

// Builder provides an easy way to generate Analyzer with custom rules and options.
type Builder struct {
	preAnalyzeRules  []Rule
	postAnalyzeRules []Rule
	config           *Config
	rootSelector     RootSelector
	metrics          *Metrics
	debug            bool
}

// NewBuilder creates a new Builder. Unless a configuration is given, it's
// loaded from the environment.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithDebug activates debug on the Analyzer.
func (ab *Builder) WithDebug() *Builder {
	ab.debug = true

	return ab
}

// WithConfig sets the configuration of the Analyzer. The environment is not
// read when a configuration is given.
func (ab *Builder) WithConfig(c Config) *Builder {
	ab.config = &c

	return ab
}

// WithRootSelector sets the strategy used to choose the root of every join
// graph, overriding the one of the configuration.
func (ab *Builder) WithRootSelector(s RootSelector) *Builder {
	ab.rootSelector = s

	return ab
}

// WithMetrics sets the metrics updated by the Analyzer.
func (ab *Builder) WithMetrics(m *Metrics) *Builder {
	ab.metrics = m

	return ab
}

// AddPreAnalyzeRule adds a new rule to the analyze before the standard analyzer rules.
func (ab *Builder) AddPreAnalyzeRule(name string, fn RuleFunc) *Builder {
	ab.preAnalyzeRules = append(ab.preAnalyzeRules, Rule{name, fn})

	return ab
}

// AddPostAnalyzeRule adds a new rule to the analyzer after standard analyzer rules.
func (ab *Builder) AddPostAnalyzeRule(name string, fn RuleFunc) *Builder {
	ab.postAnalyzeRules = append(ab.postAnalyzeRules, Rule{name, fn})

	return ab
}

// Build creates a new Analyzer using all previous data setted to the Builder.
// It fails when the configured root strategy is unknown.
func (ab *Builder) Build() (*Analyzer, error) {
	var config Config
	if ab.config != nil {
		config = *ab.config
	} else {
		config = DefaultConfig().WithEnv()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	selector := ab.rootSelector
	if selector == nil {
		selector = RootSelectorFor(config.RootStrategy)
	}

	metrics := ab.metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	_, debug := os.LookupEnv(debugAnalyzerKey)
	var batches = []*Batch{
		{
			Desc:       "pre-analyzer",
			Iterations: maxAnalysisIterations,
			Rules:      ab.preAnalyzeRules,
		},
		{
			Desc:       "once-before",
			Iterations: 1,
			Rules:      OnceBeforeDefault,
		},
		{
			Desc:       "once-after",
			Iterations: 1,
			Rules:      OnceAfterDefault,
		},
		{
			Desc:       "post-analyzer",
			Iterations: maxAnalysisIterations,
			Rules:      ab.postAnalyzeRules,
		},
	}

	return &Analyzer{
		Debug:        debug || ab.debug || config.Debug,
		debugCtx:     make([]string, 0),
		Batches:      batches,
		Config:       config,
		RootSelector: selector,
		Metrics:      metrics,
	}, nil
}

// Analyzer analyzes nodes of the execution plan and applies rules and validations
// to them.
type Analyzer struct {
	// Debug enables logging of the analysis and of the pruning results.
	Debug bool
	// Verbose prints the plan after every batch.
	Verbose  bool
	debugCtx []string
	// Batches of Rules to apply.
	Batches []*Batch
	// Config of the chunk pruning.
	Config Config
	// RootSelector chooses the root of every join graph.
	RootSelector RootSelector
	// Metrics updated by the rules.
	Metrics *Metrics
}

// NewDefault creates a default Analyzer instance with all default Rules and
// configuration read from the environment.
func NewDefault() (*Analyzer, error) {
	return NewBuilder().Build()
}

// Log prints an INFO message to stdout with the given message and args
// if the analyzer is in debug mode.
func (a *Analyzer) Log(msg string, args ...interface{}) {
	if a != nil && a.Debug {
		if len(a.debugCtx) > 0 {
			ctx := strings.Join(a.debugCtx, "/")
			logrus.Infof("%s: "+msg, append([]interface{}{ctx}, args...)...)
		} else {
			logrus.Infof(msg, args...)
		}
	}
}

// LogFields is like Log, with the given fields attached to the entry.
func (a *Analyzer) LogFields(fields logrus.Fields, msg string, args ...interface{}) {
	if a != nil && a.Debug {
		entry := logrus.WithFields(fields)
		if len(a.debugCtx) > 0 {
			entry = entry.WithField("analyzer", strings.Join(a.debugCtx, "/"))
		}
		entry.Infof(msg, args...)
	}
}

// LogNode prints the node given if Verbose logging is enabled.
func (a *Analyzer) LogNode(n sql.Node) {
	if a != nil && n != nil && a.Verbose {
		if len(a.debugCtx) > 0 {
			ctx := strings.Join(a.debugCtx, "/")
			fmt.Printf("%s:\n%s\n", ctx, n.String())
		} else {
			fmt.Printf("%s\n", n.String())
		}
	}
}

// PushDebugContext pushes the given context string onto the context stack, to use when logging debug messages.
func (a *Analyzer) PushDebugContext(msg string) {
	if a != nil && a.Debug {
		a.debugCtx = append(a.debugCtx, msg)
	}
}

// PopDebugContext pops a context message off the context stack.
func (a *Analyzer) PopDebugContext() {
	if a != nil && len(a.debugCtx) > 0 {
		a.debugCtx = a.debugCtx[:len(a.debugCtx)-1]
	}
}

// Analyze the node and all its children.
func (a *Analyzer) Analyze(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	span, ctx := ctx.Span("analyze", opentracing.Tags{
		"plan": n.String(),
	})

	prev := n
	var err error
	a.Log("starting analysis of node of type: %T", n)
	for _, batch := range a.Batches {
		a.PushDebugContext(batch.Desc)
		prev, err = batch.Eval(ctx, a, prev)
		a.LogNode(prev)
		a.PopDebugContext()
		if ErrMaxAnalysisIters.Is(err) {
			a.Log(err.Error())
			continue
		}
		if err != nil {
			span.Finish()
			return nil, err
		}
	}

	defer func() {
		if prev != nil {
			span.SetTag("IsResolved", prev.Resolved())
		}
		span.Finish()
	}()

	return prev, err
}

type equaler interface {
	Equal(sql.Node) bool
}
