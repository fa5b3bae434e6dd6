package traversal

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Step is an uncompiled stage: a pipetype name and its arguments, as produced
// by a query front end.
type Step struct {
	Pipetype string
	Args     []any
}

func (s Step) String() string {
	var sb strings.Builder
	sb.WriteString(s.Pipetype)
	sb.WriteByte('(')
	for i, arg := range s.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(formatArg(arg))
	}
	sb.WriteByte(')')
	return sb.String()
}

func formatArg(arg any) string {
	switch v := arg.(type) {
	case string:
		return strconv.Quote(v)
	case nil:
		return "null"
	}
	if reflect.TypeOf(arg).Kind() == reflect.Func {
		return "func"
	}
	return fmt.Sprintf("%v", arg)
}

// Stage is a pipetype bound to its arguments, its handler and its private state.
type Stage struct {
	index    int
	step     Step
	handler  Handler
	state    StageState
	reported int

	invocations prometheus.Counter
}

// Pipetype returns the name of the stage's pipetype.
func (s *Stage) Pipetype() string {
	return s.step.Pipetype
}

// Args returns the stage arguments.
func (s *Stage) Args() []any {
	return s.step.Args
}

// Program is a compiled, ordered list of stages for one execution. Stages
// consume their working sets destructively, so a Program can only be driven
// once; compile the steps again to re-run a query.
type Program struct {
	stages []*Stage
	bound  bool
}

// Compile resolves every step against r. An unknown pipetype aborts
// compilation before anything runs.
func Compile(r *Registry, steps []Step) (*Program, error) {
	stages := make([]*Stage, 0, len(steps))
	for i, step := range steps {
		h, err := r.Lookup(step.Pipetype)
		if err != nil {
			return nil, fmt.Errorf("failed to compile stage %d: %w", i, err)
		}

		stages = append(stages, &Stage{
			index:       i,
			step:        step,
			handler:     h,
			invocations: pipetypeInvocationCounter.WithLabelValues(step.Pipetype),
		})
	}

	return &Program{stages: stages}, nil
}

// Len returns the number of stages.
func (p *Program) Len() int {
	return len(p.stages)
}

// Stage returns the i-th stage.
func (p *Program) Stage(i int) *Stage {
	return p.stages[i]
}

// String renders the program as a method chain, e.g. vertex("A").out("knows").
func (p *Program) String() string {
	parts := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		parts = append(parts, s.step.String())
	}
	return strings.Join(parts, ".")
}
