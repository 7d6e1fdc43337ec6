package transforms

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

// Rule rewrites timepoint fields when its expression matches. Set keys are
// TimePoint field names.
type Rule struct {
	Name string                 `yaml:"name"`
	When string                 `yaml:"when"`
	Set  map[string]interface{} `yaml:"set"`
}

// Env is the variable scope rule expressions are compiled against.
type Env struct {
	ID       string `expr:"id"`
	Name     string `expr:"name"`
	Sequence int    `expr:"sequence"`
}

type compiledRule struct {
	rule    Rule
	program *vm.Program
}

// Engine holds compiled rules ready to run over extracted timepoints.
type Engine struct {
	rules []compiledRule
}

func NewEngine(rules []Rule) (*Engine, error) {
	engine := &Engine{}

	for _, rule := range rules {
		program, err := expr.Compile(rule.When, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("transform rule %q: %w", rule.Name, err)
		}

		engine.rules = append(engine.rules, compiledRule{rule: rule, program: program})
	}

	return engine, nil
}

// Apply runs every rule over every timepoint and returns the rewritten
// slice. Its signature matches the extraction pipeline's transform hook.
func (e *Engine) Apply(timePoints []schedule.TimePoint) []schedule.TimePoint {
	for i := range timePoints {
		for _, compiled := range e.rules {
			env := Env{
				ID:       timePoints[i].ID,
				Name:     timePoints[i].Name,
				Sequence: timePoints[i].Sequence,
			}

			output, err := expr.Run(compiled.program, env)
			if err != nil {
				log.Warn().Err(err).Str("rule", compiled.rule.Name).Msg("Transform rule failed to evaluate")
				continue
			}
			if matched, ok := output.(bool); !ok || !matched {
				continue
			}

			applyFields(&timePoints[i], compiled.rule)
		}
	}

	return timePoints
}

func applyFields(timePoint *schedule.TimePoint, rule Rule) {
	value := reflect.ValueOf(timePoint).Elem()

	for key, fieldValue := range rule.Set {
		field := value.FieldByName(key)
		if !field.IsValid() || !field.CanSet() {
			log.Warn().Str("rule", rule.Name).Str("field", key).Msg("Transform rule targets an unknown field")
			continue
		}

		assigned := reflect.ValueOf(fieldValue)
		if !assigned.Type().AssignableTo(field.Type()) {
			if !assigned.Type().ConvertibleTo(field.Type()) {
				log.Warn().Str("rule", rule.Name).Str("field", key).Msg("Transform rule value has the wrong type")
				continue
			}
			assigned = assigned.Convert(field.Type())
		}

		field.Set(assigned)
	}
}
