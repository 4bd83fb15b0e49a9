// Package ai chooses monster actions. Built-in strategies cover aggressive,
// defensive and random behaviour; content may add Hierarchical Task Network (HTN)
// domains whose method preconditions are Lua hooks and whose operators map to
// combat actions.
package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// RootTask is the task every plan starts from.
const RootTask = "behave"

// Task is an abstract goal that methods decompose.
type Task struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Method decomposes a task into subtasks or operators. Precondition names a Lua
// function; empty means always applicable.
type Method struct {
	TaskID       string   `yaml:"task"`
	ID           string   `yaml:"id"`
	Precondition string   `yaml:"precondition"`
	Subtasks     []string `yaml:"subtasks"`
}

// Operator actions.
const (
	OpAttack  = "attack"
	OpDefend  = "defend"
	OpCast    = "cast"
	OpUseItem = "use_item"
)

// Target tokens resolved against a WorldState.
const (
	TargetWeakestEnemy = "weakest_enemy"
	TargetThreat       = "threat"
	TargetFirstEnemy   = "first_enemy"
	TargetWeakestAlly  = "weakest_ally"
	TargetSelf         = "self"
)

var validTargets = map[string]bool{
	"":                 true,
	TargetWeakestEnemy: true,
	TargetThreat:       true,
	TargetFirstEnemy:   true,
	TargetWeakestAlly:  true,
	TargetSelf:         true,
}

// Operator is a primitive step that becomes one combat action. Spell is
// required for cast and Item for use_item. An empty Target leaves targeting to
// the engine (defend and area effects).
type Operator struct {
	ID     string `yaml:"id"`
	Action string `yaml:"action"`
	Target string `yaml:"target"`
	Spell  string `yaml:"spell"`
	Item   string `yaml:"item"`
}

func (op *Operator) validate() error {
	var errs []error
	if op.ID == "" {
		errs = append(errs, errors.New("operator id must not be empty"))
	}
	switch op.Action {
	case OpAttack, OpDefend:
	case OpCast:
		if op.Spell == "" {
			errs = append(errs, fmt.Errorf("operator %q: cast requires a spell", op.ID))
		}
	case OpUseItem:
		if op.Item == "" {
			errs = append(errs, fmt.Errorf("operator %q: use_item requires an item", op.ID))
		}
	default:
		errs = append(errs, fmt.Errorf("operator %q: unknown action %q", op.ID, op.Action))
	}
	if !validTargets[op.Target] {
		errs = append(errs, fmt.Errorf("operator %q: unknown target %q", op.ID, op.Target))
	}
	return errors.Join(errs...)
}

// Domain is one named HTN behaviour. Its ID doubles as the strategy name that
// monster templates refer to.
//
// Invariant: after Validate, task, method and operator IDs are unique, the
// root task exists and every subtask names a task or an operator.
type Domain struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Tasks       []*Task     `yaml:"tasks"`
	Methods     []*Method   `yaml:"methods"`
	Operators   []*Operator `yaml:"operators"`
}

// Validate reports every structural problem in the domain at once.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("ai domain: id must not be empty")
	}
	var errs []error
	tasks := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		switch {
		case t.ID == "":
			errs = append(errs, errors.New("task id must not be empty"))
		case tasks[t.ID]:
			errs = append(errs, fmt.Errorf("duplicate task %q", t.ID))
		}
		tasks[t.ID] = true
	}
	if !tasks[RootTask] {
		errs = append(errs, fmt.Errorf("root task %q is missing", RootTask))
	}
	ops := make(map[string]bool, len(d.Operators))
	for _, op := range d.Operators {
		if err := op.validate(); err != nil {
			errs = append(errs, err)
		}
		if ops[op.ID] {
			errs = append(errs, fmt.Errorf("duplicate operator %q", op.ID))
		}
		if tasks[op.ID] {
			errs = append(errs, fmt.Errorf("operator %q shadows a task", op.ID))
		}
		ops[op.ID] = true
	}
	methods := make(map[string]bool, len(d.Methods))
	for _, m := range d.Methods {
		if m.ID == "" {
			errs = append(errs, errors.New("method id must not be empty"))
		} else if methods[m.ID] {
			errs = append(errs, fmt.Errorf("duplicate method %q", m.ID))
		}
		methods[m.ID] = true
		if !tasks[m.TaskID] {
			errs = append(errs, fmt.Errorf("method %q: unknown task %q", m.ID, m.TaskID))
		}
		if len(m.Subtasks) == 0 {
			errs = append(errs, fmt.Errorf("method %q: subtasks must not be empty", m.ID))
		}
		for _, sub := range m.Subtasks {
			if !tasks[sub] && !ops[sub] {
				errs = append(errs, fmt.Errorf("method %q: subtask %q is neither a task nor an operator", m.ID, sub))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("ai domain %q: %w", d.ID, err)
	}
	return nil
}

// OperatorByID returns the operator with the given ID.
func (d *Domain) OperatorByID(id string) (*Operator, bool) {
	for _, op := range d.Operators {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// MethodsForTask returns the methods that decompose taskID, in declaration order.
func (d *Domain) MethodsForTask(taskID string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}

type domainFile struct {
	Domain *Domain `yaml:"domain"`
}

// LoadDomains reads every *.yaml file in dir, in name order, each holding one
// top-level `domain:`.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns an error on the first unreadable, invalid or
// duplicate domain; an empty directory yields no domains and no error.
func LoadDomains(dir string) ([]*Domain, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("ai: listing %q: %w", dir, err)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("ai: reading %q: %w", dir, err)
	}
	sort.Strings(paths)

	var domains []*Domain
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ai: reading %s: %w", path, err)
		}
		var f domainFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("ai: parsing %s: %w", path, err)
		}
		if f.Domain == nil {
			return nil, fmt.Errorf("ai: %s has no top-level %q key", path, "domain")
		}
		if err := f.Domain.Validate(); err != nil {
			return nil, fmt.Errorf("ai: %s: %w", filepath.Base(path), err)
		}
		if prev, dup := seen[f.Domain.ID]; dup {
			return nil, fmt.Errorf("ai: domain %q defined in both %s and %s",
				f.Domain.ID, filepath.Base(prev), filepath.Base(path))
		}
		seen[f.Domain.ID] = path
		domains = append(domains, f.Domain)
	}
	return domains, nil
}
