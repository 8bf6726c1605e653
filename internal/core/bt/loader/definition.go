// Package loader builds behavior trees from YAML or JSON definitions.
//
// A definition nests nodes directly:
//
//	name: guard
//	blackboard:
//	  alert: false
//	root:
//	  type: Selector
//	  children:
//	    - type: Condition
//	      call: IsTrue
//	      params: {key: alert}
//	    - type: Wait
//	      duration: 500ms
//
// Action and Condition leaves name a factory in a Registry through call.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/behave/internal/core/bt"
)

var (
	ErrUnknownType       = errors.New("unknown node type")
	ErrUnknownCall       = errors.New("unknown call")
	ErrInvalidNode       = errors.New("invalid node")
	ErrMissingParam      = errors.New("missing parameter")
	ErrNoRoot            = errors.New("definition has no root")
	ErrUnsupportedFormat = errors.New("unsupported definition format")
)

// Definition describes one tree.
type Definition struct {
	Name string `json:"name" yaml:"name"`
	// Blackboard holds initial values. Booleans, integers, floats and strings map to
	// their typed setters; anything else is stored as an object.
	Blackboard map[string]any `json:"blackboard,omitempty" yaml:"blackboard,omitempty"`
	Root       *NodeDef       `json:"root" yaml:"root"`
}

// NodeDef describes one node and, recursively, its subtree.
type NodeDef struct {
	Type     string     `json:"type" yaml:"type"`
	Name     string     `json:"name,omitempty" yaml:"name,omitempty"`
	Children []*NodeDef `json:"children,omitempty" yaml:"children,omitempty"`
	Child    *NodeDef   `json:"child,omitempty" yaml:"child,omitempty"`
	// Call names the registry factory of an Action or Condition.
	Call   string `json:"call,omitempty" yaml:"call,omitempty"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
	// Policy of a Parallel: "one" (default) or "all".
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`
	// Count of a Repeat, 0 meaning forever.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`
	// Duration of a Wait, e.g. "1.5s".
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// LoadYAML decodes a definition from YAML.
func LoadYAML(r io.Reader) (*Definition, error) {
	var d Definition
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(err, "decode yaml definition")
	}
	return &d, nil
}

// LoadJSON decodes a definition from JSON. Numbers keep their integer-ness.
func LoadJSON(r io.Reader) (*Definition, error) {
	var d Definition
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(err, "decode json definition")
	}
	return &d, nil
}

// LoadFile picks the decoder by file extension.
func LoadFile(path string) (*Definition, error) {
	var load func(io.Reader) (*Definition, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		load = LoadYAML
	case ".json":
		load = LoadJSON
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open definition %s", path)
	}
	defer f.Close()

	d, err := load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return d, nil
}

// BuildRoot instantiates the node graph. Every call builds fresh nodes.
func (d *Definition) BuildRoot(reg *Registry) (bt.Node, error) {
	if d.Root == nil {
		return nil, ErrNoRoot
	}
	return buildNode(d.Root, reg, "root")
}

// BuildTree builds the root and a tree named after the definition with its blackboard
// seeded. opts are applied after the name, so they may override it.
func (d *Definition) BuildTree(reg *Registry, opts ...bt.Option) (*bt.BehaviorTree, error) {
	root, err := d.BuildRoot(reg)
	if err != nil {
		return nil, errors.Wrapf(err, "build tree %q", d.Name)
	}
	tree := bt.New(root, append([]bt.Option{bt.WithName(d.Name)}, opts...)...)
	Seed(tree.Blackboard(), d.Blackboard)
	return tree, nil
}

// Seed writes initial values into bb.
func Seed(bb *bt.Blackboard, values map[string]any) {
	for key, v := range values {
		switch val := v.(type) {
		case bool:
			bb.SetBool(key, val)
		case string:
			bb.SetString(key, val)
		case float64:
			bb.SetFloat(key, val)
		case json.Number:
			if i, err := val.Int64(); err == nil {
				bb.SetInt(key, int(i))
			} else if f, err := val.Float64(); err == nil {
				bb.SetFloat(key, f)
			} else {
				bb.SetString(key, val.String())
			}
		default:
			if i, ok := toInt(val); ok {
				bb.SetInt(key, i)
				continue
			}
			bb.SetObject(key, val)
		}
	}
}

func buildNode(def *NodeDef, reg *Registry, path string) (bt.Node, error) {
	if def == nil {
		return nil, errors.Wrapf(ErrInvalidNode, "%s: empty node", path)
	}

	switch kind := strings.ToLower(def.Type); kind {
	case "sequence", "selector", "parallel":
		if def.Child != nil {
			return nil, errors.Wrapf(ErrInvalidNode, "%s: %s takes children, not child", path, def.Type)
		}
		children := make([]bt.Node, 0, len(def.Children))
		for i, c := range def.Children {
			child, err := buildNode(c, reg, fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		switch kind {
		case "sequence":
			return bt.NewSequence(def.Name, children...), nil
		case "selector":
			return bt.NewSelector(def.Name, children...), nil
		default:
			policy, err := parsePolicy(def.Policy)
			if err != nil {
				return nil, errors.Wrapf(err, "%s", path)
			}
			return bt.NewParallel(def.Name, policy, children...), nil
		}

	case "invert", "repeat", "forcesucceed", "forcefail":
		childDef, err := singleChild(def)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		child, err := buildNode(childDef, reg, path+".child")
		if err != nil {
			return nil, err
		}
		switch kind {
		case "invert":
			return bt.NewInvert(def.Name, child), nil
		case "repeat":
			if def.Count < 0 {
				return nil, errors.Wrapf(ErrInvalidNode, "%s: negative repeat count %d", path, def.Count)
			}
			return bt.NewRepeat(def.Name, def.Count, child), nil
		case "forcesucceed":
			return bt.NewForceSucceed(def.Name, child), nil
		default:
			return bt.NewForceFail(def.Name, child), nil
		}

	case "action", "condition", "wait":
		if len(def.Children) > 0 || def.Child != nil {
			return nil, errors.Wrapf(ErrInvalidNode, "%s: leaf %s cannot have children", path, def.Type)
		}
		switch kind {
		case "action":
			fn, err := reg.NewAction(def.Call, def.Params)
			if err != nil {
				return nil, errors.Wrapf(err, "%s", path)
			}
			return bt.NewAction(nameOr(def.Name, def.Call), fn), nil
		case "condition":
			fn, err := reg.NewCondition(def.Call, def.Params)
			if err != nil {
				return nil, errors.Wrapf(err, "%s", path)
			}
			return bt.NewCondition(nameOr(def.Name, def.Call), fn), nil
		default:
			d, err := parseDuration(def.Duration)
			if err != nil {
				return nil, errors.Wrapf(err, "%s", path)
			}
			return bt.NewWait(def.Name, d), nil
		}

	default:
		return nil, errors.Wrapf(ErrUnknownType, "%s: %q", path, def.Type)
	}
}

func singleChild(def *NodeDef) (*NodeDef, error) {
	switch {
	case def.Child != nil && len(def.Children) == 0:
		return def.Child, nil
	case def.Child == nil && len(def.Children) == 1:
		return def.Children[0], nil
	default:
		return nil, errors.Wrapf(ErrInvalidNode, "decorator %s needs exactly one child", def.Type)
	}
}

func parsePolicy(s string) (bt.Policy, error) {
	switch strings.ToLower(s) {
	case "", "one", "any", "requireone":
		return bt.RequireOne, nil
	case "all", "requireall":
		return bt.RequireAll, nil
	default:
		return 0, errors.Wrapf(ErrInvalidNode, "unknown parallel policy %q", s)
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.Wrap(ErrMissingParam, "wait requires a duration")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidNode, "bad duration %q", s)
	}
	if d < 0 {
		return 0, errors.Wrapf(ErrInvalidNode, "negative duration %s", s)
	}
	return d, nil
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
