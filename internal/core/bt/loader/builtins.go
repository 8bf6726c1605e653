package loader

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// RegisterBuiltins installs the blackboard-oriented leaves every tree file can use.
// logger receives the output of the Log action; nil discards it.
func RegisterBuiltins(r *Registry, logger log.Log) {
	if logger == nil {
		logger = log.NewNop()
	}

	// Actions
	r.RegisterAction("Noop", func(Params) (bt.ActionFunc, error) {
		return func(*bt.Blackboard, time.Duration) bt.Status { return bt.StatusSuccess }, nil
	})

	r.RegisterAction("Fail", func(Params) (bt.ActionFunc, error) {
		return func(*bt.Blackboard, time.Duration) bt.Status { return bt.StatusFailure }, nil
	})

	r.RegisterAction("SetBool", func(p Params) (bt.ActionFunc, error) {
		key, err := p.RequireString("SetBool", "key")
		if err != nil {
			return nil, err
		}
		val, _ := p.Bool("value")
		return func(bb *bt.Blackboard, _ time.Duration) bt.Status {
			bb.SetBool(key, val)
			return bt.StatusSuccess
		}, nil
	})

	r.RegisterAction("SetInt", func(p Params) (bt.ActionFunc, error) {
		key, err := p.RequireString("SetInt", "key")
		if err != nil {
			return nil, err
		}
		val, _ := p.Int("value")
		return func(bb *bt.Blackboard, _ time.Duration) bt.Status {
			bb.SetInt(key, val)
			return bt.StatusSuccess
		}, nil
	})

	r.RegisterAction("SetFloat", func(p Params) (bt.ActionFunc, error) {
		key, err := p.RequireString("SetFloat", "key")
		if err != nil {
			return nil, err
		}
		val, _ := p.Float("value")
		return func(bb *bt.Blackboard, _ time.Duration) bt.Status {
			bb.SetFloat(key, val)
			return bt.StatusSuccess
		}, nil
	})

	r.RegisterAction("SetString", func(p Params) (bt.ActionFunc, error) {
		key, err := p.RequireString("SetString", "key")
		if err != nil {
			return nil, err
		}
		val, _ := p.String("value")
		return func(bb *bt.Blackboard, _ time.Duration) bt.Status {
			bb.SetString(key, val)
			return bt.StatusSuccess
		}, nil
	})

	r.RegisterAction("AddInt", func(p Params) (bt.ActionFunc, error) {
		key, err := p.RequireString("AddInt", "key")
		if err != nil {
			return nil, err
		}
		delta, ok := p.Int("delta")
		if !ok {
			delta = 1
		}
		return func(bb *bt.Blackboard, _ time.Duration) bt.Status {
			bb.SetInt(key, bb.GetInt(key, 0)+delta)
			return bt.StatusSuccess
		}, nil
	})

	r.RegisterAction("Remove", func(p Params) (bt.ActionFunc, error) {
		key, err := p.RequireString("Remove", "key")
		if err != nil {
			return nil, err
		}
		return func(bb *bt.Blackboard, _ time.Duration) bt.Status {
			bb.Remove(key)
			return bt.StatusSuccess
		}, nil
	})

	r.RegisterAction("Log", func(p Params) (bt.ActionFunc, error) {
		msg, err := p.RequireString("Log", "msg")
		if err != nil {
			return nil, err
		}
		key, _ := p.String("key")
		return func(bb *bt.Blackboard, _ time.Duration) bt.Status {
			if key == "" {
				logger.Info(msg)
				return bt.StatusSuccess
			}
			value, kind, _ := bb.Lookup(key)
			logger.Info(msg, log.String("key", key), log.Stringer("kind", kind), log.Any("value", value))
			return bt.StatusSuccess
		}, nil
	})

	// Conditions
	r.RegisterCondition("IsTrue", func(p Params) (bt.ConditionFunc, error) {
		key, err := p.RequireString("IsTrue", "key")
		if err != nil {
			return nil, err
		}
		return func(bb *bt.Blackboard) bool { return bb.GetBool(key, false) }, nil
	})

	r.RegisterCondition("HasKey", func(p Params) (bt.ConditionFunc, error) {
		key, err := p.RequireString("HasKey", "key")
		if err != nil {
			return nil, err
		}
		return func(bb *bt.Blackboard) bool { return bb.Has(key) }, nil
	})

	r.RegisterCondition("IntAtLeast", func(p Params) (bt.ConditionFunc, error) {
		key, err := p.RequireString("IntAtLeast", "key")
		if err != nil {
			return nil, err
		}
		limit, ok := p.Int("value")
		if !ok {
			return nil, errors.Wrap(ErrMissingParam, "IntAtLeast requires integer \"value\"")
		}
		return func(bb *bt.Blackboard) bool {
			kind, ok := bb.KindOf(key)
			return ok && kind == bt.KindInt && bb.GetInt(key, 0) >= limit
		}, nil
	})

	r.RegisterCondition("StringEquals", func(p Params) (bt.ConditionFunc, error) {
		key, err := p.RequireString("StringEquals", "key")
		if err != nil {
			return nil, err
		}
		want, _ := p.String("value")
		return func(bb *bt.Blackboard) bool {
			kind, ok := bb.KindOf(key)
			return ok && kind == bt.KindString && bb.GetString(key, "") == want
		}, nil
	})
}
