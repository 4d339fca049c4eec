package script

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	requirePkg "github.com/dop251/goja_nodejs/require"

	"github.com/machtimer/machtimer/pkg/alarm"
)

// runtime wraps the goja VM with the alarm bindings installed.
type runtime struct {
	*requirePkg.RequireModule
	vm *goja.Runtime
	e  *Engine
}

func newRuntime(e *Engine) (*runtime, error) {
	vm := goja.New()
	registry := new(requirePkg.Registry)
	reqM := registry.Enable(vm)
	console.Enable(vm)

	r := &runtime{RequireModule: reqM, vm: vm, e: e}

	err := vm.Set("print", print)
	if err != nil {
		return nil, err
	}
	err = vm.Set("Alarm", r.newAlarm)
	if err != nil {
		return nil, err
	}
	err = vm.Set("advance", func(call goja.FunctionCall) goja.Value {
		n := call.Argument(0).ToInteger()
		if n < 0 {
			panic(vm.NewTypeError("advance expects a non-negative tick count"))
		}
		e.advance(uint64(n))
		return goja.Undefined()
	})
	if err != nil {
		return nil, err
	}
	err = vm.Set("now", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(e.sched.Now())
	})
	if err != nil {
		return nil, err
	}
	err = vm.Set("active", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(e.sched.Active())
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *runtime) run(name, src string) error {
	_, err := r.vm.RunScript(name, src)
	if err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}

func print(call goja.FunctionCall) goja.Value {
	for i, v := range call.Arguments {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(v.Export())
	}
	fmt.Print("\n")
	return nil
}

// newAlarm is the JS constructor:
//
//	new Alarm(handler, {s: 1.5})
//	new Alarm(handler, {ms: 100, periodic: true, arg: "tag"})
//
// Exactly one of s, ms and us must be given. The returned object
// carries callback(handler, arg), cancel() and the armed()/deadline()
// inspectors; cancel doubles as the teardown hook the embedder calls
// before dropping its last reference.
func (r *runtime) newAlarm(call goja.ConstructorCall) *goja.Object {
	vm := r.vm
	e := r.e
	self := call.This

	handler := r.exportHandler(call.Argument(0), self)

	var d alarm.Duration
	var argVal any
	periodic := false
	if opts := call.Argument(1); !goja.IsUndefined(opts) && !goja.IsNull(opts) {
		obj := opts.ToObject(vm)
		if v := obj.Get("s"); v != nil && !goja.IsUndefined(v) {
			d.Seconds = v.ToFloat()
		}
		if v := obj.Get("ms"); v != nil && !goja.IsUndefined(v) {
			d.Millis = v.ToInteger()
		}
		if v := obj.Get("us"); v != nil && !goja.IsUndefined(v) {
			d.Micros = v.ToInteger()
		}
		if v := obj.Get("periodic"); v != nil && !goja.IsUndefined(v) {
			periodic = v.ToBoolean()
		}
		if v := obj.Get("arg"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
			argVal = v
		}
	}

	a, err := e.sched.NewAlarm(handler, d, argVal, periodic)
	if err != nil {
		panic(vm.NewGoError(err))
	}

	mustSet := func(name string, fn func(goja.FunctionCall) goja.Value) {
		if err := self.Set(name, fn); err != nil {
			panic(vm.NewGoError(err))
		}
	}
	mustSet("callback", func(c goja.FunctionCall) goja.Value {
		h := r.exportHandler(c.Argument(0), self)
		var arg any
		if v := c.Argument(1); !goja.IsUndefined(v) && !goja.IsNull(v) {
			arg = v
		}
		if err := a.Callback(h, arg); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	mustSet("cancel", func(goja.FunctionCall) goja.Value {
		a.Cancel()
		return goja.Undefined()
	})
	mustSet("armed", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(a.Armed())
	})
	mustSet("deadline", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(a.Deadline())
	})
	return nil
}

// exportHandler turns a JS value into an alarm.Handler. null and
// undefined become nil (cancel semantics); anything else must be
// callable. When the core passes the alarm itself as the default
// argument, the handler receives the JS alarm object instead.
func (r *runtime) exportHandler(v goja.Value, self *goja.Object) alarm.Handler {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		panic(r.vm.NewTypeError("alarm handler must be callable"))
	}
	return func(arg any) {
		var jsArg goja.Value
		switch av := arg.(type) {
		case goja.Value:
			jsArg = av
		case *alarm.Alarm:
			jsArg = self
		default:
			jsArg = r.vm.ToValue(arg)
		}
		if _, err := fn(goja.Undefined(), jsArg); err != nil {
			r.e.log.Error("alarm handler threw: %v", err)
		}
	}
}
