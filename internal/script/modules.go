package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/texona/internal/canvas"
)

func (r *Runner) openCanvas(L *lua.LState) {
	c := r.session.Canvas()

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		// add{type = "rect", ...} -> id
		"add": func(L *lua.LState) int {
			props, ok := toGo(L.CheckTable(1)).(map[string]any)
			if !ok {
				L.ArgError(1, "expected a table of properties")
			}
			typ, _ := props["type"].(string)
			if typ == "" {
				L.ArgError(1, "type is required")
			}
			delete(props, "type")

			id, err := c.Add(canvas.NewObject(canvas.ObjectType(typ), props))
			if err != nil {
				L.RaiseError("%s", err.Error())
			}
			L.Push(lua.LString(id))
			return 1
		},

		// set(id, key, value); a nil value removes the property.
		"set": func(L *lua.LState) int {
			id := L.CheckString(1)
			key := L.CheckString(2)
			if err := c.Set(id, key, toGo(L.Get(3))); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		},

		"remove": func(L *lua.LState) int {
			if err := c.Remove(L.CheckString(1)); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		},

		// get(id) -> table of properties, get(id, key) -> value
		"get": func(L *lua.LState) int {
			o, ok := c.Get(L.CheckString(1))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			if L.GetTop() >= 2 {
				key := L.CheckString(2)
				if key == "type" {
					L.Push(lua.LString(o.Type))
				} else {
					L.Push(toLua(L, o.Props[key]))
				}
				return 1
			}
			t := toLua(L, o.Props).(*lua.LTable)
			t.RawSetString("type", lua.LString(o.Type))
			t.RawSetString("id", lua.LString(o.ID))
			L.Push(t)
			return 1
		},

		"count": func(L *lua.LState) int {
			L.Push(lua.LNumber(c.Len()))
			return 1
		},

		// ids() -> array of object IDs, bottom first
		"ids": func(L *lua.LState) int {
			objs := c.Objects()
			t := L.CreateTable(len(objs), 0)
			for i, o := range objs {
				t.RawSetInt(i+1, lua.LString(o.ID))
			}
			L.Push(t)
			return 1
		},

		// find(name) -> id or nil
		"find": func(L *lua.LState) int {
			name := L.CheckString(1)
			found := c.Find(func(o *canvas.Object) bool { return o.Name() == name })
			if len(found) == 0 {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(found[0].ID))
			return 1
		},

		"bring_to_front": func(L *lua.LState) int {
			if err := c.BringToFront(L.CheckString(1)); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		},

		"background": func(L *lua.LState) int {
			if L.GetTop() >= 1 {
				c.SetBackground(L.CheckString(1))
				return 0
			}
			L.Push(lua.LString(c.Background()))
			return 1
		},
	})
	L.SetGlobal("canvas", mod)
}

func (r *Runner) openHistory(L *lua.LState) {
	s := r.session

	check := func(L *lua.LState, err error) {
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
	}

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"undo": func(L *lua.LState) int {
			check(L, s.Undo())
			return 0
		},
		"redo": func(L *lua.LState) int {
			check(L, s.Redo())
			return 0
		},
		// save([skip_history])
		"save": func(L *lua.LState) int {
			check(L, s.Save(L.OptBool(1, false)))
			return 0
		},
		"can_undo": func(L *lua.LState) int {
			L.Push(lua.LBool(s.CanUndo()))
			return 1
		},
		"can_redo": func(L *lua.LState) int {
			L.Push(lua.LBool(s.CanRedo()))
			return 1
		},
		"index": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.Status().Index))
			return 1
		},
		"len": func(L *lua.LState) int {
			L.Push(lua.LNumber(s.Status().Len))
			return 1
		},
		// batch(name, fn) records every edit fn makes as one step.
		"batch": func(L *lua.LState) int {
			name := L.CheckString(1)
			fn := L.CheckFunction(2)
			err := s.Batch(name, func() error {
				return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
			})
			check(L, err)
			return 0
		},
	})
	L.SetGlobal("history", mod)
}
