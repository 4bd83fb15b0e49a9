package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// installEngine defines the `engine` global in L:
//
//	engine.log.debug|info|warn|error(msg [, fields])
//	engine.dice.roll(expr)  -> {total, sum, modifier, dice = {...}}
//	engine.dice.d20()       -> number
//	engine.dice.percent()   -> number
func (m *Manager) installEngine(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"debug": m.luaLog(zapcore.DebugLevel),
		"info":  m.luaLog(zapcore.InfoLevel),
		"warn":  m.luaLog(zapcore.WarnLevel),
		"error": m.luaLog(zapcore.ErrorLevel),
	}))
	L.SetField(engine, "dice", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"roll":    m.luaRoll,
		"d20":     m.luaSingle((*dice.Roller).D20),
		"percent": m.luaSingle((*dice.Roller).Percent),
	}))
	L.SetGlobal("engine", engine)
}

// luaLog writes msg at lvl. An optional second argument is a table whose
// string keys become log fields.
func (m *Manager) luaLog(lvl zapcore.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)
		fields := []zap.Field{zap.String("source", "lua")}
		if extra := L.OptTable(2, nil); extra != nil {
			extra.ForEach(func(k, v lua.LValue) {
				if key, ok := k.(lua.LString); ok {
					fields = append(fields, zap.String(string(key), v.String()))
				}
			})
		}
		if ce := m.logger.Check(lvl, msg); ce != nil {
			ce.Write(fields...)
		}
		return 0
	}
}

func (m *Manager) luaRoll(L *lua.LState) int {
	expr, err := dice.Parse(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	m.rollMu.Lock()
	res := m.roller.Roll("lua", expr)
	m.rollMu.Unlock()

	faces := L.CreateTable(len(res.Dice), 0)
	for _, d := range res.Dice {
		faces.Append(lua.LNumber(d))
	}
	out := L.NewTable()
	out.RawSetString("total", lua.LNumber(res.Total()))
	out.RawSetString("sum", lua.LNumber(res.Total()-res.Modifier))
	out.RawSetString("modifier", lua.LNumber(res.Modifier))
	out.RawSetString("dice", faces)
	L.Push(out)
	return 1
}

func (m *Manager) luaSingle(roll func(*dice.Roller, string) int) lua.LGFunction {
	return func(L *lua.LState) int {
		m.rollMu.Lock()
		v := roll(m.roller, "lua")
		m.rollMu.Unlock()
		L.Push(lua.LNumber(v))
		return 1
	}
}
