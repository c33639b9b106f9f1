package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable game formulas.
// Single-goroutine access only (game loop). Every hook is optional: a missing
// function or a script error falls back to the caller's default.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// Core helpers first, then feature scripts
	for _, sub := range []string{"core", "orders", "spawn"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasFunc reports whether a global Lua function is defined.
func (e *Engine) HasFunc(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// OrderRewardContext is packed for calc_order_reward.
type OrderRewardContext struct {
	OrderID    string
	Kind       string
	Tier       int
	Quantity   int
	BaseReward int
	Fulfilled  int // orders completed before this one
	Coins      int // wallet total before payout
}

// CalcOrderReward calls calc_order_reward(ctx). The base reward is paid when
// the hook is absent, fails, or returns a negative amount.
func (e *Engine) CalcOrderReward(ctx OrderRewardContext) int {
	fn, ok := e.vm.GetGlobal("calc_order_reward").(*lua.LFunction)
	if !ok {
		return ctx.BaseReward
	}

	t := e.vm.NewTable()
	t.RawSetString("order_id", lua.LString(ctx.OrderID))
	t.RawSetString("kind", lua.LString(ctx.Kind))
	t.RawSetString("tier", lua.LNumber(ctx.Tier))
	t.RawSetString("quantity", lua.LNumber(ctx.Quantity))
	t.RawSetString("base_reward", lua.LNumber(ctx.BaseReward))
	t.RawSetString("fulfilled", lua.LNumber(ctx.Fulfilled))
	t.RawSetString("coins", lua.LNumber(ctx.Coins))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_order_reward error", zap.Error(err))
		return ctx.BaseReward
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok || math.IsNaN(float64(n)) || n < 0 || n > math.MaxInt32 {
		e.log.Warn("lua calc_order_reward returned invalid amount",
			zap.String("value", result.String()))
		return ctx.BaseReward
	}
	return int(n)
}

// SpawnContext is packed for pick_spawn.
type SpawnContext struct {
	Candidates []string
	EmptyCells int
	TotalCells int
	Roll       float64 // uniform [0,1) from the game's seeded RNG
}

// PickSpawn calls pick_spawn(ctx) and returns the chosen kind id. An empty
// string means "use the default choice"; so does any answer that is not one
// of the candidates.
func (e *Engine) PickSpawn(ctx SpawnContext) string {
	fn, ok := e.vm.GetGlobal("pick_spawn").(*lua.LFunction)
	if !ok {
		return ""
	}

	t := e.vm.NewTable()
	cands := e.vm.NewTable()
	for _, c := range ctx.Candidates {
		cands.Append(lua.LString(c))
	}
	t.RawSetString("candidates", cands)
	t.RawSetString("empty_cells", lua.LNumber(ctx.EmptyCells))
	t.RawSetString("total_cells", lua.LNumber(ctx.TotalCells))
	t.RawSetString("roll", lua.LNumber(ctx.Roll))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua pick_spawn error", zap.Error(err))
		return ""
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	s, ok := result.(lua.LString)
	if !ok {
		return ""
	}
	for _, c := range ctx.Candidates {
		if c == string(s) {
			return c
		}
	}
	e.log.Warn("lua pick_spawn returned unknown kind", zap.String("kind", string(s)))
	return ""
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
