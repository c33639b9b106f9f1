package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mergeplay/mergeplay/internal/render"
	"github.com/mergeplay/mergeplay/internal/system"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

// parseCommand turns one console line into input events. Coordinates are
// grid cells; they are converted to the world position of the cell centre.
//
//	drag X0 Y0 X1 Y1   lift at one cell and drop at another
//	order N            fulfill order slot N (1-based)
//	spawn [N]          random spawn, or the N-th spawnable kind
//	cancel
//	quit
func parseCommand(line string, grid *world.Grid) (evs []system.InputEvent, quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false, nil
	}
	args, err := atoiAll(fields[1:])
	if err != nil {
		return nil, false, err
	}
	switch fields[0] {
	case "drag":
		if len(args) != 4 {
			return nil, false, fmt.Errorf("drag needs 4 numbers, got %d", len(args))
		}
		from := grid.ToWorld(args[0], args[1])
		to := grid.ToWorld(args[2], args[3])
		return []system.InputEvent{
			{Kind: system.InputPointerDown, Pos: from},
			{Kind: system.InputPointerMove, Pos: to},
			{Kind: system.InputPointerUp, Pos: to},
		}, false, nil
	case "order":
		if len(args) != 1 || args[0] < 1 {
			return nil, false, fmt.Errorf("order needs a slot number from 1")
		}
		return []system.InputEvent{{Kind: system.InputOrderClick, Index: args[0] - 1}}, false, nil
	case "spawn":
		switch len(args) {
		case 0:
			return []system.InputEvent{{Kind: system.InputSpawnRandom}}, false, nil
		case 1:
			return []system.InputEvent{{Kind: system.InputSpawnIndex, Index: args[0] - 1}}, false, nil
		}
		return nil, false, fmt.Errorf("spawn takes at most one number")
	case "cancel":
		return []system.InputEvent{{Kind: system.InputCancel}}, false, nil
	case "quit", "exit":
		return nil, true, nil
	}
	return nil, false, fmt.Errorf("unknown command %q", fields[0])
}

func atoiAll(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		out[i] = n
	}
	return out, nil
}

// runConsole feeds line commands from r into the input queue until quit,
// EOF or ctx is cancelled.
func runConsole(ctx context.Context, r io.Reader, grid *world.Grid, sink render.InputSink, quit func(), log *zap.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		evs, stop, err := parseCommand(sc.Text(), grid)
		if err != nil {
			log.Warn("console command rejected", zap.Error(err))
			continue
		}
		if stop {
			quit()
			return
		}
		for _, ev := range evs {
			sink.Push(ev)
		}
	}
	if err := sc.Err(); err != nil {
		log.Warn("console read failed", zap.Error(err))
	}
}
