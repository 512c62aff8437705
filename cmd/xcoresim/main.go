// Command xcoresim loads a system configuration file describing ports,
// clock blocks, and peripherals, runs the discrete-event scheduler to
// completion, and exits, mirroring the teacher's samples/passthrough
// sample's engine-build-run-exit shape.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"github.com/xcoresim/xcoresim/core"
	_ "github.com/xcoresim/xcoresim/ethernet"
	"github.com/xcoresim/xcoresim/systemconfig"
	_ "github.com/xcoresim/xcoresim/spiflash"
	"github.com/xcoresim/xcoresim/xlog"
)

func main() {
	configPath := flag.String("config", "", "path to a system configuration YAML file")
	maxSteps := flag.Int("max-steps", 1_000_000, "maximum scheduler steps before giving up")
	verbose := flag.Bool("verbose", false, "enable trace-level logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = xlog.LevelTrace
	}
	logger := xlog.New(level)

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "xcoresim: -config is required")
		atexit.Exit(1)
		return
	}

	cfg, err := systemconfig.LoadFile(*configPath)
	if err != nil {
		logger.Error("failed to load system configuration", "error", err)
		atexit.Exit(1)
		return
	}

	scheduler := core.NewRunnableQueue()
	sys, peripherals, err := systemconfig.Build(cfg, scheduler)
	if err != nil {
		logger.Error("failed to build system", "error", err)
		atexit.Exit(1)
		return
	}

	sys.PowerOnAll(0)

	type attacher interface {
		AttachScheduler(q *core.RunnableQueue, t core.Tick)
	}
	for _, p := range peripherals {
		if a, ok := p.(attacher); ok {
			a.AttachScheduler(scheduler, 0)
		}
		logger.Info("attached peripheral", "name", p.PeripheralName())
	}

	scheduler.RunUntilEmpty(*maxSteps)

	logger.Info("simulation complete", "system", sys.Name(), "ticks", scheduler.Now())

	atexit.Exit(0)
}
