package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vzhv/internal/diag"
	"vzhv/internal/simhal"
	"vzhv/internal/vcpu"
)

// guestProgram is one canned guest-privileged instruction to feed through
// Emulate, named for which dispatch rule it is meant to exercise.
type guestProgram struct {
	name  string
	instr uint32
}

// A small fixed instruction stream touching every dispatch rule in
// internal/vcpu's emulation table at least once: WAIT, MTC0 Status, MTC0
// SRSCtl, MTC0 Count, MFC0 PRId, MFC0 SRSCtl, MFC0 PerfCtl0, and an
// unsupported CACHE op.
var demoProgram = []guestProgram{
	{"wait", 0x42000020},
	{"mtc0-status", 0x408C6000},
	{"mtc0-srsctl", 0x408C601B},
	{"mtc0-count", 0x40884800},
	{"mfc0-prid", 0x400E7800},
	{"mfc0-srsctl", 0x40066002},
	{"mfc0-perfctl0", 0x400EC800},
	{"cache-unsupported", 0xBC000000},
}

func main() {
	var (
		guests     int
		shadowSets int
		verbose    bool
		ticks      int
	)

	root := &cobra.Command{
		Use:   "vzhv-sim",
		Short: "Round-robin VCPU world-switch and trap-emulation demo",
		Long: `vzhv-sim boots a small number of VCPUs against an in-memory simulated
board (internal/simhal) and round-robin schedules them across a single Hart,
running ContextSave, ContextRestore, and a canned guest-privileged
instruction stream through Emulate on every tick.

It exists to give the vcpu package a runnable, observable caller; it is not
itself part of the hypervisor's production boot path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), guests, shadowSets, ticks, verbose)
		},
	}

	root.Flags().IntVarP(&guests, "guests", "g", 2, "number of VCPUs to schedule")
	root.Flags().IntVarP(&shadowSets, "shadow-sets", "s", 4, "number of simulated shadow GPR sets")
	root.Flags().IntVarP(&ticks, "ticks", "t", 3, "number of round-robin ticks to run")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, guests, shadowSets, ticks int, verbose bool) error {
	if guests <= 0 {
		return fmt.Errorf("guests must be > 0")
	}
	if shadowSets <= 0 {
		return fmt.Errorf("shadow-sets must be > 0")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := diag.New(os.Stdout, level)

	board := simhal.NewBoard(shadowSets)
	hart := vcpu.NewHart(board, log)

	vcpus := make([]*vcpu.VCPU, guests)
	for i := 0; i < guests; i++ {
		id := uint32(i + 1)
		shadow := uint32(i % shadowSets)
		entry := uint32(0x80000000 + i*0x1000)
		vcpus[i] = vcpu.New(id, shadow, entry)
		vcpus[i].CP0.Status = 0x1234FF00 // Status seed, installed by the first ContextRestore
		log.Info("vcpu created", "vcpu_id", id, "shadow_set", shadow, "entry", entry)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for tick := 0; tick < ticks; tick++ {
		select {
		case <-ctx.Done():
			log.Info("interrupted, stopping")
			return nil
		default:
		}

		v := vcpus[tick%len(vcpus)]
		log.Info("world switch", "tick", tick, "vcpu_id", v.ID)

		hart.ContextSave()
		hart.Bind(v)
		hart.ContextRestore()

		prog := demoProgram[tick%len(demoProgram)]
		board.InjectTrap(prog.instr)
		hart.Emulate(v.PC)
		log.Info("emulated guest trap", "vcpu_id", v.ID, "rule", prog.name)
	}

	hart.ContextSave()
	log.Info("demo complete", "board", board.String())
	return nil
}
