package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pavanmanishd/pktmem"
	"github.com/pavanmanishd/pktmem/internal/workload"
)

var (
	diffPackets int
	diffSeed    uint64
	diffChecks  bool
)

func init() {
	cmd := newDiffCmd()
	cmd.Flags().IntVarP(&diffPackets, "packets", "n", workload.DefaultOptions.Packets, "Packets to dissect")
	cmd.Flags().Uint64Var(&diffSeed, "seed", workload.DefaultOptions.Seed, "Workload seed")
	cmd.Flags().BoolVar(&diffChecks, "checks", true, "Enable integrity checks on every backend")
	rootCmd.AddCommand(cmd)
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Check that every backend computes the same workload digest",
		Long: `The diff command runs the same workload on every backend and compares
each digest with the one computed on the simple backend, which allocates
straight from the Go runtime.

Example:
  poolbench diff
  poolbench diff -n 50000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff()
		},
	}
}

type diffRow struct {
	Backend string `json:"backend"`
	Digest  string `json:"digest"`
	Match   bool   `json:"match"`
}

var diffKinds = []pktmem.Kind{pktmem.KindSimple, pktmem.KindBlock, pktmem.KindBlockFast, pktmem.KindStrict}

func runDiff() error {
	opts := workload.Options{Packets: diffPackets, Seed: diffSeed}
	checks := pktmem.ChecksOff
	if diffChecks {
		checks = pktmem.ChecksOn
	}

	var rows []diffRow
	var want uint64
	mismatches := 0
	for i, kind := range diffKinds {
		got, err := digestOn(kind, checks, opts)
		if err != nil {
			return errors.Wrapf(err, "backend %s", kind)
		}
		if i == 0 {
			want = got
		}
		row := diffRow{Backend: kind.String(), Digest: fmt.Sprintf("%016x", got), Match: got == want}
		if !row.Match {
			mismatches++
		}
		rows = append(rows, row)
	}

	if jsonOut {
		if err := printJSON(rows); err != nil {
			return err
		}
	} else {
		for _, r := range rows {
			mark := "ok"
			if !r.Match {
				mark = "MISMATCH"
			}
			printInfo("%-10s  %s  %s\n", r.Backend, r.Digest, mark)
		}
	}
	if mismatches > 0 {
		return errors.Newf("%d backend(s) disagree with %s", mismatches, diffKinds[0])
	}
	return nil
}

func digestOn(kind pktmem.Kind, checks pktmem.CheckMode, opts workload.Options) (digest uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = poolPanic(r)
		}
	}()
	cfg := &pktmem.Config{Checks: checks, Logger: logger()}
	session := pktmem.NewPool(kind, &pktmem.Config{Name: "session", Checks: checks, Logger: cfg.Logger})
	defer session.Destroy()
	cfg.Name = "unit"
	unit := pktmem.NewPool(kind, cfg)
	defer unit.Destroy()
	return workload.Run(session, unit, opts).Digest, nil
}
