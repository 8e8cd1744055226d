package main

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pavanmanishd/pktmem"
	"github.com/pavanmanishd/pktmem/internal/workload"
	"github.com/pavanmanishd/pktmem/scope"
)

var (
	runScope   string
	runBackend string
	runWorkers int
	runPackets int
	runSeed    uint64
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runScope, "scope", scope.UnitOfWork, "Scope whose pool decodes packets")
	cmd.Flags().StringVar(&runBackend, "backend", "", "Override the scope's backend (block, block-fast, simple, strict)")
	cmd.Flags().IntVarP(&runWorkers, "workers", "w", 4, "Concurrent workers, each with private pools")
	cmd.Flags().IntVarP(&runPackets, "packets", "n", workload.DefaultOptions.Packets, "Packets per worker")
	cmd.Flags().Uint64Var(&runSeed, "seed", workload.DefaultOptions.Seed, "Seed of the first worker")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the workload on concurrent workers",
		Long: `The run command starts one worker per --workers. Each worker spawns
a private session pool and a private pool for the chosen scope, dissects its
packets, and reports pool statistics.

Example:
  poolbench run
  poolbench run --backend strict --workers 8 -n 10000
  poolbench run --config scopes.yaml --scope capture --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun()
		},
	}
}

type workerResult struct {
	Worker  int           `json:"worker"`
	Backend string        `json:"backend"`
	Packets int           `json:"packets"`
	Fields  int           `json:"fields"`
	Bytes   int           `json:"bytes"`
	Digest  string        `json:"digest"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Stats   pktmem.Stats  `json:"stats"`
}

func runRun() error {
	if runWorkers <= 0 {
		return errors.Newf("--workers must be positive, got %d", runWorkers)
	}
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	unit, err := reg.Spec(runScope)
	if err != nil {
		return err
	}
	if runBackend != "" {
		unit.Backend = runBackend
	}
	if _, _, err := unit.PoolConfig(nil); err != nil {
		return err
	}

	results := make([]workerResult, runWorkers)
	var g errgroup.Group
	for w := range runWorkers {
		g.Go(func() error {
			opts := workload.Options{Packets: runPackets, Seed: runSeed + uint64(w)}
			r, err := runWorker(reg, unit, opts)
			if err != nil {
				return errors.Wrapf(err, "worker %d", w)
			}
			r.Worker = w
			results[w] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(results)
	}
	for _, r := range results {
		printInfo("worker %d  %-10s  %6d packets  %7d fields  %5d segments  util %5.1f%%  %v  digest %s\n",
			r.Worker, r.Backend, r.Packets, r.Fields, r.Stats.Segments,
			100*r.Stats.Utilization, r.Elapsed.Round(time.Microsecond), r.Digest)
	}
	return nil
}

// runWorker runs one workload on private pools. Fatal pool panics come back
// as errors.
func runWorker(reg *scope.Registry, unit scope.Spec, opts workload.Options) (res workerResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = poolPanic(r)
		}
	}()

	session, err := reg.Spawn(scope.Session)
	if err != nil {
		return res, err
	}
	defer session.Destroy()

	kind, cfg, err := unit.PoolConfig(logger())
	if err != nil {
		return res, err
	}
	p := pktmem.NewPool(kind, cfg)
	defer p.Destroy()

	start := time.Now()
	out := workload.Run(session, p, opts)
	res = workerResult{
		Backend: kind.String(),
		Packets: out.Packets,
		Fields:  out.Fields,
		Bytes:   out.Bytes,
		Digest:  fmt.Sprintf("%016x", out.Digest),
		Elapsed: time.Since(start),
		Stats:   p.Stats(),
	}
	return res, nil
}

func poolPanic(r any) error {
	switch v := r.(type) {
	case *pktmem.IntegrityError:
		return errors.Wrap(v, "pool integrity violation")
	case *pktmem.ExhaustedError:
		return errors.Wrap(v, "pool exhausted")
	case error:
		return errors.Wrap(v, "panic")
	}
	return errors.Newf("panic: %v", r)
}
