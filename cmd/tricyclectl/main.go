// Command tricyclectl is a diagnostic tool for inspecting and driving a
// local tricycle session: rotate tubes, record completions, and dump the
// scheduler state backed by a SQLite snapshot store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tricycle-learn/tricycle"
	"github.com/tricycle-learn/tricycle/content"
	"github.com/tricycle-learn/tricycle/persist"
)

var (
	flagDB       string
	flagUser     string
	flagManifest string
	flagVerbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tricyclectl",
		Short: "Diagnostic tool for tricycle tube-cycling sessions",
		Long: `tricyclectl drives a local tricycle session against a SQLite snapshot
store: show the current tube and ready stitch, rotate, record completions,
and simulate learning runs.`,
		SilenceUsage: true,
	}

	home, _ := os.UserHomeDir()
	rootCmd.PersistentFlags().StringVar(&flagDB, "db",
		filepath.Join(home, ".tricycle", "state.db"), "snapshot database path")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "local", "user ID for snapshots")
	rootCmd.PersistentFlags().StringVar(&flagManifest, "manifest", "",
		"content manifest (YAML or JSON) used to seed a fresh session")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log scheduler internals")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(rotateCmd())
	rootCmd.AddCommand(completeCmd())
	rootCmd.AddCommand(selectCmd())
	rootCmd.AddCommand(simulateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type session struct {
	sched *tricycle.Scheduler
	gate  *tricycle.Gate
	coord *persist.Coordinator
}

func openSession() (*session, error) {
	durable, err := persist.NewSQLiteStore(flagDB, flagUser)
	if err != nil {
		return nil, err
	}
	coord, err := persist.NewCoordinator(persist.CoordinatorConfig{
		Fast:    persist.NewMemoryStore(flagUser),
		Durable: durable,
		Logger:  logger(),
	})
	if err != nil {
		return nil, err
	}

	cfg := tricycle.Config{UserID: flagUser, Logger: logger()}

	var sched *tricycle.Scheduler
	snap, err := coord.Load(context.Background())
	switch {
	case err == nil:
		sched, err = tricycle.Restore(*snap, cfg)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, persist.ErrNoSnapshot):
		if flagManifest == "" {
			return nil, fmt.Errorf("no saved session at %s; seed one with --manifest", flagDB)
		}
		manifest, err := content.LoadFile(flagManifest)
		if err != nil {
			return nil, err
		}
		cfg.Threads = manifest
		sched, err = tricycle.New(cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	gate := tricycle.NewGate(tricycle.GateConfig{
		Scheduler: sched,
		Persister: coord,
		Logger:    logger(),
	})
	return &session{sched: sched, gate: gate, coord: coord}, nil
}

// close drains deferred work and runs the teardown flush.
func (s *session) close() {
	s.gate.Wait()
	s.coord.Flush(s.gate.Snapshot())
	_ = s.coord.Close()
}

func logger() *log.Logger {
	if flagVerbose {
		return log.New(os.Stderr, "[tricycle] ", log.Ltime)
	}
	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active tube, cycle count, and per-tube progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()
			printStatus(s.sched)
			return nil
		},
	}
}

func rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Advance the active tube and show the new ready stitch",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()
			next := s.gate.Rotate()
			if next == nil {
				color.Yellow("rotation produced no ready stitch")
				return nil
			}
			fmt.Printf("tube %s  ready %s\n",
				color.CyanString("%d", s.sched.CurrentTube()),
				color.GreenString(next.ID))
			return nil
		},
	}
}

func completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <thread> <stitch> <score> <total>",
		Short: "Record a finished question set and rotate",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("score: %w", err)
			}
			total, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("total: %w", err)
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()
			next := s.gate.Complete(args[0], args[1], score, total)
			s.gate.Wait()
			if next == nil {
				color.Yellow("completion discarded")
				return nil
			}
			fmt.Printf("next: tube %s  stitch %s\n",
				color.CyanString("%d", s.sched.CurrentTube()),
				color.GreenString(next.ID))
			return nil
		},
	}
}

func selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <tube>",
		Short: "Force the active tube (1-3)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("tube: %w", err)
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()
			if !s.gate.SelectTube(n) {
				return fmt.Errorf("%w: %d (want 1-%d)", tricycle.ErrInvalidTube, n, tricycle.TubeCount)
			}
			printStatus(s.sched)
			return nil
		},
	}
}

func simulateCmd() *cobra.Command {
	var imperfectEvery int
	cmd := &cobra.Command{
		Use:   "simulate <n>",
		Short: "Drive n perfect completions through the rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("n must be a positive integer")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()
			for i := 0; i < n; i++ {
				cur := s.sched.CurrentStitch()
				if cur == nil {
					break
				}
				score := 20
				if imperfectEvery > 0 && (i+1)%imperfectEvery == 0 {
					score = 15
				}
				s.sched.Complete(cur.ThreadID, cur.ID, score, 20)
				s.sched.Rotate()
			}
			s.coord.Save(s.sched.Snapshot())
			printStatus(s.sched)
			return nil
		},
	}
	cmd.Flags().IntVar(&imperfectEvery, "imperfect-every", 0,
		"make every nth completion imperfect (0 = all perfect)")
	return cmd
}

func printStatus(s *tricycle.Scheduler) {
	fmt.Printf("user %s  cycle %d  active tube %s\n",
		s.UserID(), s.CycleCount(), color.CyanString("%d", s.CurrentTube()))
	progress := s.Progress()
	for n := 1; n <= tricycle.TubeCount; n++ {
		p := progress[n]
		marker := "  "
		if n == s.CurrentTube() {
			marker = color.CyanString("→ ")
		}
		fmt.Printf("%stube %d  %-20s %d stitches, %d mastered\n",
			marker, n, p.ThreadID, p.Total, p.Mastered)
	}
	if ready := s.CurrentStitch(); ready != nil {
		fmt.Printf("ready: %s (skip %d, %s)\n",
			color.GreenString(ready.ID), ready.SkipInterval, ready.Level)
	} else {
		color.Yellow("no ready stitch")
	}
}
