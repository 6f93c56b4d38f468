package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/scheduler"
)

var (
	serveInterval time.Duration
	serveMax      int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the match scheduler until interrupted",
	Long: `Poll for due matches and play each one in the background, never more than
--max at a time.

Signals:
  SIGINT, SIGTERM  stop polling and wait for running matches
  SIGUSR1          pause: no new matches are launched
  SIGUSR2          resume
  SIGHUP           print status`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "poll interval (default MATCHSIM_POLL_INTERVAL)")
	serveCmd.Flags().IntVar(&serveMax, "max", 0, "concurrent matches (default MATCHSIM_MAX_CONCURRENT_MATCHES)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveInterval > 0 {
		cfg.PollInterval = serveInterval
	}
	if serveMax > 0 {
		cfg.MaxConcurrentMatches = serveMax
	}

	db, eng, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	sched, err := scheduler.New(db, eng, scheduler.Config{
		Interval:      cfg.PollInterval,
		MaxConcurrent: cfg.MaxConcurrentMatches,
		BatchLimit:    cfg.DueBatchLimit,
	}, slog.Default())
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGHUP)
	defer signal.Stop(sigs)

	if err := sched.Start(); err != nil {
		return err
	}
	cGreeting.Printf("matchsim scheduler on %s\n", cfg.DBPath)
	cMuted.Printf("polling every %s, at most %d matches at once\n", cfg.PollInterval, cfg.MaxConcurrentMatches)

	for sig := range sigs {
		switch sig {
		case syscall.SIGUSR1:
			sched.Pause()
			printStatus(sched.Status())
		case syscall.SIGUSR2:
			sched.Resume()
			printStatus(sched.Status())
		case syscall.SIGHUP:
			printStatus(sched.Status())
		default:
			cWarn.Printf("%s received, waiting for %d running matches\n", sig, sched.Status().Active)
			if err := sched.Stop(); err != nil {
				return fmt.Errorf("stop scheduler: %w", err)
			}
			return nil
		}
	}
	return nil
}

func printStatus(st scheduler.Status) {
	state := cWinner.Sprint("running")
	if st.Paused {
		state = cWarn.Sprint("paused")
	}
	fmt.Printf("%s  %d/%d matches active\n", state, st.Active, st.Max)
}
