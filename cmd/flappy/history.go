package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/platform/tui"
	"github.com/vovakirdan/flappy-neat/internal/storage"
)

var (
	flagHistoryTUI   bool
	flagHistoryLimit int
	flagClearScores  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [session]",
	Short: "Show high scores and training sessions",
	Long: `Display manual high scores and recent training sessions. With a session
id (or a unique prefix of one), list every generation of that session.

Examples:
  flappy history
  flappy history 3f2a9c1e
  flappy history --tui
  flappy history --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&flagHistoryTUI, "tui", false, "Browse history interactively")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Rows per section")
	historyCmd.Flags().BoolVar(&flagClearScores, "clear", false, "Delete all manual scores")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer store.Close()

	switch {
	case flagClearScores:
		if err := store.ClearScores(string(config.ModeManual)); err != nil {
			return fmt.Errorf("history: %w", err)
		}
		fmt.Println("Manual scores cleared.")
		return nil

	case flagHistoryTUI:
		rt := runtimeConfig(config.Default(config.ModeManual))
		_, err := tui.RunHistory(store, rt.ScreenW, rt.ScreenH)
		return err

	case len(args) == 1:
		return printSession(store, args[0])
	}

	if err := printScores(store); err != nil {
		return err
	}
	fmt.Println()
	return printSessions(store)
}

func printScores(store *storage.Store) error {
	mode := string(config.ModeManual)
	scores, err := store.TopScores(mode, flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	fmt.Println("High Scores")
	fmt.Println()
	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println("Play 'flappy play' to set the first high score!")
		return nil
	}

	fmt.Printf("  %-4s  %-7s  %-9s  %s\n", "Rank", "Score", "Ticks", "When")
	fmt.Printf("  %-4s  %-7s  %-9s  %s\n", "----", "-----", "-----", "----")
	for i, s := range scores {
		fmt.Printf("  %-4d  %-7d  %-9s  %s\n", i+1, s.Score, humanize.Comma(int64(s.Ticks)), humanize.Time(s.CreatedAt))
	}

	stats, err := store.Stats(mode)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	fmt.Println()
	fmt.Printf("Runs: %s  Average: %.1f  Total ticks: %s  Last played: %s\n",
		humanize.Comma(int64(stats.Runs)), stats.AvgScore,
		humanize.Comma(stats.TotalTicks), humanize.Time(stats.LastPlayed))
	return nil
}

func printSessions(store *storage.Store) error {
	sessions, err := store.Sessions(flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	fmt.Println("Training Sessions")
	fmt.Println()
	if len(sessions) == 0 {
		fmt.Println("No training sessions yet.")
		fmt.Println("Run 'flappy train' to start one!")
		return nil
	}

	fmt.Printf("  %-8s  %-5s  %-9s  %-5s  %s\n", "Session", "Gens", "Best fit", "Score", "Finished")
	fmt.Printf("  %-8s  %-5s  %-9s  %-5s  %s\n", "-------", "----", "--------", "-----", "--------")
	for _, s := range sessions {
		fmt.Printf("  %-8s  %-5d  %-9.2f  %-5d  %s\n",
			tui.ShortSession(s.Session), s.Generations, s.BestFitness, s.BestScore, humanize.Time(s.Finished))
	}
	return nil
}

// findSession resolves a session id or a unique prefix of one.
func findSession(store *storage.Store, prefix string) (string, error) {
	sessions, err := store.Sessions(1000)
	if err != nil {
		return "", fmt.Errorf("history: %w", err)
	}
	var match []string
	for _, s := range sessions {
		if s.Session == prefix {
			return s.Session, nil
		}
		if strings.HasPrefix(s.Session, prefix) {
			match = append(match, s.Session)
		}
	}
	switch len(match) {
	case 0:
		return "", fmt.Errorf("history: no session matches %q", prefix)
	case 1:
		return match[0], nil
	default:
		return "", fmt.Errorf("history: session prefix %q matches %d sessions", prefix, len(match))
	}
}

func printSession(store *storage.Store, prefix string) error {
	session, err := findSession(store, prefix)
	if err != nil {
		return err
	}
	gens, err := store.Generations(session)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	fmt.Printf("Session %s\n", session)
	fmt.Println()
	fmt.Printf("  %-4s  %-4s  %-5s  %-5s  %-7s  %-8s  %-8s  %s\n",
		"Gen", "Pop", "Alive", "Score", "Ticks", "Best", "Mean", "Outcome")
	fmt.Printf("  %-4s  %-4s  %-5s  %-5s  %-7s  %-8s  %-8s  %s\n",
		"---", "---", "-----", "-----", "-----", "----", "----", "-------")
	for _, g := range gens {
		fmt.Printf("  %-4d  %-4d  %-5d  %-5d  %-7s  %-8.2f  %-8.2f  %s\n",
			g.Generation, g.Population, g.Survivors, g.Score,
			humanize.Comma(int64(g.Ticks)), g.BestFitness, g.MeanFitness, g.Outcome)
	}
	if len(gens) > 0 {
		fmt.Println()
		fmt.Printf("Started %s\n", humanize.Time(gens[0].CreatedAt))
	}
	return nil
}
