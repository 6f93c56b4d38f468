package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Advance a game one duel or one round at a time",
}

var stepDuelCmd = &cobra.Command{
	Use:   "duel <game-id> <round>",
	Short: "Resolve the next duel of a round and print the round state",
	Args:  cobra.ExactArgs(2),
	RunE:  runStep,
}

var stepRoundCmd = &cobra.Command{
	Use:   "round <game-id> <round>",
	Short: "Resolve duels until the round is finished",
	Args:  cobra.ExactArgs(2),
	RunE:  runStep,
}

func init() {
	stepCmd.AddCommand(stepDuelCmd, stepRoundCmd)
}

func runStep(cmd *cobra.Command, args []string) error {
	gameID, err := parseID("game", args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("round %q: %w", args[1], simerr.ErrInvalidInput)
	}

	db, eng, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	var s model.RoundState
	if cmd.Name() == "duel" {
		s, err = eng.StepDuel(cmd.Context(), gameID, n)
	} else {
		s, err = eng.StepRound(cmd.Context(), gameID, n)
	}
	if err != nil {
		return fmt.Errorf("game %d round %d: %w", gameID, n, err)
	}
	printState(s)
	return nil
}
