// Package main is the entry point for the matchsim CLI, which simulates
// duel-based team matches and schedules tournaments.
package main

import "github.com/pable/go-match-sim/cmd"

func main() {
	cmd.Execute()
}
