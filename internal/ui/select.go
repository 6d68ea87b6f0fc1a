// Package ui holds the interactive prompts: numeric option selection for
// licenses and wizard steps, and the full-screen search UI.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrCanceled is returned when the user declines to choose.
var ErrCanceled = errors.New("selection canceled")

// PromptChoice prints a numbered option list and returns the index of the
// option the user picked. Pressing Enter with no input cancels.
func PromptChoice(prompt string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options to select")
	}

	fmt.Println(prompt)
	for i, opt := range options {
		fmt.Printf("%2d) %s\n", i+1, opt)
	}
	fmt.Print("Select a number or press Enter to cancel: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return 0, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, ErrCanceled
	}

	idx, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("invalid selection: %s", line)
	}
	if idx < 1 || idx > len(options) {
		return 0, fmt.Errorf("selection out of range: %d", idx)
	}
	return idx - 1, nil
}

// PromptLine reads one line, returning fallback on empty input.
func PromptLine(label, fallback string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(label + ": ")
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}

// PromptFloat reads a decimal value, reprompting on bad input. An empty
// line returns fallback when hasFallback is set.
func PromptFloat(label string, fallback float64, hasFallback bool) (float64, error) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(label + ": ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" && hasFallback {
			return fallback, nil
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Println("Enter a number.")
			continue
		}
		return v, nil
	}
}

// PromptConfirm asks a yes/no question; only "y"/"yes" confirm.
func PromptConfirm(label string) (bool, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(label + " [y/N]: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes", nil
}
