package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrNonInteractive is returned when input is needed but stdin is not a terminal
var ErrNonInteractive = errors.New("stdin is not a terminal")

// Prompter asks the user for input
type Prompter interface {
	Input(label, defaultValue string) (string, error)
	Password(label string) (string, error)
	Select(label string, items []string) (int, error)
	Confirm(label string) (bool, error)
}

type terminalPrompter struct{}

func NewTerminalPrompter() Prompter {
	return terminalPrompter{}
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (terminalPrompter) Input(label, defaultValue string) (string, error) {
	if !interactive() {
		return "", ErrNonInteractive
	}
	prompt := promptui.Prompt{Label: label, Default: defaultValue}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("input cancelled: %w", err)
	}
	return value, nil
}

func (terminalPrompter) Password(label string) (string, error) {
	if !interactive() {
		return "", ErrNonInteractive
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

func (terminalPrompter) Select(label string, items []string) (int, error) {
	if !interactive() {
		return 0, ErrNonInteractive
	}
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
		Size: 10,
	}
	index, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}

func (terminalPrompter) Confirm(label string) (bool, error) {
	if !interactive() {
		return false, ErrNonInteractive
	}
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}

// confirm asks before a destructive action unless yes is already set
func confirm(p Prompter, yes bool, label string) error {
	if yes {
		return nil
	}
	ok, err := p.Confirm(label)
	if errors.Is(err, ErrNonInteractive) {
		return errors.New("refusing to delete without confirmation (use --yes)")
	}
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("aborted")
	}
	return nil
}
