package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// readPassword is a seam over term.ReadPassword.
var readPassword = term.ReadPassword

// input is where commands read their answers from.
type input interface {
	line(label string) (string, error)
	secret(label string) (string, error)
}

// prompter reads answers from a line reader, or from the terminal without
// echo for secrets when stdin is a TTY.
type prompter struct {
	in       *bufio.Reader
	out      io.Writer
	terminal bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{
		in:       bufio.NewReader(in),
		out:      out,
		terminal: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// line prints label and reads one trimmed line. EOF after partial input
// returns the partial line.
func (p *prompter) line(label string) (string, error) {
	if label != "" {
		if _, err := fmt.Fprint(p.out, label+": "); err != nil {
			return "", err
		}
	}
	s, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(s) > 0 {
			return strings.TrimSpace(s), nil
		}
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// secret reads a password. Surrounding whitespace is kept.
func (p *prompter) secret(label string) (string, error) {
	if !p.terminal {
		if _, err := fmt.Fprint(p.out, label+": "); err != nil {
			return "", err
		}
		s, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(s) > 0) {
			return "", err
		}
		return strings.TrimRight(s, "\r\n"), nil
	}

	if _, err := fmt.Fprint(p.out, label+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// linePrompter edits lines on an interactive terminal. History lives only in
// memory and only holds shell commands, never prompt answers.
type linePrompter struct {
	state *liner.State
}

func newLinePrompter() *linePrompter {
	s := liner.NewLiner()
	s.SetCtrlCAborts(true)
	return &linePrompter{state: s}
}

func (p *linePrompter) line(label string) (string, error) {
	s, err := p.state.Prompt(label + ": ")
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (p *linePrompter) secret(label string) (string, error) {
	s, err := p.state.PasswordPrompt(label + ": ")
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	return s, err
}

func (p *linePrompter) remember(entry string) {
	p.state.AppendHistory(entry)
}

func (p *linePrompter) Close() error {
	return p.state.Close()
}
