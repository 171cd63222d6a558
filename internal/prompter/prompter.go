// Package prompter reads answers from a person at a terminal.
package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks questions on Out and reads answers from In. Passwords are
// read without echo when In is a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// New returns a Prompter on stdin and stderr, so prompts never mix with
// command output.
func New() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stderr}
}

func (p *Prompter) lines() *bufio.Reader {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	return p.reader
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.lines().ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PromptString prompts user for a string input
func (p *Prompter) PromptString(label string) (string, error) {
	fmt.Fprint(p.Out, label)
	input, err := p.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// PromptPassword prompts user for a password (hidden input). The answer is
// returned as typed.
func (p *Prompter) PromptPassword(label string) (string, error) {
	fmt.Fprint(p.Out, label)

	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytepw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.Out) // New line after password input
		if err != nil {
			return "", err
		}
		return string(bytepw), nil
	}
	return p.readLine()
}

// PromptConfirm prompts user for yes/no confirmation
func (p *Prompter) PromptConfirm(label string) (bool, error) {
	fmt.Fprint(p.Out, label+" (y/n) ")
	input, err := p.readLine()
	if err != nil {
		return false, err
	}

	response := strings.TrimSpace(strings.ToLower(input))
	return response == "y" || response == "yes", nil
}
