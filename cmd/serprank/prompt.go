package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/FranksOps/serprank/internal/pipeline"
)

// errNoInput is returned when stdin closes before a required answer.
var errNoInput = errors.New("no input")

// prompter asks for values the flags, env and config file left unset.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// String prints label and returns the trimmed answer. An empty answer is an
// error since every prompted value is required.
func (p *prompter) String(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line != "" {
		return line, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), errNoInput)
	}
	return "", fmt.Errorf("%s: answer required", strings.TrimSuffix(strings.TrimSpace(label), ":"))
}

// Rows prompts for a row count, a non-negative number or "all".
func (p *prompter) Rows(label string) (string, error) {
	s, err := p.String(label)
	if err != nil {
		return "", err
	}
	if _, err := pipeline.ParseRowLimit(s); err != nil {
		return "", err
	}
	return s, nil
}

// Columns lists the header the way the prompts refer to it.
func (p *prompter) Columns(cols []string) {
	fmt.Fprintln(p.out, "Columns available in the file:")
	for i, c := range cols {
		fmt.Fprintf(p.out, "%d: %s\n", i, c)
	}
}
