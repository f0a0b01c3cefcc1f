package survey

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-olx-prices/parser"
)

// ErrInputClosed is returned when the console input ends before a prompt is
// answered.
var ErrInputClosed = errors.New("survey: input closed")

// Answer is a parsed yes/no reply.
type Answer int

const (
	AnswerUnknown Answer = iota
	AnswerYes
	AnswerNo
)

var answers = map[string]Answer{
	"так": AnswerYes,
	"y":   AnswerYes,
	"yes": AnswerYes,
	"ні":  AnswerNo,
	"n":   AnswerNo,
	"no":  AnswerNo,
}

// ParseAnswer maps a reply to an Answer, ignoring case and surrounding space.
func ParseAnswer(s string) Answer {
	return answers[parser.Lower(strings.TrimSpace(s))]
}

// Prompter reads line answers from the console.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints prompt and returns the trimmed reply. A cancelled ctx ends the
// wait with ctx's error; the Prompter must not be used after that, since the
// pending read still owns the input.
func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, prompt)

	type reply struct {
		line string
		err  error
	}
	read := make(chan reply, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		read <- reply{line: line, err: err}
	}()

	var r reply
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case r = <-read:
	}

	if r.err != nil {
		if errors.Is(r.err, io.EOF) {
			if r.line != "" {
				return strings.TrimSpace(r.line), nil
			}
			return "", ErrInputClosed
		}
		return "", fmt.Errorf("read input: %w", r.err)
	}
	return strings.TrimSpace(r.line), nil
}

// AskYesNo repeats prompt until the reply is a recognised yes or no token.
func (p *Prompter) AskYesNo(ctx context.Context, prompt string) (bool, error) {
	for {
		reply, err := p.Ask(ctx, prompt)
		if err != nil {
			return false, err
		}
		switch ParseAnswer(reply) {
		case AnswerYes:
			return true, nil
		case AnswerNo:
			return false, nil
		}
		fmt.Fprintln(p.out, "Відповідь не розпізнана. Введіть так або ні.")
	}
}

// AskPrice repeats prompt until the reply is blank (nil) or a non-negative
// integer.
func (p *Prompter) AskPrice(ctx context.Context, prompt string) (*int, error) {
	for {
		reply, err := p.Ask(ctx, prompt)
		if err != nil {
			return nil, err
		}
		if reply == "" {
			return nil, nil
		}
		if isDigits(reply) {
			if v, err := strconv.Atoi(reply); err == nil {
				return &v, nil
			}
		}
		fmt.Fprintln(p.out, "Будь ласка, введіть число або залиште порожнім.")
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
