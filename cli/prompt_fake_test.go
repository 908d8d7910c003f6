package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// scriptedPrompts answers prompts by message. A prompt with no queued answer
// takes its default.
type scriptedPrompts struct {
	t        *testing.T
	inputs   map[string][]string
	selects  map[string][]int
	multi    map[string][][]int
	confirms map[string][]bool
	infos    []string
	asked    []string
}

func newScriptedPrompts(t *testing.T) *scriptedPrompts {
	return &scriptedPrompts{
		t:        t,
		inputs:   map[string][]string{},
		selects:  map[string][]int{},
		multi:    map[string][][]int{},
		confirms: map[string][]bool{},
	}
}

func (p *scriptedPrompts) input(message string, answers ...string) *scriptedPrompts {
	p.inputs[message] = append(p.inputs[message], answers...)
	return p
}

func (p *scriptedPrompts) choose(message string, answers ...int) *scriptedPrompts {
	p.selects[message] = append(p.selects[message], answers...)
	return p
}

func (p *scriptedPrompts) pick(message string, answer ...int) *scriptedPrompts {
	p.multi[message] = append(p.multi[message], answer)
	return p
}

func (p *scriptedPrompts) confirm(message string, answers ...bool) *scriptedPrompts {
	p.confirms[message] = append(p.confirms[message], answers...)
	return p
}

func (p *scriptedPrompts) Input(ctx context.Context, cfg InputConfig) (string, error) {
	p.asked = append(p.asked, cfg.Message)
	answer := cfg.Default
	if q := p.inputs[cfg.Message]; len(q) > 0 {
		answer, p.inputs[cfg.Message] = q[0], q[1:]
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", fmt.Errorf("answer %q to %q rejected: %w", answer, cfg.Message, err)
		}
	}
	return answer, nil
}

func (p *scriptedPrompts) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	p.asked = append(p.asked, cfg.Message)
	if len(p.asked) > 500 {
		p.t.Fatalf("prompt loop did not end; last prompt %q", cfg.Message)
	}
	answer := cfg.Default
	if q := p.selects[cfg.Message]; len(q) > 0 {
		answer, p.selects[cfg.Message] = q[0], q[1:]
	}
	if answer < 0 || answer >= len(cfg.Options) {
		return 0, fmt.Errorf("answer %d out of range for %q", answer, cfg.Message)
	}
	return answer, nil
}

func (p *scriptedPrompts) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	p.asked = append(p.asked, cfg.Message)
	answer := cfg.Defaults
	if q := p.multi[cfg.Message]; len(q) > 0 {
		answer, p.multi[cfg.Message] = q[0], q[1:]
	}
	return answer, nil
}

func (p *scriptedPrompts) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	p.asked = append(p.asked, cfg.Message)
	answer := cfg.Default
	if q := p.confirms[cfg.Message]; len(q) > 0 {
		answer, p.confirms[cfg.Message] = q[0], q[1:]
	}
	return answer, nil
}

func (p *scriptedPrompts) Info(ctx context.Context, msg string) error {
	p.infos = append(p.infos, msg)
	return nil
}

func (p *scriptedPrompts) sawInfo(substr string) bool {
	for _, msg := range p.infos {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func (p *scriptedPrompts) timesAsked(message string) int {
	n := 0
	for _, m := range p.asked {
		if m == message {
			n++
		}
	}
	return n
}
