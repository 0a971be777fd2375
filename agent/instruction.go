package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/tourmesh/core"
)

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(*core.RunContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.RunContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ic *core.RunContext) (string, error) { return f(ic) }

// Instruction is either a static instruction string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether the instruction has neither text nor provider.
func (i Instruction) IsZero() bool { return i.text == "" && i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(ctx *core.RunContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx)
	}
	return i.text, nil
}

// Concat joins the resolved text of several instructions with blank lines.
// Empty parts are skipped.
func Concat(parts ...Instruction) Instruction {
	return NewInstructionFromFunc(func(rc *core.RunContext) (string, error) {
		texts := make([]string, 0, len(parts))
		for i, p := range parts {
			text, err := p.Resolve(rc)
			if err != nil {
				return "", fmt.Errorf("instruction part %d: %w", i, err)
			}
			if strings.TrimSpace(text) != "" {
				texts = append(texts, text)
			}
		}
		return strings.Join(texts, "\n\n"), nil
	})
}
