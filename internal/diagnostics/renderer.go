package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/esp-lang/espcore/internal/source"
)

// Renderer formats diagnostics for a terminal (cargo-style, with a span
// underline) or for machine consumption (JSON), one dual human/JSON
// rendering surface for a multi-diagnostic, span-aware
// report.
type Renderer struct {
	Color bool
	doc   *source.Document
}

// NewRenderer builds a Renderer. color, when nil, is decided by checking
// whether w is an interactive terminal (via go-isatty).
func NewRenderer(w io.Writer, doc *source.Document, color *bool) *Renderer {
	c := false
	if color != nil {
		c = *color
	} else if f, ok := w.(interface{ Fd() uintptr }); ok {
		c = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Renderer{Color: c, doc: doc}
}

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorBlue   = "\x1b[34m"
	colorBold   = "\x1b[1m"
)

func (r *Renderer) paint(code, s string) string {
	if !r.Color {
		return s
	}
	return code + s + colorReset
}

func severityLabel(sev Severity) string {
	switch sev {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "debug"
	}
}

// Human renders one diagnostic as a cargo-style report: a colored
// "severity[code]: message" header, the offending source line, and a
// caret-underline beneath the span.
func (r *Renderer) Human(d Diagnostic) string {
	var sb strings.Builder

	label := severityLabel(d.Severity)
	color := colorBlue
	switch d.Severity {
	case SeverityError:
		color = colorRed
	case SeverityWarning:
		color = colorYellow
	}

	header := fmt.Sprintf("%s[%s]: %s", label, d.Code, d.Message)
	sb.WriteString(r.paint(colorBold+color, header))
	sb.WriteString("\n")

	if d.Span != nil {
		sb.WriteString(fmt.Sprintf("  --> %s\n", d.Span.String()))
		if r.doc != nil {
			line := r.doc.LineText(d.Span.Start.Line)
			if line != nil {
				sb.WriteString(fmt.Sprintf("%5d | %s\n", d.Span.Start.Line, line))
				pad := strings.Repeat(" ", d.Span.Start.Column-1)
				width := d.Span.End.Column - d.Span.Start.Column
				if d.Span.End.Line != d.Span.Start.Line || width < 1 {
					width = 1
				}
				caret := strings.Repeat("^", width)
				sb.WriteString(fmt.Sprintf("      | %s%s\n", pad, r.paint(colorBold+color, caret)))
			}
		}
	}

	for _, c := range d.Context {
		sb.WriteString(fmt.Sprintf("      = %s: %s\n", c.Key, c.Value))
	}
	if d.Remediation != "" {
		sb.WriteString(fmt.Sprintf("      = help: %s\n", d.Remediation))
	}
	return sb.String()
}

// jsonDiagnostic is the machine-readable rendering of one diagnostic,
// carrying severity and span alongside code and message.
type jsonDiagnostic struct {
	Code        string    `json:"code"`
	Severity    string    `json:"severity"`
	Message     string    `json:"message"`
	Span        string    `json:"span,omitempty"`
	Context     []Context `json:"context,omitempty"`
	Remediation string    `json:"remediation,omitempty"`
}

// JSON renders the full diagnostic list as a JSON array, for tooling that
// consumes espc output programmatically.
func JSON(items []Diagnostic) (string, error) {
	out := make([]jsonDiagnostic, 0, len(items))
	for _, d := range items {
		jd := jsonDiagnostic{
			Code: d.Code, Severity: string(d.Severity), Message: d.Message,
			Context: d.Context, Remediation: d.Remediation,
		}
		if d.Span != nil {
			jd.Span = d.Span.String()
		}
		out = append(out, jd)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RenderAll writes the human-readable form of every diagnostic to w,
// followed by a one-line summary count.
func (r *Renderer) RenderAll(w io.Writer, items []Diagnostic) {
	var errs, warns int
	for _, d := range items {
		fmt.Fprint(w, r.Human(d))
		switch d.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		}
	}
	if errs > 0 || warns > 0 {
		fmt.Fprintf(w, "%d error(s), %d warning(s)\n", errs, warns)
	}
}
