package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ ENTITY NOT FOUND: Documnt
//	   No entity matches 'Documnt'.
//
//	   Did you mean: Document?
//
//	   → List entities: conceptgen inspect
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "ℹ️"
	default:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	}

	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	// Details are preformatted and printed verbatim, indented
	if opts.Details != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimRight(opts.Details, "\n"), "\n") {
			bodyColor.Fprintf(&b, "   %s\n", line)
		}
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// GenerateError formats a failed generation run. Compiler errors carry their
// code and declaring location.
func GenerateError(err error, noColor bool) string {
	problem := "Concept model generation failed."
	if details, ok := cerrors.Details(err); ok {
		problem = fmt.Sprintf("%s error %s.", details.Category, details.Code)
	}
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "GENERATE FAILED",
		Problem: problem,
		Details: cerrors.FormatErrorList(err),
		HelpCommands: []string{
			"Machine-readable output: conceptgen generate --json",
			"Get help: conceptgen generate --help",
		},
		NoColor: noColor,
	})
}

// EntityNotFoundError creates a standardized entity not found error
func EntityNotFoundError(prefix string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "ENTITY NOT FOUND",
		Problem:     fmt.Sprintf("No entity matches '%s'.", prefix),
		Suggestions: suggestions,
		HelpCommands: []string{
			"List entities: conceptgen inspect",
			"Get help: conceptgen inspect --help",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"Create a config: conceptgen init",
			"View config: cat conceptgen.yml",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}
