package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// FormatError returns a human-readable error message for terminal output.
// Errors outside the compiler taxonomy are printed as-is.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	e, ok := Details(err)
	if !ok {
		return fmt.Sprintf("❌ %s\n", err.Error())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "❌ %s in %s [%s]\n", categoryDisplayName(e.Category), location(e), e.Code)

	var parseErr *ParseError
	if stderrors.As(err, &parseErr) {
		// Point at the offending character
		fmt.Fprintf(&b, "  %s\n", parseErr.Input)
		fmt.Fprintf(&b, "  %s^ %s\n", strings.Repeat(" ", clampOffset(parseErr.Offset, len(parseErr.Input))), e.Message)
	} else {
		fmt.Fprintf(&b, "  %s\n", e.Message)
		if e.Raw != "" {
			fmt.Fprintf(&b, "  Raw: %s\n", e.Raw)
		}
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", e.Suggestion)
	}
	return b.String()
}

// FormatErrorList formats every error joined into err, one block each.
func FormatErrorList(err error) string {
	errs := unjoin(err)
	if len(errs) == 0 {
		return "no errors"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generation failed with %d error(s)\n\n", len(errs))
	for i, e := range errs {
		if i > 0 {
			b.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
		}
		b.WriteString(FormatError(e))
	}
	return b.String()
}

// FormatCompact returns a compact one-line error format
func FormatCompact(err error) string {
	e, ok := Details(err)
	if !ok {
		return err.Error()
	}
	return fmt.Sprintf("%s: %s: %s [%s]", location(e), e.Category, e.Message, e.Code)
}

// unjoin flattens errors.Join trees
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, unjoin(e)...)
		}
		return out
	}
	return []error{err}
}

func location(e *CompilerError) string {
	switch {
	case e.Owner != "" && e.Property != "":
		return e.Owner + "." + e.Property
	case e.Owner != "":
		return e.Owner
	case e.Namespace != "":
		return e.Namespace
	default:
		return "<model>"
	}
}

func clampOffset(offset, n int) int {
	if offset < 0 {
		return 0
	}
	if offset > n {
		return n
	}
	return offset
}

// categoryDisplayName returns a human-readable category name
func categoryDisplayName(category ErrorCategory) string {
	switch category {
	case CategorySyntax:
		return "Syntax Error"
	case CategoryLink:
		return "Link Error"
	case CategoryComposition:
		return "Composition Error"
	case CategoryConsistency:
		return "Consistency Error"
	default:
		return "Compiler Error"
	}
}
