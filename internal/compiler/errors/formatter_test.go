package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatErrorParseCaret(t *testing.T) {
	err := NewParseError(ErrUnclosedContainer, "{string", 7, "Unclosed '{'")
	err.WithOwner("io.x", "io.x.Document").WithProperty("paths")

	out := FormatError(fmt.Errorf("stage graph: %w", err))
	lines := strings.Split(out, "\n")

	assert.Equal(t, "❌ Syntax Error in io.x.Document.paths [PRS005]", lines[0])
	assert.Equal(t, "  {string", lines[1])
	assert.Equal(t, "         ^ Unclosed '{'", lines[2])
}

func TestFormatErrorSuggestion(t *testing.T) {
	out := FormatError(NewUnresolvedEntity("io.x", "io.x.Document", "info", "Info", "Info"))

	assert.Contains(t, out, "Link Error in io.x.Document.info [LNK101]")
	assert.Contains(t, out, "Raw: Info")
	assert.Contains(t, out, "💡 Declare the entity")
}

func TestFormatErrorPlain(t *testing.T) {
	assert.Equal(t, "❌ boom\n", FormatError(stderrors.New("boom")))
	assert.Equal(t, "", FormatError(nil))
}

func TestFormatErrorList(t *testing.T) {
	joined := stderrors.Join(
		NewUnresolvedTrait("io.x", "io.x.Document", "Missing"),
		stderrors.Join(NewConsistencyError(ErrParentCycle, "cycle at %s", "io.x.A")),
	)

	out := FormatErrorList(joined)
	assert.True(t, strings.HasPrefix(out, "Generation failed with 2 error(s)"))
	assert.Contains(t, out, "[LNK102]")
	assert.Contains(t, out, "Consistency Error in <model> [CON301]")
	assert.Equal(t, "no errors", FormatErrorList(nil))
}

func TestFormatCompact(t *testing.T) {
	err := NewDuplicateDeclaration("io.x", "io.x.Document", "entity Document")
	assert.Equal(t, "io.x.Document: composition: Duplicate declaration of entity Document [CMP203]", FormatCompact(err))
	assert.Equal(t, "plain", FormatCompact(stderrors.New("plain")))
}
