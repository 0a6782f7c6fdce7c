package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestionErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := TransportError(cause, "fetch %s", "bucket/key")

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrParse)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUnsupportedTypeIsParse(t *testing.T) {
	err := ParseError(ErrUnsupportedType, "type %q", "pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, KindParse, KindOf(err))
}

func TestNotFoundOnUpdateIsDatabase(t *testing.T) {
	err := DatabaseError(ErrNotFound, "update attempt %s", "abc")
	assert.ErrorIs(t, err, ErrDatabase)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("process: %w", NoMatchingRuleError("x.pdf"))
	assert.Equal(t, KindNoMatchingRule, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
