package exitcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForGrade(t *testing.T) {
	assert.Equal(t, Success, ForGrade("A"))
	assert.Equal(t, Success, ForGrade("B"))
	assert.Equal(t, IssuesFound, ForGrade("C"))
	assert.Equal(t, IssuesFound, ForGrade("D"))
	assert.Equal(t, IssuesFound, ForGrade("F"))
	assert.Equal(t, IssuesFound, ForGrade(""))
}

func TestCodeStrings(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "issues_found", IssuesFound.String())
	assert.Equal(t, "invalid_configuration", Configuration.String())
	assert.Equal(t, "target_unreachable", Target.String())
	assert.Equal(t, "run_interrupted", Interrupted.String())
	assert.Equal(t, "unknown", Code(99).String())
}

func TestCodeValues(t *testing.T) {
	assert.Equal(t, 0, Success.Int())
	assert.Equal(t, 1, IssuesFound.Int())
	assert.Equal(t, 3, Configuration.Int())
	assert.Equal(t, 4, Target.Int())
	assert.Equal(t, 5, Interrupted.Int())
}
