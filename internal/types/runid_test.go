package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrewmcadoo/nexus/internal/errs"
)

func TestValidateRunID_Valid(t *testing.T) {
	valid := []string{
		"run_20260108_120000_042",
		"a",
		"run-1",
		strings.Repeat("a", MaxRunIDLength),
	}
	for _, id := range valid {
		assert.NoError(t, ValidateRunID(id), "expected %q to be valid", id)
	}
}

func TestValidateRunID_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"run/1",
		"run\\1",
		"../run",
		"run_..",
		strings.Repeat("a", MaxRunIDLength+1),
	}
	for _, id := range invalid {
		err := ValidateRunID(id)
		assert.Error(t, err, "expected %q to be invalid", id)
		var invalidErr *errs.InvalidRunIDError
		assert.ErrorAs(t, err, &invalidErr)
	}
}
