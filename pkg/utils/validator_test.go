package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Phone string `json:"phoneNumber" validate:"required,len=10,numeric"`
	Kind  string `json:"kind" validate:"omitempty,oneof=NORMAL EMERGENCY"`
}

func TestValidateStruct_UsesJSONNames(t *testing.T) {
	errs := ValidateStruct(sampleRequest{Phone: "12ab", Kind: "URGENT"})

	assert.Contains(t, errs, "phoneNumber")
	assert.Equal(t, "Must be one of: NORMAL, EMERGENCY", errs["kind"])
	assert.Equal(t, "kind: Must be one of: NORMAL, EMERGENCY; phoneNumber: Must be exactly 10 characters",
		FormatValidationErrors(errs))
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.Empty(t, ValidateStruct(sampleRequest{Phone: "9876543210"}))
}
