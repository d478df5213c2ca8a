package validation

import (
	"errors"
	"testing"
)

type sampleRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Value  *int   `json:"vote_value" validate:"required,oneof=-1 0 1"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	bad := 3
	err := ValidateStruct(sampleRequest{UserID: "nope", Value: &bad})

	var reqErr *RequestValidationError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected request validation error, got %v", err)
	}
	if len(reqErr.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(reqErr.Fields))
	}
	if reqErr.Fields[0].Field != "user_id" || reqErr.Fields[0].Tag != "uuid" {
		t.Fatalf("unexpected first error %+v", reqErr.Fields[0])
	}
	if reqErr.Fields[1].Field != "vote_value" || reqErr.Fields[1].Param != "-1 0 1" {
		t.Fatalf("unexpected second error %+v", reqErr.Fields[1])
	}
}

func TestValidateStructAcceptsZeroVote(t *testing.T) {
	zero := 0
	err := ValidateStruct(sampleRequest{UserID: "6f1c2a8e-7d8b-4b1a-9a3e-1f2d3c4b5a69", Value: &zero})
	if err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestValidateStructRequiresPointerValue(t *testing.T) {
	err := ValidateStruct(sampleRequest{UserID: "6f1c2a8e-7d8b-4b1a-9a3e-1f2d3c4b5a69"})
	if err == nil {
		t.Fatal("expected missing vote_value error")
	}
}
