package normalize_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"statusdeck/internal/domain"
	"statusdeck/internal/normalize"
)

const cardApp = `{
  "productApplicationIdentifier": "APP-1",
  "customerFacingApplicationIdentifier": "REF-999",
  "cardAccountStatus": [
    {
      "productCode": "080",
      "subProductCode": "001",
      "productApplicationStatusCode": "PEND_CALL_SUPPORT",
      "productApplicationStatusChangeTimestamp": "2024-05-20T10:20:20Z",
      "statusAdditionalInformation": {
        "errors": [{"errorCode": "C01"}],
        "straightThroughEligibilityIndicator": false,
        "requiredActionList": ["DOCUMENT_UPLOAD"]
      },
      "pendRequiredInformation": {
        "requiredDocuments": [
          {"documentCategoryName": "APPLICANT_VERIFICATION", "documentTypeName": ["Proof of address"]}
        ]
      }
    }
  ],
  "applicationCreateTimestamp": "2024-05-20T10:03:07Z",
  "unknownUpstreamField": {"keep": "me"}
}`

func TestNormalizeSingleObject(t *testing.T) {
	apps, err := normalize.Normalize([]byte(cardApp))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("want 1 application, got %d", len(apps))
	}
	app := apps[0]
	if app.ID != "APP-1" || app.CustomerFacingID != "REF-999" {
		t.Fatalf("identifiers not mapped: %+v", app)
	}
	recs := app.Statuses[domain.FamilyCard]
	if len(recs) != 1 {
		t.Fatalf("want 1 card record, got %d", len(recs))
	}
	rec := recs[0]
	if rec.StatusCode != "PEND_CALL_SUPPORT" || rec.ProductCode != "080" {
		t.Fatalf("status record not mapped: %+v", rec)
	}
	if rec.AdditionalInformation == nil || len(rec.AdditionalInformation.Errors) != 1 || rec.AdditionalInformation.Errors[0].ErrorCode != "C01" {
		t.Fatalf("additional information not mapped: %+v", rec.AdditionalInformation)
	}
	if rec.AdditionalInformation.StraightThroughEligibility == nil || *rec.AdditionalInformation.StraightThroughEligibility {
		t.Fatalf("straight-through flag not mapped")
	}
	if rec.PendRequired == nil || len(rec.PendRequired.RequiredDocuments) != 1 {
		t.Fatalf("pend required information not mapped: %+v", rec.PendRequired)
	}
	if !app.WellFormed() {
		t.Fatal("application should be well-formed")
	}
}

func TestNormalizeArrayWrappingTransparent(t *testing.T) {
	single, err := normalize.Normalize([]byte(cardApp))
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	wrapped, err := normalize.Normalize([]byte("[" + cardApp + "]"))
	if err != nil {
		t.Fatalf("wrapped: %v", err)
	}
	if len(wrapped) != 1 {
		t.Fatalf("want 1 element, got %d", len(wrapped))
	}
	if !reflect.DeepEqual(single[0], wrapped[0]) {
		t.Fatalf("array wrapping not transparent:\n single=%+v\nwrapped=%+v", single[0], wrapped[0])
	}
}

func TestNormalizeRawPreservedVerbatim(t *testing.T) {
	apps, err := normalize.Normalize([]byte(cardApp))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if string(apps[0].Raw) != cardApp {
		t.Fatalf("raw JSON not preserved verbatim")
	}
}

func TestNormalizeInvalidJSON(t *testing.T) {
	_, err := normalize.Normalize([]byte(`{not json`))
	var pe *normalize.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want ParseError, got %v", err)
	}
}

func TestNormalizeRejectsScalars(t *testing.T) {
	for _, in := range []string{`"hello"`, `42`, `true`, ``, `   `} {
		if _, err := normalize.Normalize([]byte(in)); err == nil {
			t.Fatalf("input %q: expected ParseError", in)
		}
	}
}

func TestNormalizeRejectsBatchWithNoWellFormedElement(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"productApplicationIdentifier": "APP-1"}`,
		`{"productApplicationIdentifier": "APP-1", "cardAccountStatus": []}`,
		`{"cardAccountStatus": [{"productApplicationStatusCode": "APPROVED"}]}`,
		`[{"productApplicationIdentifier": "A"}, {"cardAccountStatus": []}]`,
		`[]`,
	}
	for _, in := range inputs {
		if _, err := normalize.Normalize([]byte(in)); err == nil {
			t.Fatalf("input %s: expected rejection", in)
		}
	}
}

func TestNormalizeBatchPassesThroughMalformedElements(t *testing.T) {
	batch := fmt.Sprintf(`[%s, {"productApplicationIdentifier": "APP-2"}]`, cardApp)
	apps, err := normalize.Normalize([]byte(batch))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("malformed element must not be filtered: got %d", len(apps))
	}
	if apps[0].ID != "APP-1" || apps[1].ID != "APP-2" {
		t.Fatalf("order not preserved: %s, %s", apps[0].ID, apps[1].ID)
	}
	if apps[1].WellFormed() {
		t.Fatal("second element should be malformed")
	}
}

func TestNormalizeBatchCarriesNonObjectElements(t *testing.T) {
	batch := fmt.Sprintf(`[%s, "garbage", 42, [1,2], {"productApplicationIdentifier": 7}]`, cardApp)
	apps, err := normalize.Normalize([]byte(batch))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(apps) != 5 {
		t.Fatalf("non-object elements must not be filtered: got %d", len(apps))
	}
	if !apps[0].WellFormed() {
		t.Fatal("first element should be well-formed")
	}
	raws := []string{`"garbage"`, `42`, `[1,2]`, `{"productApplicationIdentifier": 7}`}
	for i, want := range raws {
		app := apps[i+1]
		if app.WellFormed() {
			t.Fatalf("element %d should be malformed: %+v", i+1, app)
		}
		if string(app.Raw) != want {
			t.Fatalf("element %d raw not preserved: %s", i+1, app.Raw)
		}
	}

	// without a well-formed candidate the same elements are still rejected
	if _, err := normalize.Normalize([]byte(`["garbage", 42, [1,2]]`)); err == nil {
		t.Fatal("batch of only non-object elements should be rejected")
	}
}

func TestNormalizeMultipleFamilies(t *testing.T) {
	batch := `[
	  {"productApplicationIdentifier": "A", "cardAccountStatus": [{"productApplicationStatusCode": "APPROVED", "productApplicationStatusChangeTimestamp": "2024-01-01T00:00:00Z"}]},
	  {"productApplicationIdentifier": "B", "depositAccountStatus": [{"productApplicationStatusCode": "PEND_REVIEW", "productApplicationStatusChangeTimestamp": "2024-01-02T00:00:00Z"}]}
	]`
	apps, err := normalize.Normalize([]byte(batch))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("want 2 applications, got %d", len(apps))
	}
	if len(apps[0].Statuses[domain.FamilyCard]) != 1 {
		t.Fatalf("first element should carry a card collection")
	}
	if len(apps[1].Statuses[domain.FamilyDeposit]) != 1 {
		t.Fatalf("second element should carry a deposit collection")
	}
	if _, ok := apps[1].Statuses[domain.FamilyCard]; ok {
		t.Fatalf("absent family field must stay absent")
	}
}

func TestNormalizeValue(t *testing.T) {
	v := map[string]any{
		"productApplicationIdentifier": "X",
		"enrollmentProductStatus": []any{
			map[string]any{
				"productApplicationStatusCode":            "COMPLETE",
				"productApplicationStatusChangeTimestamp": "2024-01-01T00:00:00Z",
			},
		},
	}
	apps, err := normalize.NormalizeValue(v)
	if err != nil {
		t.Fatalf("normalize value: %v", err)
	}
	if len(apps) != 1 || apps[0].Statuses[domain.FamilyEnrollment][0].StatusCode != "COMPLETE" {
		t.Fatalf("unexpected result: %+v", apps)
	}
}
