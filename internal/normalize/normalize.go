// Package normalize turns raw upstream JSON into the internal application
// model. It accepts both payload shapes (a single application object or an
// array of them), collapses the five optional product-family collection
// fields into one explicit family-keyed mapping, and keeps the original JSON
// of each element verbatim for the raw inspector.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"statusdeck/internal/domain"
)

// ParseError rejects an input that is not valid JSON, or that parses but
// contains no well-formed application. It is the only hard failure in the
// pipeline; everything downstream degrades instead of erroring.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse payload: %s: %v", e.Reason, e.Err)
	}
	return "parse payload: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// wire mirrors the upstream field names exactly. Unknown fields are not
// modeled here; they survive through Application.Raw only.
type wireApplication struct {
	ProductApplicationIdentifier        string       `json:"productApplicationIdentifier"`
	CustomerFacingApplicationIdentifier string       `json:"customerFacingApplicationIdentifier"`
	CardAccountStatus                   []wireStatus `json:"cardAccountStatus"`
	EnrollmentProductStatus             []wireStatus `json:"enrollmentProductStatus"`
	DepositAccountStatus                []wireStatus `json:"depositAccountStatus"`
	LendingAccountStatus                []wireStatus `json:"lendingAccountStatus"`
	InvestmentAccountStatus             []wireStatus `json:"investmentAccountStatus"`
	ApplicationCreateTimestamp          string       `json:"applicationCreateTimestamp"`
	ApplicationSubmitTimestamp          string       `json:"applicationSubmitTimestamp"`
	ApplicationLastUpdateTimestamp      string       `json:"applicationLastUpdateTimestamp"`
}

type wireStatus struct {
	CapturedApplicationIdentifier           string          `json:"capturedApplicationIdentifier"`
	ProductCode                             string          `json:"productCode"`
	SubProductCode                          string          `json:"subProductCode"`
	AcquisitionSourceName                   string          `json:"acquisitionSourceName"`
	MarketCellIdentifier                    string          `json:"marketCellIdentifier"`
	ProductApplicationStatusCode            string          `json:"productApplicationStatusCode"`
	ProductApplicationStatusChangeTimestamp string          `json:"productApplicationStatusChangeTimestamp"`
	DecisionEngineReferenceIdentifier       string          `json:"decisionEngineReferenceIdentifier"`
	SecureMailInteractionIdentifier         string          `json:"secureMailInteractionIdentifier"`
	LinkExpirationDate                      string          `json:"linkExpirationDate"`
	StatusAdditionalInformation             *wireAdditional `json:"statusAdditionalInformation"`
	PendRequiredInformation                 *wirePend       `json:"pendRequiredInformation"`
}

type wireAdditional struct {
	Errors                              []wireError `json:"errors"`
	StraightThroughEligibilityIndicator *bool       `json:"straightThroughEligibilityIndicator"`
	RequiredActionList                  []string    `json:"requiredActionList"`
}

type wireError struct {
	ErrorCode string `json:"errorCode"`
}

type wirePend struct {
	RequiredDocuments []wireDocument `json:"requiredDocuments"`
}

type wireDocument struct {
	DocumentCategoryName string   `json:"documentCategoryName"`
	DocumentTypeName     []string `json:"documentTypeName"`
}

// Normalize parses raw JSON text into the ordered application list. A single
// object is wrapped as a one-element batch; an array is taken element by
// element. The batch is accepted when at least one candidate is well-formed;
// malformed candidates, including elements that are not application objects
// at all, are carried through unfiltered so the caller can render them as
// "no status available" rather than hiding data the upstream actually
// returned.
func Normalize(raw []byte) ([]domain.Application, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &ParseError{Reason: "empty input"}
	}

	var elements []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, &ParseError{Reason: "invalid JSON array", Err: err}
		}
	case '{':
		if !json.Valid(trimmed) {
			return nil, &ParseError{Reason: "invalid JSON object"}
		}
		elements = []json.RawMessage{json.RawMessage(trimmed)}
	default:
		return nil, &ParseError{Reason: "payload must be a JSON object or array"}
	}

	if len(elements) == 0 {
		return nil, &ParseError{Reason: "payload contains no applications"}
	}

	apps := make([]domain.Application, 0, len(elements))
	anyWellFormed := false
	for _, el := range elements {
		// An element that does not decode as an application object (scalar,
		// nested array, wrong-typed field) degrades to an empty application
		// carrying only its raw JSON; the gate below decides for the batch.
		var app domain.Application
		var w wireApplication
		if err := json.Unmarshal(el, &w); err == nil {
			app = fromWire(w)
		}
		app.Raw = append(json.RawMessage(nil), el...)
		if app.WellFormed() {
			anyWellFormed = true
		}
		apps = append(apps, app)
	}
	if !anyWellFormed {
		return nil, &ParseError{Reason: "no well-formed application in payload: need productApplicationIdentifier and at least one populated status collection"}
	}
	return apps, nil
}

// NormalizeValue routes already-parsed JSON (e.g. a scan result) through the
// same gate as pasted text.
func NormalizeValue(v any) ([]domain.Application, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &ParseError{Reason: "value is not representable as JSON", Err: err}
	}
	return Normalize(raw)
}

func fromWire(w wireApplication) domain.Application {
	app := domain.Application{
		ID:                  w.ProductApplicationIdentifier,
		CustomerFacingID:    w.CustomerFacingApplicationIdentifier,
		CreateTimestamp:     w.ApplicationCreateTimestamp,
		SubmitTimestamp:     w.ApplicationSubmitTimestamp,
		LastUpdateTimestamp: w.ApplicationLastUpdateTimestamp,
	}
	families := []struct {
		family  domain.Family
		records []wireStatus
	}{
		{domain.FamilyCard, w.CardAccountStatus},
		{domain.FamilyEnrollment, w.EnrollmentProductStatus},
		{domain.FamilyDeposit, w.DepositAccountStatus},
		{domain.FamilyLending, w.LendingAccountStatus},
		{domain.FamilyInvestment, w.InvestmentAccountStatus},
	}
	for _, f := range families {
		if f.records == nil {
			continue
		}
		recs := make([]domain.StatusRecord, 0, len(f.records))
		for _, ws := range f.records {
			recs = append(recs, statusFromWire(ws))
		}
		if app.Statuses == nil {
			app.Statuses = map[domain.Family][]domain.StatusRecord{}
		}
		app.Statuses[f.family] = recs
	}
	return app
}

func statusFromWire(w wireStatus) domain.StatusRecord {
	rec := domain.StatusRecord{
		CapturedApplicationID: w.CapturedApplicationIdentifier,
		ProductCode:           w.ProductCode,
		SubProductCode:        w.SubProductCode,
		AcquisitionSourceName: w.AcquisitionSourceName,
		MarketCellID:          w.MarketCellIdentifier,
		StatusCode:            w.ProductApplicationStatusCode,
		StatusChangeTimestamp: w.ProductApplicationStatusChangeTimestamp,
		DecisionEngineRefID:   w.DecisionEngineReferenceIdentifier,
		SecureMailID:          w.SecureMailInteractionIdentifier,
		LinkExpirationDate:    w.LinkExpirationDate,
	}
	if w.StatusAdditionalInformation != nil {
		add := &domain.StatusAdditionalInformation{
			StraightThroughEligibility: w.StatusAdditionalInformation.StraightThroughEligibilityIndicator,
			RequiredActionList:         w.StatusAdditionalInformation.RequiredActionList,
		}
		for _, e := range w.StatusAdditionalInformation.Errors {
			add.Errors = append(add.Errors, domain.StatusError{ErrorCode: e.ErrorCode})
		}
		rec.AdditionalInformation = add
	}
	if w.PendRequiredInformation != nil {
		pend := &domain.PendRequiredInformation{}
		for _, d := range w.PendRequiredInformation.RequiredDocuments {
			pend.RequiredDocuments = append(pend.RequiredDocuments, domain.RequiredDocument{
				DocumentCategoryName: d.DocumentCategoryName,
				DocumentTypeName:     d.DocumentTypeName,
			})
		}
		rec.PendRequired = pend
	}
	return rec
}
