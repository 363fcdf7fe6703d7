// Package status derives the display model from normalized applications:
// primary-status selection, classification, and finding extraction. All
// functions here are pure; nothing is cached or mutated across calls.
package status

import (
	"statusdeck/internal/domain"
	"statusdeck/internal/kb"
)

// SelectPrimary picks the single status record representing the
// application's current state: the first element of the first non-empty
// collection in family precedence order (card > enrollment > deposit >
// lending > investment). ok is false when every collection is empty or
// absent; callers render a "no status" state instead of failing.
func SelectPrimary(app domain.Application) (domain.StatusRecord, domain.Family, bool) {
	for _, family := range domain.FamilyPrecedence {
		recs := app.Statuses[family]
		if len(recs) > 0 {
			return recs[0], family, true
		}
	}
	return domain.StatusRecord{}, "", false
}

// ExtractFindings derives the ordered errors, required-document groups, and
// required actions from a status record. Absent nested fields yield empty
// lists. Order is preserved exactly as given upstream.
func ExtractFindings(rec domain.StatusRecord) domain.Findings {
	f := domain.Findings{
		Errors:         []domain.StatusError{},
		DocumentGroups: []domain.RequiredDocument{},
		Actions:        []string{},
	}
	if add := rec.AdditionalInformation; add != nil {
		f.Errors = append(f.Errors, add.Errors...)
		f.Actions = append(f.Actions, add.RequiredActionList...)
	}
	if pend := rec.PendRequired; pend != nil {
		f.DocumentGroups = append(f.DocumentGroups, pend.RequiredDocuments...)
	}
	return f
}

// BuildReport composes selection, classification, and extraction for one
// application. HasStatus is false on the no-status path; the remaining
// fields are nil in that case.
func BuildReport(catalog kb.Catalog, app domain.Application) domain.Report {
	rep := domain.Report{Application: app}
	rec, family, ok := SelectPrimary(app)
	if !ok {
		return rep
	}
	cls := catalog.Classify(rec.StatusCode)
	findings := ExtractFindings(rec)
	rep.HasStatus = true
	rep.Family = family
	rep.Primary = &rec
	rep.Classification = &cls
	rep.Findings = &findings
	return rep
}

// BuildReports maps BuildReport over a batch, preserving input order.
func BuildReports(catalog kb.Catalog, apps []domain.Application) []domain.Report {
	reports := make([]domain.Report, 0, len(apps))
	for _, app := range apps {
		reports = append(reports, BuildReport(catalog, app))
	}
	return reports
}

// ReferenceNumber returns the identifier to quote on a reconsideration call:
// the decision-engine reference when present, else the customer-facing
// application identifier, else empty.
func ReferenceNumber(app domain.Application, rec domain.StatusRecord) string {
	if rec.DecisionEngineRefID != "" {
		return rec.DecisionEngineRefID
	}
	return app.CustomerFacingID
}
