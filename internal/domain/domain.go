package domain

import "encoding/json"

// Family identifies the product family a status collection belongs to.
type Family string

const (
	FamilyCard       Family = "card"
	FamilyEnrollment Family = "enrollment"
	FamilyDeposit    Family = "deposit"
	FamilyLending    Family = "lending"
	FamilyInvestment Family = "investment"
)

// FamilyPrecedence is the fixed order used to pick the primary status when
// more than one collection is populated. In practice an application populates
// exactly one family.
var FamilyPrecedence = []Family{FamilyCard, FamilyEnrollment, FamilyDeposit, FamilyLending, FamilyInvestment}

// Application is one submitted request for a financial product.
type Application struct {
	ID                  string                    `json:"product_application_identifier"`
	CustomerFacingID    string                    `json:"customer_facing_application_identifier,omitempty"`
	Statuses            map[Family][]StatusRecord `json:"statuses,omitempty"`
	CreateTimestamp     string                    `json:"application_create_timestamp,omitempty" format:"date-time"`
	SubmitTimestamp     string                    `json:"application_submit_timestamp,omitempty" format:"date-time"`
	LastUpdateTimestamp string                    `json:"application_last_update_timestamp,omitempty" format:"date-time"`
	Raw                 json.RawMessage           `json:"raw,omitempty"`
}

// WellFormed reports whether the application carries an identifier and at
// least one non-empty status collection.
func (a Application) WellFormed() bool {
	if a.ID == "" {
		return false
	}
	for _, recs := range a.Statuses {
		if len(recs) > 0 {
			return true
		}
	}
	return false
}

// StatusRecord is the current processing state of one product application.
type StatusRecord struct {
	CapturedApplicationID string                       `json:"captured_application_identifier,omitempty"`
	ProductCode           string                       `json:"product_code"`
	SubProductCode        string                       `json:"sub_product_code"`
	AcquisitionSourceName string                       `json:"acquisition_source_name,omitempty"`
	MarketCellID          string                       `json:"market_cell_identifier,omitempty"`
	StatusCode            string                       `json:"product_application_status_code"`
	StatusChangeTimestamp string                       `json:"product_application_status_change_timestamp" format:"date-time"`
	DecisionEngineRefID   string                       `json:"decision_engine_reference_identifier,omitempty"`
	SecureMailID          string                       `json:"secure_mail_interaction_identifier,omitempty"`
	LinkExpirationDate    string                       `json:"link_expiration_date,omitempty"`
	AdditionalInformation *StatusAdditionalInformation `json:"status_additional_information,omitempty"`
	PendRequired          *PendRequiredInformation     `json:"pend_required_information,omitempty"`
}

// StatusAdditionalInformation carries error codes, the straight-through
// eligibility flag, and the required-action list.
type StatusAdditionalInformation struct {
	Errors                     []StatusError `json:"errors,omitempty"`
	StraightThroughEligibility *bool         `json:"straight_through_eligibility_indicator,omitempty"`
	RequiredActionList         []string      `json:"required_action_list,omitempty"`
}

// StatusError is one upstream error code attached to a status record.
type StatusError struct {
	ErrorCode string `json:"error_code"`
}

// PendRequiredInformation lists document groups the applicant must provide.
type PendRequiredInformation struct {
	RequiredDocuments []RequiredDocument `json:"required_documents,omitempty"`
}

// RequiredDocument is one category of required documents with its
// human-readable descriptions, in upstream order.
type RequiredDocument struct {
	DocumentCategoryName string   `json:"document_category_name"`
	DocumentTypeName     []string `json:"document_type_name"`
}

// Sentiment drives visual treatment and actionability of a classification.
type Sentiment string

const (
	SentimentSuccess Sentiment = "success"
	SentimentWarning Sentiment = "warning"
	SentimentError   Sentiment = "error"
	SentimentNeutral Sentiment = "neutral"
)

// Classification is the derived display category for a status code.
// It is a pure function of the code and is never persisted.
type Classification struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Sentiment   Sentiment `json:"sentiment" enum:"success,warning,error,neutral"`
	Actionable  bool      `json:"actionable"`
}

// Findings are the actionable sub-findings surfaced from one status record.
// All three lists preserve upstream order exactly; absent source fields yield
// empty lists, never an error.
type Findings struct {
	Errors         []StatusError      `json:"errors"`
	DocumentGroups []RequiredDocument `json:"document_groups"`
	Actions        []string           `json:"actions"`
}

// None reports the distinct "no action required" state: all three lists empty.
func (f Findings) None() bool {
	return len(f.Errors) == 0 && len(f.DocumentGroups) == 0 && len(f.Actions) == 0
}

// Report is the render-ready view of one application: the selected primary
// status (when any), its classification, and its findings.
type Report struct {
	Application    Application     `json:"application"`
	HasStatus      bool            `json:"has_status"`
	Family         Family          `json:"family,omitempty"`
	Primary        *StatusRecord   `json:"primary,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Findings       *Findings       `json:"findings,omitempty"`
}

// IngestEvent is one row of the ingest history log.
type IngestEvent struct {
	ID           string `json:"id"`
	TS           string `json:"ts" format:"date-time"`
	Source       string `json:"source"`
	Applications int    `json:"applications"`
	StatusCode   string `json:"status_code,omitempty"`
}
