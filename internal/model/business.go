package model

import (
	"strings"
	"time"
)

// Stage is the pipeline status of a Business inside a user's CRM.
type Stage string

const (
	StageNew       Stage = "New"
	StageContacted Stage = "Contacted"
	StageProposal  Stage = "Proposal"
	StageClosed    Stage = "Closed"
	StageCancelled Stage = "Cancelled"
)

// Stages lists every pipeline stage in workflow order. The first entry is the
// stage given to freshly ingested businesses.
var Stages = []Stage{StageNew, StageContacted, StageProposal, StageClosed, StageCancelled}

// ParseStage returns the Stage matching s (case-insensitive).
func ParseStage(s string) (Stage, bool) {
	for _, st := range Stages {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// ActivityType classifies a logged interaction with a business.
type ActivityType string

const (
	ActivityCall    ActivityType = "Call"
	ActivityEmail   ActivityType = "Email"
	ActivityVisit   ActivityType = "Visit"
	ActivityMeeting ActivityType = "Meeting"
	ActivityNote    ActivityType = "Note"
	ActivityOther   ActivityType = "Other"
)

var ActivityTypes = []ActivityType{
	ActivityCall, ActivityEmail, ActivityVisit, ActivityMeeting, ActivityNote, ActivityOther,
}

// ParseActivityType returns the ActivityType matching s (case-insensitive).
func ParseActivityType(s string) (ActivityType, bool) {
	for _, at := range ActivityTypes {
		if strings.EqualFold(string(at), strings.TrimSpace(s)) {
			return at, true
		}
	}
	return "", false
}

// BusinessRecord is a normalized search hit as produced by the places adapter.
// Nil pointer fields mean the provider did not report a value; the CRM upsert
// leaves the stored column untouched for those.
type BusinessRecord struct {
	Name        string   `json:"name"`
	City        string   `json:"city"`
	District    string   `json:"district"`
	Country     string   `json:"country"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Website     string   `json:"website"`
	Rating      *float64 `json:"rating"`
	RatingCount *int     `json:"ratingCount"`
	PriceLevel  *int     `json:"priceLevel"`
	Status      string   `json:"status"`
	IntlPhone   string   `json:"internationalPhone"`
	URL         string   `json:"url"`
	PrimaryType string   `json:"type"`
	Types       string   `json:"types"`
}

// Business is a CRM entry owned by exactly one user. Its natural key for
// ingestion is (UserID, Name, Address).
type Business struct {
	ID          string    `json:"id"                 db:"id"`
	UserID      string    `json:"-"                  db:"user_id"`
	Name        string    `json:"name"               db:"name"`
	City        string    `json:"city"               db:"city"`
	District    string    `json:"district"           db:"district"`
	Country     string    `json:"country"            db:"country"`
	Address     string    `json:"address"            db:"address"`
	Phone       string    `json:"phone"              db:"phone"`
	Website     string    `json:"website"            db:"website"`
	Stage       Stage     `json:"stage"              db:"stage"`
	Rating      *float64  `json:"rating"             db:"rating"`
	RatingCount *int      `json:"ratingCount"        db:"rating_count"`
	PriceLevel  *int      `json:"priceLevel"         db:"price_level"`
	Status      string    `json:"status"             db:"status"`
	IntlPhone   string    `json:"internationalPhone" db:"intl_phone"`
	URL         string    `json:"url"                db:"url"`
	PrimaryType string    `json:"type"               db:"primary_type"`
	Types       string    `json:"types"              db:"types"`
	Category    string    `json:"category"           db:"category"`
	CreatedAt   time.Time `json:"createdAt"          db:"created_at"`
}

// Activity is an immutable log entry under a Business.
type Activity struct {
	ID         string       `json:"id"         db:"id"`
	BusinessID string       `json:"businessId" db:"business_id"`
	Type       ActivityType `json:"type"       db:"type"`
	Outcome    string       `json:"outcome"    db:"outcome"`
	CreatedAt  time.Time    `json:"createdAt"  db:"created_at"`
}
