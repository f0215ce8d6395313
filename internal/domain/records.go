package domain

import "fmt"

// ── Records ────────────────────────────────────────────────
// One struct per exported table. JSON keys are the database
// column names verbatim; the static site reads them by exact name.
// Field order matches the SELECT column order.

// Record is a single exported row. ScanTargets returns pointers to the
// record's fields in column order, suitable for sql.Rows.Scan.
type Record interface {
	ScanTargets() []any
}

// SchemaVariant selects which column set is exported.
type SchemaVariant string

const (
	// SchemaLink selects EmployerLink / EmployerName / Population.
	SchemaLink SchemaVariant = "link"
	// SchemaCareers selects EmployerCareers / EmployerContact.
	SchemaCareers SchemaVariant = "careers"
)

// ParseSchemaVariant maps a configuration value to a SchemaVariant.
// The empty string selects SchemaLink.
func ParseSchemaVariant(s string) (SchemaVariant, error) {
	switch SchemaVariant(s) {
	case "", SchemaLink:
		return SchemaLink, nil
	case SchemaCareers:
		return SchemaCareers, nil
	}
	return "", fmt.Errorf("unknown schema variant %q (want %q or %q)", s, SchemaLink, SchemaCareers)
}

// ── Regions ────────────────────────────────────────────────

var RegionColumns = []string{
	"ID", "State", "City_Town_Other", "EmployerLink", "EmployerName", "Scale", "Type", "Population",
}

type RegionRecord struct {
	ID              int64   `json:"ID"`
	State           *string `json:"State"`
	City_Town_Other *string `json:"City_Town_Other"`
	EmployerLink    *string `json:"EmployerLink"`
	EmployerName    *string `json:"EmployerName"`
	Scale           *string `json:"Scale"`
	Type            *string `json:"Type"`
	Population      *int64  `json:"Population"`
}

func (r *RegionRecord) ScanTargets() []any {
	return []any{&r.ID, &r.State, &r.City_Town_Other, &r.EmployerLink, &r.EmployerName, &r.Scale, &r.Type, &r.Population}
}

var RegionCareersColumns = []string{
	"ID", "State", "City_Town_Other", "EmployerLink", "EmployerCareers", "Scale", "Type", "EmployerContact",
}

type RegionCareersRecord struct {
	ID              int64   `json:"ID"`
	State           *string `json:"State"`
	City_Town_Other *string `json:"City_Town_Other"`
	EmployerLink    *string `json:"EmployerLink"`
	EmployerCareers *string `json:"EmployerCareers"`
	Scale           *string `json:"Scale"`
	Type            *string `json:"Type"`
	EmployerContact *string `json:"EmployerContact"`
}

func (r *RegionCareersRecord) ScanTargets() []any {
	return []any{&r.ID, &r.State, &r.City_Town_Other, &r.EmployerLink, &r.EmployerCareers, &r.Scale, &r.Type, &r.EmployerContact}
}

// ── Industries ─────────────────────────────────────────────

var IndustryColumns = []string{
	"ID", "Industry", "Subindustry", "EmployerLink", "EmployerName", "Scale", "Type",
}

type IndustryRecord struct {
	ID           int64   `json:"ID"`
	Industry     *string `json:"Industry"`
	Subindustry  *string `json:"Subindustry"`
	EmployerLink *string `json:"EmployerLink"`
	EmployerName *string `json:"EmployerName"`
	Scale        *string `json:"Scale"`
	Type         *string `json:"Type"`
}

func (r *IndustryRecord) ScanTargets() []any {
	return []any{&r.ID, &r.Industry, &r.Subindustry, &r.EmployerLink, &r.EmployerName, &r.Scale, &r.Type}
}

var IndustryCareersColumns = []string{
	"ID", "Industry", "Subindustry", "EmployerCareers", "EmployerName", "Scale", "Type",
}

type IndustryCareersRecord struct {
	ID              int64   `json:"ID"`
	Industry        *string `json:"Industry"`
	Subindustry     *string `json:"Subindustry"`
	EmployerCareers *string `json:"EmployerCareers"`
	EmployerName    *string `json:"EmployerName"`
	Scale           *string `json:"Scale"`
	Type            *string `json:"Type"`
}

func (r *IndustryCareersRecord) ScanTargets() []any {
	return []any{&r.ID, &r.Industry, &r.Subindustry, &r.EmployerCareers, &r.EmployerName, &r.Scale, &r.Type}
}

// ── DatePosted ─────────────────────────────────────────────

var DatePostedColumns = []string{
	"ID", "DatePosted", "EmployerLink", "EmployerName", "Scale", "Type",
}

type DatePostedRecord struct {
	ID           int64   `json:"ID"`
	DatePosted   Date    `json:"DatePosted"`
	EmployerLink *string `json:"EmployerLink"`
	EmployerName *string `json:"EmployerName"`
	Scale        *string `json:"Scale"`
	Type         *string `json:"Type"`
}

func (r *DatePostedRecord) ScanTargets() []any {
	return []any{&r.ID, &r.DatePosted, &r.EmployerLink, &r.EmployerName, &r.Scale, &r.Type}
}

var DatePostedCareersColumns = []string{
	"ID", "DatePosted", "EmployerCareers", "EmployerName", "Scale", "Type",
}

type DatePostedCareersRecord struct {
	ID              int64   `json:"ID"`
	DatePosted      Date    `json:"DatePosted"`
	EmployerCareers *string `json:"EmployerCareers"`
	EmployerName    *string `json:"EmployerName"`
	Scale           *string `json:"Scale"`
	Type            *string `json:"Type"`
}

func (r *DatePostedCareersRecord) ScanTargets() []any {
	return []any{&r.ID, &r.DatePosted, &r.EmployerCareers, &r.EmployerName, &r.Scale, &r.Type}
}
