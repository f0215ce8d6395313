package export

import (
	"employerexport/internal/dbclient"
	"employerexport/internal/domain"
)

// ── Table definitions ─────────────────────────────────────
// The three exported datasets, in the fixed order the run processes them.

// Dataset names used in results, logs and metrics.
const (
	DatasetRegions    = "regions"
	DatasetIndustries = "industries"
	DatasetDatePosted = "dateposted"
)

// TableSpec binds one database table to its column list, output file and
// record type.
type TableSpec struct {
	Name    string   // dataset name, e.g. "regions"
	Table   string   // database table
	File    string   // output file name inside the output directory
	Columns []string // explicit SELECT list, also the JSON key order
	New     func() domain.Record
}

// Query returns the read for this table.
func (s TableSpec) Query(orderByID bool) dbclient.TableQuery {
	q := dbclient.TableQuery{Table: s.Table, Columns: s.Columns}
	if orderByID {
		q.OrderBy = "ID"
	}
	return q
}

// Tables returns the specs for a schema variant: Regions, Industries,
// DatePosted.
func Tables(variant domain.SchemaVariant) []TableSpec {
	if variant == domain.SchemaCareers {
		return []TableSpec{
			{
				Name: DatasetRegions, Table: "Regions", File: "regionsdata.json",
				Columns: domain.RegionCareersColumns,
				New:     func() domain.Record { return &domain.RegionCareersRecord{} },
			},
			{
				Name: DatasetIndustries, Table: "Industries", File: "industriesdata.json",
				Columns: domain.IndustryCareersColumns,
				New:     func() domain.Record { return &domain.IndustryCareersRecord{} },
			},
			{
				Name: DatasetDatePosted, Table: "DatePosted", File: "dateposteddata.json",
				Columns: domain.DatePostedCareersColumns,
				New:     func() domain.Record { return &domain.DatePostedCareersRecord{} },
			},
		}
	}
	return []TableSpec{
		{
			Name: DatasetRegions, Table: "Regions", File: "regionsdata.json",
			Columns: domain.RegionColumns,
			New:     func() domain.Record { return &domain.RegionRecord{} },
		},
		{
			Name: DatasetIndustries, Table: "Industries", File: "industriesdata.json",
			Columns: domain.IndustryColumns,
			New:     func() domain.Record { return &domain.IndustryRecord{} },
		},
		{
			Name: DatasetDatePosted, Table: "DatePosted", File: "dateposteddata.json",
			Columns: domain.DatePostedColumns,
			New:     func() domain.Record { return &domain.DatePostedRecord{} },
		},
	}
}
