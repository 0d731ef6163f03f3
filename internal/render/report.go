package render

import (
	"fmt"

	"github.com/ust-lookup/internal/columns"
	"github.com/ust-lookup/internal/dataset"
)

// TableReport describes one loaded table for the column listing
type TableReport struct {
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []string     `json:"columns"`
	Roles   []RoleReport `json:"roles"`
}

// RoleReport is one detected column role
type RoleReport struct {
	Role     string `json:"role"`
	Column   string `json:"column"`
	Rule     string `json:"rule"`
	Fallback string `json:"fallback,omitempty"`
}

func (r RoleReport) String() string {
	s := fmt.Sprintf("%s: %s (%s)", r.Role, r.Column, r.Rule)
	if r.Fallback != "" {
		s += " via " + r.Fallback
	}
	return s
}

// Reports lists every table of the dataset with its resolved roles
func Reports(ds *dataset.Dataset) []TableReport {
	tables := append(ds.All(), ds.PipeAlternate)
	out := make([]TableReport, 0, len(tables))
	for _, t := range tables {
		if t.IsEmpty() && t.Name() == dataset.PipeAlternate {
			continue
		}
		rep := TableReport{Name: t.Name(), Rows: t.Len(), Columns: t.Columns()}
		if rep.Columns == nil {
			rep.Columns = []string{}
		}
		for _, res := range ds.Columns.Report(t) {
			rep.Roles = append(rep.Roles, roleReport(res))
		}
		out = append(out, rep)
	}
	return out
}

func roleReport(res columns.Resolution) RoleReport {
	r := RoleReport{Role: string(res.Role), Column: res.Column, Rule: string(res.Rule)}
	if res.Fallback {
		r.Fallback = string(res.Via)
	}
	return r
}
