package render

import (
	"github.com/ust-lookup/internal/debug"
	"github.com/ust-lookup/internal/facility"
	"github.com/ust-lookup/internal/flags"
	"github.com/ust-lookup/internal/lookup"
	"github.com/ust-lookup/internal/normalize"
)

// FacilityView is the display form of a lookup result, shared by the HTML
// page and the JSON API
type FacilityView struct {
	Query      string            `json:"query"`
	Status     string            `json:"status"`
	FacilityID string            `json:"facility_id,omitempty"`
	Summary    *lookup.Summary   `json:"summary,omitempty"`
	Tanks      []TankView        `json:"tanks,omitempty"`
	Candidates []CandidateView   `json:"candidates,omitempty"`
	Stages     map[string]string `json:"stages,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
	Path       []string          `json:"path,omitempty"`
	Trace      []debug.Entry     `json:"trace,omitempty"`
}

// TankView is one active tank
type TankView struct {
	TankNumber      string `json:"tank_number"`
	Contents        string `json:"contents"`
	Capacity        string `json:"capacity"`
	InstallDate     string `json:"install_date"`
	Status          string `json:"status"`
	DoubleWall      string `json:"double_wall"`
	DoubleWallBasis string `json:"double_wall_basis"`
	TankMaterial    string `json:"tank_material"`
	PipingMaterial  string `json:"piping_material"`
	TankRDMethods   string `json:"tank_rd_methods"`
	PipeRDMethods   string `json:"pipe_rd_methods"`
}

// CandidateView is one facility offered for disambiguation
type CandidateView struct {
	FacilityID string `json:"facility_id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Label      string `json:"label"`
}

// NewFacilityView converts a lookup result
func NewFacilityView(res *lookup.Result) FacilityView {
	v := FacilityView{
		Query:    res.Query,
		Status:   string(res.Status),
		Warnings: res.Warnings,
		Path:     res.Path,
		Trace:    res.Trace,
	}
	if !res.FacilityID.IsMissing() {
		v.FacilityID = normalize.NormalizedString(res.FacilityID)
	}
	for _, c := range res.Candidates {
		v.Candidates = append(v.Candidates, CandidateView{
			FacilityID: normalize.NormalizedString(c.ID),
			Name:       c.Name,
			Address:    c.Address,
			Label:      c.Label(),
		})
	}
	if res.Status != facility.Resolved {
		return v
	}

	summary := res.Summary
	v.Summary = &summary
	v.Tanks = make([]TankView, 0, len(res.Tanks))
	for _, t := range res.Tanks {
		v.Tanks = append(v.Tanks, TankView{
			TankNumber:      t.TankNumber.String(),
			Contents:        t.Contents,
			Capacity:        t.Capacity,
			InstallDate:     t.InstallDate,
			Status:          t.Status,
			DoubleWall:      t.DoubleWall.String(),
			DoubleWallBasis: string(t.DoubleWall.Confidence),
			TankMaterial:    t.TankMaterial(),
			PipingMaterial:  flags.Join(t.Piping),
			TankRDMethods:   flags.Join(t.TankRD),
			PipeRDMethods:   flags.Join(t.PipeRD),
		})
	}
	if len(res.Stages) > 0 {
		v.Stages = make(map[string]string, len(res.Stages))
		for table, stage := range res.Stages {
			v.Stages[table] = string(stage)
		}
	}
	return v
}
