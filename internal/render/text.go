package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ust-lookup/internal/assemble"
	"github.com/ust-lookup/internal/facility"
	"github.com/ust-lookup/internal/flags"
	"github.com/ust-lookup/internal/lookup"
)

const rule = "---"

// Text writes a lookup result in the layout used by the CLI
func Text(w io.Writer, res *lookup.Result) error {
	var b strings.Builder

	switch res.Status {
	case facility.NotFound:
		b.WriteString("No facility found for that ID or name.\n")
	case facility.Ambiguous:
		b.WriteString("Multiple facilities matched your search:\n")
		for i, c := range res.Candidates {
			fmt.Fprintf(&b, "  %d) %s\n", i+1, c.Label())
		}
	default:
		writeSummary(&b, res.Summary)
		writeTanks(&b, res.Tanks)
	}

	for _, warn := range res.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warn)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSummary(b *strings.Builder, s lookup.Summary) {
	b.WriteString("Facility Summary\n")
	fmt.Fprintf(b, "Owner: %s\n", s.Owner)
	fmt.Fprintf(b, "Site Name: %s\n", s.SiteName)
	fmt.Fprintf(b, "Owner Address: %s\n", s.OwnerAddress)
	fmt.Fprintf(b, "Site Address: %s\n", s.SiteAddress)
	fmt.Fprintf(b, "Facility ID: %s\n", s.FacilityID)
	fmt.Fprintf(b, "Dealer ID: %s\n", s.DealerID)
	b.WriteString("\n")
}

func writeTanks(b *strings.Builder, tanks []assemble.TankRecord) {
	b.WriteString("Active Tanks\n")
	if len(tanks) == 0 {
		b.WriteString("No active tanks.\n")
		return
	}
	for _, t := range tanks {
		fmt.Fprintf(b, "Tank #%s: %s\n", t.TankNumber.String(), t.Contents)
		fmt.Fprintf(b, "- Capacity: %s gallons\n", t.Capacity)
		fmt.Fprintf(b, "- Install Date: %s\n", t.InstallDate)
		fmt.Fprintf(b, "- Status: %s\n", t.Status)
		fmt.Fprintf(b, "- Double Wall: %s\n", t.DoubleWall)
		fmt.Fprintf(b, "- Tank Material: %s\n", t.TankMaterial())
		fmt.Fprintf(b, "- Piping Material: %s\n", flags.Join(t.Piping))
		fmt.Fprintf(b, "Tank RD Methods: %s\n", flags.Join(t.TankRD))
		fmt.Fprintf(b, "Pipe RD Methods: %s\n", flags.Join(t.PipeRD))
		b.WriteString(rule + "\n")
	}
}

// Columns writes each table's columns and the roles detected in them
func Columns(w io.Writer, reports []TableReport) error {
	var b strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&b, "%s (%d rows)\n", r.Name, r.Rows)
		fmt.Fprintf(&b, "  columns: %s\n", strings.Join(r.Columns, ", "))
		for _, role := range r.Roles {
			fmt.Fprintf(&b, "  %s\n", role)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
