package lookup

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ust-lookup/internal/columns"
	"github.com/ust-lookup/internal/facility"
	"github.com/ust-lookup/internal/normalize"
	"github.com/ust-lookup/internal/table"
)

const notAvailable = "N/A"

// Summary is the facility header shown above the tank list
type Summary struct {
	Owner        string `json:"owner"`
	SiteName     string `json:"site_name"`
	OwnerAddress string `json:"owner_address"`
	SiteAddress  string `json:"site_address"`
	FacilityID   string `json:"facility_id"`
	DealerID     string `json:"dealer_id"`
}

func buildSummary(facilityID table.Value, owners, sites *table.Table, cols *columns.Resolver) Summary {
	s := Summary{
		Owner:        lastText(owners, "owner name"),
		SiteName:     lastText(owners, "name"),
		OwnerAddress: ownerAddress(owners),
		SiteAddress:  notAvailable,
		FacilityID:   normalize.NormalizedString(facilityID),
		DealerID:     notAvailable,
	}
	if addr := facility.SiteAddress(sites); addr != "" {
		s.SiteAddress = addr
	}
	if col, ok := cols.Column(owners, columns.OwnerID); ok {
		if dealer, ok := maxIdentifier(owners.Values(col)); ok {
			s.DealerID = normalize.NormalizedString(dealer)
		}
	}
	return s
}

func lastText(t *table.Table, col string) string {
	v, ok := t.Last(col)
	if !ok || v.IsMissing() {
		return notAvailable
	}
	return strings.TrimSpace(v.String())
}

func ownerAddress(owners *table.Table) string {
	if owners.Len() == 0 {
		return notAvailable
	}
	for _, c := range columns.OwnerAddressColumns {
		if !owners.HasColumn(c) {
			return notAvailable
		}
	}
	last := owners.Row(owners.Len() - 1)
	zip, _ := last.Get("owner zip")
	return normalize.DisplayAddress(normalize.AddressParts{
		Street: last.Text("owner address 1"),
		City:   last.Text("owner city"),
		State:  last.Text("owner state"),
		Zip:    zip,
	})
}

// maxIdentifier returns the numerically largest value, or the largest by text
// when none of the values are numeric
func maxIdentifier(values []table.Value) (table.Value, bool) {
	var best table.Value
	var bestNum decimal.Decimal
	found, numeric := false, false
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		if n, ok := normalize.Numeric(v); ok {
			if !numeric || n.GreaterThan(bestNum) {
				best, bestNum, numeric, found = v, n, true, true
			}
			continue
		}
		if !numeric && (!found || strings.TrimSpace(v.String()) > strings.TrimSpace(best.String())) {
			best, found = v, true
		}
	}
	return best, found
}

// ownerIDFor derives the owner id used by owner-keyed joins: the last numeric
// owner id of the facility's owner rows, else the last raw one
func ownerIDFor(owners *table.Table, cols *columns.Resolver) table.Value {
	col, ok := cols.Column(owners, columns.OwnerID)
	if !ok {
		return table.Null()
	}
	values := owners.Values(col)
	for i := len(values) - 1; i >= 0; i-- {
		if n, ok := normalize.Numeric(values[i]); ok && n.IsInteger() {
			if !n.BigInt().IsInt64() {
				return table.Str(n.String())
			}
			return table.IntValue(n.IntPart())
		}
	}
	for i := len(values) - 1; i >= 0; i-- {
		if !values[i].IsMissing() {
			return values[i]
		}
	}
	return table.Null()
}
