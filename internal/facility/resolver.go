package facility

import (
	"fmt"
	"strings"

	"github.com/ust-lookup/internal/columns"
	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/debug"
	"github.com/ust-lookup/internal/normalize"
	"github.com/ust-lookup/internal/table"
)

// Status is the outcome of resolving a query
type Status string

const (
	Resolved  Status = "resolved"
	Ambiguous Status = "ambiguous"
	NotFound  Status = "not-found"
)

// Candidate is one facility a query could refer to
type Candidate struct {
	ID      table.Value
	Name    string
	Address string
}

// Label renders "{id} — {name} — {address}" with N/A for missing parts
func (c Candidate) Label() string {
	return fmt.Sprintf("%s — %s — %s", normalize.NormalizedString(c.ID), orNA(c.Name), orNA(c.Address))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// Resolution is the result of Resolve. FacilityID is set when Status is
// Resolved; Candidates when it is Ambiguous.
type Resolution struct {
	Status     Status
	FacilityID table.Value
	Candidates []Candidate
	// Path lists the search steps that were tried, in order
	Path []string
}

// Search steps
const (
	StepIdentifier   = "facility-id"
	StepFacilityName = "facility-name"
	StepOwners       = "owners"
	StepSiteInfo     = "site-info"
)

// Resolver maps free-text queries to facility identifiers
type Resolver struct {
	ds    *dataset.Dataset
	cols  *columns.Resolver
	trace *debug.Trace
}

// NewResolver creates a resolver over a dataset. trace may be nil.
func NewResolver(ds *dataset.Dataset, trace *debug.Trace) *Resolver {
	return &Resolver{ds: ds, cols: ds.Columns, trace: trace}
}

// Resolve turns a query into a facility identifier. Integer queries are
// matched against the tanks facility column; anything else, or an integer
// that does not match exactly one facility, is searched by facility name,
// then owner names and addresses, then site names and addresses.
func (r *Resolver) Resolve(query string) Resolution {
	q := strings.TrimSpace(query)
	var res Resolution
	if q == "" {
		res.Status = NotFound
		return res
	}

	if normalize.IsInteger(q) {
		res.Path = append(res.Path, StepIdentifier)
		groups := r.byIdentifier(q)
		r.trace.Add("resolve", "identifier %q: %d distinct facilities", q, len(groups))
		if len(groups) == 1 {
			res.Status = Resolved
			res.FacilityID = groups[0]
			return res
		}
	}

	res.Path = append(res.Path, StepFacilityName)
	if id, ok := r.byFacilityName(q); ok {
		r.trace.Add("resolve", "facility name contains %q: facility %s", q, id.String())
		res.Status = Resolved
		res.FacilityID = id
		return res
	}

	res.Path = append(res.Path, StepOwners)
	ids := r.search(r.ds.Owners, q, columns.OwnerNameColumns, ownerAddress)
	r.trace.Add("resolve", "owners search %q: %d facilities", q, len(ids))
	if len(ids) == 0 {
		res.Path = append(res.Path, StepSiteInfo)
		ids = r.search(r.ds.SiteInfo, q, columns.SiteNameColumns, siteAddress)
		r.trace.Add("resolve", "site info search %q: %d facilities", q, len(ids))
	}

	switch len(ids) {
	case 0:
		res.Status = NotFound
	case 1:
		res.Status = Resolved
		res.FacilityID = ids[0]
	default:
		res.Status = Ambiguous
		res.Candidates = r.candidates(ids)
	}
	return res
}

// byIdentifier matches the tanks facility column and returns one value per
// distinct facility, each the first matching row's raw value. Rows are
// grouped by the equality of the strategy that produced the match.
func (r *Resolver) byIdentifier(q string) []table.Value {
	col, ok := r.cols.Column(r.ds.Tanks, columns.FacilityID)
	if !ok {
		return nil
	}
	values := r.ds.Tanks.Values(col)
	idx, strategy, counts := normalize.MatchChain(values, table.Str(q), normalize.IdentifierStrategies)
	r.trace.Add("resolve", "tanks column %q counts=%v winner=%s", col, counts, strategy)
	matched := make([]table.Value, 0, len(idx))
	for _, i := range idx {
		matched = append(matched, values[i])
	}
	return normalize.Group(matched, strategy)
}

func (r *Resolver) byFacilityName(q string) (table.Value, bool) {
	nameCol, ok := r.cols.Column(r.ds.Tanks, columns.FacilityName)
	if !ok {
		return table.Value{}, false
	}
	idCol, ok := r.cols.Column(r.ds.Tanks, columns.FacilityID)
	if !ok {
		return table.Value{}, false
	}
	for _, row := range r.ds.Tanks.Rows() {
		if normalize.ContainsFold(row.Text(nameCol), q) {
			id, _ := row.Get(idCol)
			if !id.IsMissing() {
				return id, true
			}
		}
	}
	return table.Value{}, false
}

// addressFunc builds the searchable full address of a row, "" when the table
// lacks an address part
type addressFunc func(t *table.Table, row table.Row) string

func ownerAddress(t *table.Table, row table.Row) string {
	for _, c := range columns.OwnerAddressColumns {
		if !t.HasColumn(c) {
			return ""
		}
	}
	zip, _ := row.Get("owner zip")
	return normalize.FullAddress(normalize.AddressParts{
		Street: row.Text("owner address 1"),
		City:   row.Text("owner city"),
		State:  row.Text("owner state"),
		Zip:    zip,
	})
}

func siteAddress(t *table.Table, row table.Row) string {
	parts, ok := sitePartColumns(t)
	if !ok {
		return ""
	}
	zip, _ := row.Get(parts[3])
	return normalize.FullAddress(normalize.AddressParts{
		Street: row.Text(parts[0]),
		City:   row.Text(parts[1]),
		State:  row.Text(parts[2]),
		Zip:    zip,
	})
}

func sitePartColumns(t *table.Table) ([4]string, bool) {
	var parts [4]string
	for i, candidates := range [][]string{columns.StreetColumns, columns.CityColumns, columns.StateColumns, columns.ZipColumns} {
		c, ok := columns.Pick(t, candidates...)
		if !ok {
			return parts, false
		}
		parts[i] = c
	}
	return parts, true
}

// search finds rows whose name columns or full address contain q and returns
// their distinct facility ids
func (r *Resolver) search(t *table.Table, q string, nameCandidates []string, addr addressFunc) []table.Value {
	if t.IsEmpty() {
		return nil
	}
	idCol, ok := r.cols.Column(t, columns.FacilityID)
	if !ok {
		r.trace.Add("resolve", "%s has no facility column; skipping", t.Name())
		return nil
	}
	names := columns.PickAll(t, nameCandidates...)
	var ids []table.Value
	for _, row := range t.Rows() {
		hit := normalize.ContainsFold(addr(t, row), q)
		for _, c := range names {
			if hit {
				break
			}
			hit = normalize.ContainsFold(row.Text(c), q)
		}
		if !hit {
			continue
		}
		if id, _ := row.Get(idCol); !id.IsMissing() {
			ids = append(ids, id)
		}
	}
	return dedupe(ids)
}

// dedupe keeps the first value of each digits-only form. Values without
// digits are keyed by their case-folded normalized text.
func dedupe(values []table.Value) []table.Value {
	seen := make(map[string]bool, len(values))
	var out []table.Value
	for _, v := range values {
		key := identityKey(v)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func identityKey(v table.Value) string {
	if d := normalize.DigitsOnly(v); d != "" {
		return "#" + d
	}
	return strings.ToLower(normalize.NormalizedString(v))
}

func (r *Resolver) candidates(ids []table.Value) []Candidate {
	out := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.Candidate(id))
	}
	return out
}

// Candidate labels one facility id: the latest owner name (falling back to
// the site name) and the site address with the ZIP normalized
func (r *Resolver) Candidate(id table.Value) Candidate {
	c := Candidate{ID: id}

	if owners := r.rowsFor(r.ds.Owners, id); owners.Len() > 0 {
		if v, ok := owners.Last("name"); ok && !v.IsMissing() {
			c.Name = v.String()
		}
	}
	sites := r.rowsFor(r.ds.SiteInfo, id)
	if c.Name == "" && sites.Len() > 0 {
		if v, ok := sites.Last("name"); ok && !v.IsMissing() {
			c.Name = v.String()
		}
	}
	c.Address = SiteAddress(sites)
	return c
}

// SiteAddress renders the address of the last row of a site table with the
// ZIP normalized. It is "" when the table lacks any of the address parts.
func SiteAddress(sites *table.Table) string {
	if sites.Len() == 0 {
		return ""
	}
	parts, ok := sitePartColumns(sites)
	if !ok {
		return ""
	}
	last := sites.Row(sites.Len() - 1)
	zip, _ := last.Get(parts[3])
	return normalize.DisplayAddress(normalize.AddressParts{
		Street: last.Text(parts[0]),
		City:   last.Text(parts[1]),
		State:  last.Text(parts[2]),
		Zip:    zip,
	})
}

// rowsFor returns the rows of t keyed to a facility id
func (r *Resolver) rowsFor(t *table.Table, id table.Value) *table.Table {
	if t.IsEmpty() {
		return table.Empty(t.Name())
	}
	col, ok := r.cols.Column(t, columns.FacilityID)
	if !ok {
		return table.Empty(t.Name())
	}
	idx, _, _ := normalize.MatchChain(t.Values(col), id, normalize.IdentifierStrategies)
	return t.Subset(idx)
}
