package columns

import "regexp"

// Role is the semantic part a column plays in a table
type Role string

const (
	FacilityID   Role = "facility-id"
	OwnerID      Role = "owner-id"
	SiteID       Role = "site-id"
	TankNumber   Role = "tank-number"
	TankStatus   Role = "tank-status"
	DoubleWall   Role = "double-wall"
	FacilityName Role = "facility-name"
)

// RuleKind tags the variant held by a Rule
type RuleKind string

const (
	ExactAlias   RuleKind = "exact"
	Regex        RuleKind = "regex"
	SubstringAll RuleKind = "substring"
)

// Rule is one matching rule. Exactly one of the payload fields is used,
// selected by Kind.
type Rule struct {
	Kind RuleKind

	// ExactAlias
	Aliases []string

	// Regex
	Patterns []*regexp.Regexp

	// SubstringAll: the name must contain one of Stems and every part of All
	Stems []string
	All   []string
}

// RoleRules binds a role to its ordered rules and the roles to try when none
// of its own rules match
type RoleRules struct {
	Rules    []Rule
	Fallback []Role
}

func aliases(a ...string) Rule { return Rule{Kind: ExactAlias, Aliases: a} }

func patterns(p ...string) Rule {
	r := Rule{Kind: Regex}
	for _, s := range p {
		r.Patterns = append(r.Patterns, regexp.MustCompile(s))
	}
	return r
}

func substring(stems []string, all ...string) Rule {
	return Rule{Kind: SubstringAll, Stems: stems, All: all}
}

// DefaultRules is the rule table for the UST source files
var DefaultRules = map[Role]RoleRules{
	FacilityID: {
		Rules: []Rule{
			aliases("facility id", "facilityid", "facid", "fac_id", "fac id", "fac-id",
				"facility_number", "facility number", "facility_no", "facilityno", "facno", "fac no"),
			patterns(
				`^fac[\s_\-]*id$`,
				`^facility[\s_\-]*id$`,
				`^facilityid$`,
				`^facid$`,
				`^facility[\s_\-]*number$`,
				`^facilityno$`,
				`^facility[\s_\-]*no$`,
				`^facno$`,
				`^fac[\s_\-]*no$`,
			),
			substring([]string{"facility", "fac"}, "id"),
		},
		Fallback: []Role{OwnerID, SiteID},
	},
	OwnerID: {
		Rules: []Rule{
			aliases("owner id", "ownerid", "ownid"),
			patterns(`^owner[\s_\-]*id$`, `^own[\s_\-]*id$`),
		},
	},
	SiteID: {
		Rules: []Rule{
			aliases("site id", "siteid"),
			patterns(`^site[\s_\-]*id$`),
		},
	},
	TankNumber: {
		Rules: []Rule{
			aliases("tank number", "tanknumber", "tank no", "tank_no", "tank num", "tank id"),
			patterns(`^tank[\s_\-]*(number|no|num|id)$`),
		},
	},
	TankStatus: {
		Rules: []Rule{
			aliases("tank status", "tankstatus", "status"),
			patterns(`^tank[\s_\-]*status$`),
		},
	},
	DoubleWall: {
		Rules: []Rule{
			aliases("tank material double walled", "double walled", "double wall"),
			patterns(`^(tank[\s_\-]*material[\s_\-]*)?double[\s_\-]*wall(ed)?$`),
		},
	},
	FacilityName: {
		Rules: []Rule{
			aliases("facility name", "facilityname", "fac name"),
			patterns(`^facility[\s_\-]*name$`),
		},
	},
}

// Address part candidates, in preference order
var (
	StreetColumns = []string{"site address 1", "site address", "address 1", "address", "facility address 1", "facility address"}
	CityColumns   = []string{"site city", "city", "facility city"}
	StateColumns  = []string{"site state", "state", "facility state"}
	ZipColumns    = []string{"site zip", "zip", "zipcode", "zip code", "zip 5", "facility zip"}

	OwnerAddressColumns = []string{"owner address 1", "owner city", "owner state", "owner zip"}
	OwnerNameColumns    = []string{"name", "owner name", "site name"}
	SiteNameColumns     = []string{"name", "site name"}
)
