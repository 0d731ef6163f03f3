package columns

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ust-lookup/internal/table"
)

// Resolution records which column plays a role and how it was found
type Resolution struct {
	Role     Role
	Column   string
	Rule     RuleKind
	Fallback bool // found through another role's rules
	Via      Role // role whose rules matched
}

// Resolver finds role columns in tables. Results are cached per table name
// and role, so a role is decided once per table for the life of the dataset.
type Resolver struct {
	rules map[Role]RoleRules

	mu    sync.Mutex
	cache map[cacheKey]cached
}

type cacheKey struct {
	table string
	role  Role
}

type cached struct {
	res Resolution
	ok  bool
}

// NewResolver creates a resolver over the given rule table; nil means
// DefaultRules
func NewResolver(rules map[Role]RoleRules) *Resolver {
	if rules == nil {
		rules = DefaultRules
	}
	return &Resolver{rules: rules, cache: make(map[cacheKey]cached)}
}

// Resolve returns the column playing role in t. The boolean is false when the
// role is unavailable for the table; callers skip the dependent stage.
func (r *Resolver) Resolve(t *table.Table, role Role) (Resolution, bool) {
	if t == nil || len(t.Columns()) == 0 {
		return Resolution{}, false
	}
	key := cacheKey{table: t.Name(), role: role}
	if key.table != "" {
		r.mu.Lock()
		c, hit := r.cache[key]
		r.mu.Unlock()
		if hit {
			return c.res, c.ok
		}
	}

	res, ok := r.resolve(t.Columns(), role)
	if ok {
		zap.L().Debug("columns: resolved",
			zap.String("table", t.Name()),
			zap.String("role", string(role)),
			zap.String("column", res.Column),
			zap.String("rule", string(res.Rule)),
			zap.Bool("fallback", res.Fallback))
	} else {
		zap.L().Debug("columns: role not found",
			zap.String("table", t.Name()),
			zap.String("role", string(role)),
			zap.Strings("columns", t.Columns()))
	}

	if key.table != "" {
		r.mu.Lock()
		r.cache[key] = cached{res: res, ok: ok}
		r.mu.Unlock()
	}
	return res, ok
}

// Column is Resolve returning only the column name
func (r *Resolver) Column(t *table.Table, role Role) (string, bool) {
	res, ok := r.Resolve(t, role)
	return res.Column, ok
}

func (r *Resolver) resolve(cols []string, role Role) (Resolution, bool) {
	rr, known := r.rules[role]
	if !known {
		return Resolution{}, false
	}
	if col, kind, ok := Match(cols, rr.Rules); ok {
		return Resolution{Role: role, Column: col, Rule: kind, Via: role}, true
	}
	for _, fb := range rr.Fallback {
		fbRules, ok := r.rules[fb]
		if !ok {
			continue
		}
		// Fallback roles are only taken on exact aliases, the way a small
		// facility indexed by owner carries an "owner id" column verbatim.
		if col, kind, ok := Match(cols, exactOnly(fbRules.Rules)); ok {
			return Resolution{Role: role, Column: col, Rule: kind, Fallback: true, Via: fb}, true
		}
	}
	return Resolution{}, false
}

func exactOnly(rules []Rule) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.Kind == ExactAlias {
			out = append(out, r)
		}
	}
	return out
}

// Match evaluates rules in order against column names; first match wins.
// Exact aliases are tried in alias order, the other kinds in column order.
func Match(cols []string, rules []Rule) (string, RuleKind, bool) {
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}
	for _, rule := range rules {
		switch rule.Kind {
		case ExactAlias:
			for _, a := range rule.Aliases {
				if present[a] {
					return a, rule.Kind, true
				}
			}
		case Regex:
			for _, c := range cols {
				lc := strings.ToLower(strings.TrimSpace(c))
				for _, re := range rule.Patterns {
					if re.MatchString(lc) {
						return c, rule.Kind, true
					}
				}
			}
		case SubstringAll:
			for _, c := range cols {
				if containsAll(c, rule.Stems, rule.All) {
					return c, rule.Kind, true
				}
			}
		}
	}
	return "", "", false
}

func containsAll(col string, stems, all []string) bool {
	lc := strings.ToLower(col)
	lc = strings.NewReplacer("_", " ", "-", " ").Replace(lc)
	stem := len(stems) == 0
	for _, s := range stems {
		if strings.Contains(lc, s) {
			stem = true
			break
		}
	}
	if !stem {
		return false
	}
	for _, a := range all {
		if !strings.Contains(lc, a) {
			return false
		}
	}
	return true
}

// Pick returns the first candidate column present in t
func Pick(t *table.Table, candidates ...string) (string, bool) {
	for _, c := range candidates {
		if t.HasColumn(c) {
			return table.NormalizeColumn(c), true
		}
	}
	return "", false
}

// PickAll returns the present candidates in candidate order
func PickAll(t *table.Table, candidates ...string) []string {
	var out []string
	for _, c := range candidates {
		if t.HasColumn(c) {
			out = append(out, table.NormalizeColumn(c))
		}
	}
	return out
}

// Report lists every role resolved for a table, for the debug column listing
func (r *Resolver) Report(t *table.Table) []Resolution {
	roles := []Role{FacilityID, OwnerID, SiteID, TankNumber, TankStatus, DoubleWall, FacilityName}
	var out []Resolution
	for _, role := range roles {
		if res, ok := r.Resolve(t, role); ok {
			out = append(out, res)
		}
	}
	return out
}
