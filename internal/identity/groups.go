package identity

// Group mirrors a user pool group: a name, an optional IAM role mapping and
// a precedence that breaks ties when one principal belongs to several
// role-mapped groups.
type Group struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Precedence  int    `json:"precedence"`
	RoleARN     string `json:"role_arn,omitempty"`
}

// SelectRole picks the group whose role mapping wins for a principal with
// the given memberships: lowest precedence first, name order on ties (the
// upstream service leaves ties undefined; deterministic output is
// friendlier for tooling). Groups without a role mapping never win. The
// second return is false when no group carries a role.
func SelectRole(groups []Group) (Group, bool) {
	var best Group
	found := false
	for _, g := range groups {
		if g.RoleARN == "" {
			continue
		}
		if !found || g.Precedence < best.Precedence ||
			(g.Precedence == best.Precedence && g.Name < best.Name) {
			best = g
			found = true
		}
	}
	return best, found
}
