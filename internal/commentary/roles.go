package commentary

const (
	// RolePrimary is the canonical key of the lead commentator.
	RolePrimary = "playByPlay"
	// RoleSecondary is the canonical key of the supporting commentator.
	RoleSecondary = "analyst"

	DefaultPrimaryLabel   = "Play-by-Play"
	DefaultSecondaryLabel = "Analyst"
)

// Roles lists the recognized roles in display order.
var Roles = []string{RolePrimary, RoleSecondary}

// roleInputKeys are the commentators-block keys accepted for each role, in
// lookup order.
var roleInputKeys = map[string][]string{
	RolePrimary:   {RolePrimary, "primary"},
	RoleSecondary: {RoleSecondary, "secondary"},
}

var defaultLabels = map[string]string{
	RolePrimary:   DefaultPrimaryLabel,
	RoleSecondary: DefaultSecondaryLabel,
}
