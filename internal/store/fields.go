package store

import "strings"

// Fields is the set of optional project sub-collections present in a cached
// project. A field absent from the set was never fetched, which is distinct
// from a field fetched empty.
type Fields uint8

const (
	FieldVariables Fields = 1 << iota
	FieldEnvironments
	FieldApplications
	FieldPipelines
	FieldGroups
	FieldRepositoriesManagers
)

// AllFields is every optional project field.
const AllFields = FieldVariables | FieldEnvironments | FieldApplications |
	FieldPipelines | FieldGroups | FieldRepositoriesManagers

var fieldNames = []struct {
	field  Fields
	name   string
	option string
}{
	{FieldVariables, "variables", "withVariables"},
	{FieldEnvironments, "environments", "withEnvironments"},
	{FieldApplications, "applications", "withApplicationNames"},
	{FieldPipelines, "pipelines", "withPipelineNames"},
	{FieldGroups, "groups", "withGroups"},
	{FieldRepositoriesManagers, "repositories_managers", ""},
}

// Has reports whether every field of o is in f.
func (f Fields) Has(o Fields) bool {
	return f&o == o
}

// Missing returns the fields of f absent from have.
func (f Fields) Missing(have Fields) Fields {
	return f &^ have
}

// Options returns the load options to request f from the API. Repositories
// managers have their own endpoint and no load option.
func (f Fields) Options() []string {
	var opts []string
	for _, fn := range fieldNames {
		if f.Has(fn.field) && fn.option != "" {
			opts = append(opts, fn.option)
		}
	}
	return opts
}

func (f Fields) String() string {
	var names []string
	for _, fn := range fieldNames {
		if f.Has(fn.field) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseFields parses a comma separated list of field names.
func ParseFields(s string) (Fields, bool) {
	var f Fields
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "all" {
			f |= AllFields
			continue
		}
		found := false
		for _, fn := range fieldNames {
			if fn.name == part {
				f |= fn.field
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return f, true
}
