package admin

import "github.com/foxzi/mailpanel/internal/strapi"

// OwnerMatcher extracts a flat owner record from a raw campaign record,
// or nil when the record does not carry the owner in its shape
type OwnerMatcher struct {
	Name  string
	Match func(record map[string]any) map[string]any
}

// DefaultMatchers are tried in order; the first owner with a positive id wins
var DefaultMatchers = []OwnerMatcher{
	{Name: "top_level", Match: matchTopLevel},
	{Name: "attributes_direct", Match: matchAttributesDirect},
	{Name: "attributes_data", Match: matchAttributesData},
}

// matchTopLevel reads record.usuario as a user object, flat or wrapped
// under attributes
func matchTopLevel(record map[string]any) map[string]any {
	owner, _ := record["usuario"].(map[string]any)
	return strapi.ExtractFlat(owner)
}

// matchAttributesDirect reads record.attributes.usuario as a user object,
// flat or wrapped under attributes
func matchAttributesDirect(record map[string]any) map[string]any {
	attrs, _ := record["attributes"].(map[string]any)
	owner, _ := attrs["usuario"].(map[string]any)
	return strapi.ExtractFlat(owner)
}

// matchAttributesData reads record.attributes.usuario.data, optionally
// nested once more under attributes
func matchAttributesData(record map[string]any) map[string]any {
	attrs, _ := record["attributes"].(map[string]any)
	rel, _ := attrs["usuario"].(map[string]any)
	data, _ := rel["data"].(map[string]any)
	return strapi.ExtractFlat(data)
}

// resolveOwner runs matchers in order and returns the first owner with a
// usable id
func resolveOwner(matchers []OwnerMatcher, record map[string]any) (map[string]any, string) {
	for _, m := range matchers {
		owner := m.Match(record)
		if strapi.RecordID(owner) != 0 {
			return owner, m.Name
		}
	}
	return nil, ""
}
