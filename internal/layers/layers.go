// Package layers turns a raw geographic dataset into the fixed set of
// canonical render layers. Classification is a pure function of the input
// tags; the layer ordering is global and independent of theme.
package layers

import (
	"github.com/cartapress/cartapress/internal/model"
)

// Road subtypes, from widest to narrowest class.
const (
	SubtypeMotorway    = "motorway"
	SubtypePrimary     = "primary"
	SubtypeSecondary   = "secondary"
	SubtypeTertiary    = "tertiary"
	SubtypeResidential = "residential"
	SubtypeDefault     = "default"
)

// Rail subtypes.
const (
	SubtypeRail      = "rail"
	SubtypeSubway    = "subway"
	SubtypeTram      = "tram"
	SubtypeLightRail = "light_rail"
)

// Key identifies one canonical layer.
type Key struct {
	Category model.FeatureCategory
	Subtype  string
}

// Layer is one canonical layer with the features classified into it.
type Layer struct {
	Key      Key
	Features []model.Feature
}

// Order is the global draw order, bottom to top. Every Build result contains
// exactly these layers in exactly this sequence, empty or not.
var Order = []Key{
	{model.CategoryWater, "water"},
	{model.CategoryParks, "parks"},
	{model.CategoryBuildings, "buildings"},
	{model.CategoryRoads, SubtypeMotorway},
	{model.CategoryRoads, SubtypePrimary},
	{model.CategoryRoads, SubtypeSecondary},
	{model.CategoryRoads, SubtypeTertiary},
	{model.CategoryRoads, SubtypeResidential},
	{model.CategoryRoads, SubtypeDefault},
	{model.CategoryRail, SubtypeRail},
	{model.CategoryRail, SubtypeSubway},
	{model.CategoryRail, SubtypeTram},
	{model.CategoryRail, SubtypeLightRail},
	{model.CategoryRail, SubtypeDefault},
}

// rule maps a tag value to a subtype. Rules for a category are evaluated in
// order; the first match wins.
type rule struct {
	values  []string
	subtype string
}

var roadRules = []rule{
	{[]string{"motorway", "motorway_link"}, SubtypeMotorway},
	{[]string{"trunk", "trunk_link", "primary", "primary_link"}, SubtypePrimary},
	{[]string{"secondary", "secondary_link"}, SubtypeSecondary},
	{[]string{"tertiary", "tertiary_link"}, SubtypeTertiary},
	{[]string{"residential", "living_street", "unclassified"}, SubtypeResidential},
}

var railRules = []rule{
	{[]string{"rail"}, SubtypeRail},
	{[]string{"subway"}, SubtypeSubway},
	{[]string{"tram"}, SubtypeTram},
	{[]string{"light_rail"}, SubtypeLightRail},
}

func matchRules(rules []rule, value string) string {
	for _, r := range rules {
		for _, v := range r.values {
			if v == value {
				return r.subtype
			}
		}
	}
	return SubtypeDefault
}

// Classify returns the canonical layer key for a feature in the given
// category. Features matching no rule land in the category's default bucket,
// never dropped.
func Classify(category model.FeatureCategory, tags map[string]string) Key {
	switch category {
	case model.CategoryRoads:
		return Key{category, matchRules(roadRules, tags["highway"])}
	case model.CategoryRail:
		return Key{category, matchRules(railRules, tags["railway"])}
	default:
		return Key{category, string(category)}
	}
}

// Build classifies every feature in the dataset and returns the complete
// layer list in draw order. Identical input yields identical output; feature
// order within a layer follows the dataset's collection order.
func Build(ds model.Dataset) []Layer {
	byKey := make(map[Key][]model.Feature, len(Order))
	for _, category := range model.Categories {
		for _, f := range ds.Categories[category] {
			k := Classify(category, f.Tags)
			byKey[k] = append(byKey[k], f)
		}
	}

	out := make([]Layer, len(Order))
	for i, k := range Order {
		out[i] = Layer{Key: k, Features: byKey[k]}
	}
	return out
}
