// Package topic maps resources onto display categories and caches which categories are active.
package topic

import (
	"strings"

	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// Display categories.
const (
	CategoryDisclosure           = "Disclosure"
	CategoryAssurance            = "Assurance"
	CategoryMultiStakeholder     = "Multi-Stakeholder Working"
	CategorySocialAccountability = "Social Accountability"
	CategoryOpenData             = "Open Data"
	CategoryProcurement          = "Procurement"
	CategoryClimate              = "Climate & Infrastructure"
)

// categoryByKey maps normalised workstream and tag values to a display category.
var categoryByKey = map[string]string{
	"disclosure":                CategoryDisclosure,
	"data-disclosure":           CategoryDisclosure,
	"assurance":                 CategoryAssurance,
	"multi-stakeholder-working": CategoryMultiStakeholder,
	"multi-stakeholder":         CategoryMultiStakeholder,
	"msg":                       CategoryMultiStakeholder,
	"social-accountability":     CategorySocialAccountability,
	"oc4ids":                    CategoryOpenData,
	"open-data":                 CategoryOpenData,
	"open-contracting":          CategoryOpenData,
	"procurement":               CategoryProcurement,
	"climate":                   CategoryClimate,
	"climate-finance":           CategoryClimate,
}

// CategoryFor derives the display category of a resource: the first mapped workstream,
// otherwise the first mapped tag. Unmapped resources have no category ("").
func CategoryFor(r *resource.Resource) string {
	for _, w := range r.Workstreams {
		if c, ok := categoryByKey[normalise(w)]; ok {
			return c
		}
	}
	for _, t := range r.Tags {
		if c, ok := categoryByKey[normalise(t)]; ok {
			return c
		}
	}
	return ""
}

func normalise(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "-")
}
