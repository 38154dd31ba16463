package search

import (
	"github.com/cengkuru/costknowledgehub/internal/db"
	"github.com/cengkuru/costknowledgehub/internal/repository/resource"
)

// Index field aliases.
const (
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldTags            = "tags"
	FieldThemesText      = "themesText"
	FieldThemes          = "themes"
	FieldStatus          = "status"
	FieldResourceType    = "resourceType"
	FieldCountryPrograms = "countryPrograms"
	FieldAudience        = "audience"
	FieldLanguage        = "language"
	FieldWorkstreams     = "workstreams"
	FieldHasEmbedding    = "hasEmbedding"
	FieldPublicationTs   = "publicationTs"
	FieldClicks          = "clicks"
)

// indexLanguage is the stemmer for title and description; most catalog text is English.
const indexLanguage = "english"

// Text field weights: title matches count most, then description, tags and themes.
const (
	weightTitle       = 10
	weightDescription = 5
	weightTags        = 3
	weightThemes      = 1
)

// BuildIndex returns the FT index over resource JSON documents.
// Classification fields are case-sensitive tags so facet values keep their stored spelling.
// Stop words stay searchable and tag text is not stemmed ("oc4ids", "msg").
func BuildIndex(keys resource.Keys) (*db.IndexDefinition, error) {
	return db.NewIndex(keys.Index()).
		OnJSON().
		Prefix(keys.ResourcePrefix()).
		Language(indexLanguage).
		NoStopwords().
		TextWeighted("$.title", weightTitle).As(FieldTitle).
		TextWeighted("$.description", weightDescription).As(FieldDescription).
		TextWeighted("$.tags[*]", weightTags).As(FieldTags).NoStem().
		TextWeighted("$.themes[*]", weightThemes).As(FieldThemesText).
		TagWithOpts("$.themes[*]", "", true).As(FieldThemes).
		Tag("$.status").As(FieldStatus).
		TagWithOpts("$.resourceType", "", true).As(FieldResourceType).
		TagWithOpts("$.countryPrograms[*]", "", true).As(FieldCountryPrograms).
		TagWithOpts("$.audience[*]", "", true).As(FieldAudience).
		TagWithOpts("$.language", "", true).As(FieldLanguage).
		TagWithOpts("$.workstreams[*]", "", true).As(FieldWorkstreams).
		Tag("$.hasEmbedding").As(FieldHasEmbedding).
		Numeric("$.publicationTs").As(FieldPublicationTs).Sortable().
		Numeric("$.clicks").As(FieldClicks).Sortable().
		Build()
}
