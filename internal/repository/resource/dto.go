package resource

import (
	"time"

	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// Doc is the JSON shape stored at ckh:resource:<id> and indexed by the search index.
// publicationTs and hasEmbedding exist only for the index.
type Doc struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`

	ResourceType    string   `json:"resourceType"`
	Themes          []string `json:"themes"`
	CountryPrograms []string `json:"countryPrograms"`
	OC4IDSAlignment []string `json:"oc4idsAlignment"`
	Workstreams     []string `json:"workstreams"`
	Audience        []string `json:"audience"`

	AccessLevel   string               `json:"accessLevel"`
	Language      string               `json:"language"`
	IsTranslation bool                 `json:"isTranslation"`
	CanonicalID   string               `json:"canonicalId,omitempty"`
	Translations  []domres.Translation `json:"translations"`

	PublicationDate *time.Time `json:"publicationDate,omitempty"`
	PublicationTs   int64      `json:"publicationTs"`
	LastVerified    *time.Time `json:"lastVerified,omitempty"`
	ValidUntil      *time.Time `json:"validUntil,omitempty"`

	Status         string                   `json:"status"`
	StatusHistory  []lifecycle.StatusChange `json:"statusHistory"`
	PublishedAt    *time.Time               `json:"publishedAt"`
	ArchivedAt     *time.Time               `json:"archivedAt"`
	ArchivedReason *string                  `json:"archivedReason"`

	Clicks        int64      `json:"clicks"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
	AICitations   int        `json:"aiCitations"`
	Embedding     []float32  `json:"embedding,omitempty"`
	HasEmbedding  string     `json:"hasEmbedding"`
	Summary       string     `json:"summary,omitempty"`

	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
}

// ToDoc converts a domain resource into its stored shape.
func ToDoc(r *domres.Resource) Doc {
	d := Doc{
		ID:              r.ID,
		Slug:            r.Slug,
		URL:             r.URL,
		Title:           r.Title,
		Description:     r.Description,
		Tags:            nonNil(r.Tags),
		ResourceType:    string(r.ResourceType),
		Themes:          nonNil(r.Themes),
		CountryPrograms: nonNil(r.CountryPrograms),
		OC4IDSAlignment: nonNil(r.OC4IDSAlignment),
		Workstreams:     nonNil(r.Workstreams),
		Audience:        nonNil(r.Audience),
		AccessLevel:     string(r.AccessLevel),
		Language:        r.Language,
		IsTranslation:   r.IsTranslation,
		CanonicalID:     r.CanonicalID,
		Translations:    r.Translations,
		ValidUntil:      r.ValidUntil,
		Status:          string(r.Status),
		StatusHistory:   r.StatusHistory,
		PublishedAt:     r.PublishedAt,
		ArchivedAt:      r.ArchivedAt,
		ArchivedReason:  r.ArchivedReason,
		Clicks:          r.Clicks,
		LastClickedAt:   r.LastClickedAt,
		AICitations:     r.AICitations,
		Embedding:       r.Embedding,
		HasEmbedding:    boolTag(r.HasEmbedding()),
		Summary:         r.Summary,
		Source:          string(r.Source),
		CreatedAt:       r.CreatedAt,
		CreatedBy:       r.CreatedBy,
		UpdatedAt:       r.UpdatedAt,
		UpdatedBy:       r.UpdatedBy,
	}
	if d.Translations == nil {
		d.Translations = []domres.Translation{}
	}
	if d.StatusHistory == nil {
		d.StatusHistory = []lifecycle.StatusChange{}
	}
	if !r.PublicationDate.IsZero() {
		t := r.PublicationDate
		d.PublicationDate = &t
		d.PublicationTs = t.Unix()
	}
	if !r.LastVerified.IsZero() {
		t := r.LastVerified
		d.LastVerified = &t
	}
	return d
}

// FromDoc converts a stored document back into a domain resource.
func FromDoc(d *Doc) domres.Resource {
	r := domres.Resource{
		ID:              d.ID,
		Slug:            d.Slug,
		URL:             d.URL,
		Title:           d.Title,
		Description:     d.Description,
		Tags:            d.Tags,
		ResourceType:    domres.Type(d.ResourceType),
		Themes:          d.Themes,
		CountryPrograms: d.CountryPrograms,
		OC4IDSAlignment: d.OC4IDSAlignment,
		Workstreams:     d.Workstreams,
		Audience:        d.Audience,
		AccessLevel:     domres.AccessLevel(d.AccessLevel),
		Language:        d.Language,
		IsTranslation:   d.IsTranslation,
		CanonicalID:     d.CanonicalID,
		Translations:    d.Translations,
		ValidUntil:      d.ValidUntil,
		Status:          lifecycle.Status(d.Status),
		StatusHistory:   d.StatusHistory,
		PublishedAt:     d.PublishedAt,
		ArchivedAt:      d.ArchivedAt,
		ArchivedReason:  d.ArchivedReason,
		Clicks:          d.Clicks,
		LastClickedAt:   d.LastClickedAt,
		AICitations:     d.AICitations,
		Embedding:       d.Embedding,
		Summary:         d.Summary,
		Source:          domres.Source(d.Source),
		CreatedAt:       d.CreatedAt,
		CreatedBy:       d.CreatedBy,
		UpdatedAt:       d.UpdatedAt,
		UpdatedBy:       d.UpdatedBy,
	}
	if d.PublicationDate != nil {
		r.PublicationDate = *d.PublicationDate
	}
	if d.LastVerified != nil {
		r.LastVerified = *d.LastVerified
	}
	return r
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
