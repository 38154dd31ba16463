package resource

import "time"

// Patch is a partial field edit. Nil fields are left unchanged.
// Lifecycle fields, clicks and provenance are not editable.
type Patch struct {
	Title           *string
	Description     *string
	Tags            *[]string
	ResourceType    *Type
	Themes          *[]string
	CountryPrograms *[]string
	OC4IDSAlignment *[]string
	Workstreams     *[]string
	Audience        *[]string
	AccessLevel     *AccessLevel
	Language        *string
	Summary         *string
	PublicationDate *time.Time
	LastVerified    *time.Time
	ValidUntil      *time.Time
	// ClearValidUntil removes the expiry date. It wins over ValidUntil.
	ClearValidUntil bool
	Translations    *[]Translation
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Tags == nil && p.ResourceType == nil &&
		p.Themes == nil && p.CountryPrograms == nil && p.OC4IDSAlignment == nil &&
		p.Workstreams == nil && p.Audience == nil && p.AccessLevel == nil && p.Language == nil &&
		p.Summary == nil && p.PublicationDate == nil && p.LastVerified == nil &&
		p.ValidUntil == nil && !p.ClearValidUntil && p.Translations == nil
}

// ChangesText reports whether the patch touches text that feeds the embedding.
func (p *Patch) ChangesText() bool {
	return p.Title != nil || p.Description != nil || p.Tags != nil || p.Themes != nil
}

// Apply writes the patch onto r.
func (p *Patch) Apply(r *Resource) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Tags != nil {
		r.Tags = *p.Tags
	}
	if p.ResourceType != nil {
		r.ResourceType = *p.ResourceType
	}
	if p.Themes != nil {
		r.Themes = *p.Themes
	}
	if p.CountryPrograms != nil {
		r.CountryPrograms = *p.CountryPrograms
	}
	if p.OC4IDSAlignment != nil {
		r.OC4IDSAlignment = *p.OC4IDSAlignment
	}
	if p.Workstreams != nil {
		r.Workstreams = *p.Workstreams
	}
	if p.Audience != nil {
		r.Audience = *p.Audience
	}
	if p.AccessLevel != nil {
		r.AccessLevel = *p.AccessLevel
	}
	if p.Language != nil {
		r.Language = *p.Language
	}
	if p.Summary != nil {
		r.Summary = *p.Summary
	}
	if p.PublicationDate != nil {
		r.PublicationDate = *p.PublicationDate
	}
	if p.LastVerified != nil {
		r.LastVerified = *p.LastVerified
	}
	switch {
	case p.ClearValidUntil:
		r.ValidUntil = nil
	case p.ValidUntil != nil:
		t := *p.ValidUntil
		r.ValidUntil = &t
	}
	if p.Translations != nil {
		r.Translations = *p.Translations
	}
}
