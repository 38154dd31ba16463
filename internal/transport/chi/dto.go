package chi

import (
	"strings"
	"time"

	domlc "github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/result"
	"github.com/cengkuru/costknowledgehub/internal/repository/taxonomy"
)

// errorCode is the machine-readable error kind of an errorResponse.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeUnauthorized      errorCode = "unauthorized"
	codeNotFound          errorCode = "not_found"
	codeAlreadyExists     errorCode = "already_exists"
	codeInvalidTransition errorCode = "invalid_transition"
	codeUpstreamError     errorCode = "upstream_error"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type invalidTransitionResponse struct {
	Code    errorCode      `json:"code"`
	Message string         `json:"message"`
	From    domlc.Status   `json:"from"`
	To      domlc.Status   `json:"to"`
	Allowed []domlc.Status `json:"allowed"`
}

type resourceResponse struct {
	ID              string               `json:"id"`
	Slug            string               `json:"slug"`
	URL             string               `json:"url"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Tags            []string             `json:"tags"`
	ResourceType    domres.Type          `json:"resourceType"`
	Themes          []string             `json:"themes"`
	CountryPrograms []string             `json:"countryPrograms"`
	OC4IDSAlignment []string             `json:"oc4idsAlignment"`
	Workstreams     []string             `json:"workstreams"`
	Audience        []string             `json:"audience"`
	AccessLevel     domres.AccessLevel   `json:"accessLevel"`
	Language        string               `json:"language"`
	IsTranslation   bool                 `json:"isTranslation"`
	CanonicalID     string               `json:"canonicalId,omitempty"`
	Translations    []domres.Translation `json:"translations"`
	PublicationDate *time.Time           `json:"publicationDate,omitempty"`
	LastVerified    *time.Time           `json:"lastVerified,omitempty"`
	ValidUntil      *time.Time           `json:"validUntil,omitempty"`
	Status          domlc.Status         `json:"status"`
	StatusHistory   []domlc.StatusChange `json:"statusHistory"`
	PublishedAt     *time.Time           `json:"publishedAt,omitempty"`
	ArchivedAt      *time.Time           `json:"archivedAt,omitempty"`
	ArchivedReason  *string              `json:"archivedReason,omitempty"`
	Clicks          int64                `json:"clicks"`
	LastClickedAt   *time.Time           `json:"lastClickedAt,omitempty"`
	AICitations     int                  `json:"aiCitations"`
	HasEmbedding    bool                 `json:"hasEmbedding"`
	Summary         string               `json:"summary,omitempty"`
	Source          domres.Source        `json:"source"`
	CreatedAt       time.Time            `json:"createdAt"`
	CreatedBy       string               `json:"createdBy"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	UpdatedBy       string               `json:"updatedBy"`
}

type createResourceRequest struct {
	Slug            string               `json:"slug"`
	URL             string               `json:"url"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Tags            []string             `json:"tags"`
	ResourceType    domres.Type          `json:"resourceType"`
	Themes          []string             `json:"themes"`
	CountryPrograms []string             `json:"countryPrograms"`
	OC4IDSAlignment []string             `json:"oc4idsAlignment"`
	Workstreams     []string             `json:"workstreams"`
	Audience        []string             `json:"audience"`
	AccessLevel     domres.AccessLevel   `json:"accessLevel"`
	Language        string               `json:"language"`
	IsTranslation   bool                 `json:"isTranslation"`
	CanonicalID     string               `json:"canonicalId"`
	Translations    []domres.Translation `json:"translations"`
	PublicationDate string               `json:"publicationDate"`
	LastVerified    string               `json:"lastVerified"`
	ValidUntil      string               `json:"validUntil"`
	Summary         string               `json:"summary"`
	Source          domres.Source        `json:"source"`
}

type patchResourceRequest struct {
	Title           *string               `json:"title"`
	Description     *string               `json:"description"`
	Tags            *[]string             `json:"tags"`
	ResourceType    *domres.Type          `json:"resourceType"`
	Themes          *[]string             `json:"themes"`
	CountryPrograms *[]string             `json:"countryPrograms"`
	OC4IDSAlignment *[]string             `json:"oc4idsAlignment"`
	Workstreams     *[]string             `json:"workstreams"`
	Audience        *[]string             `json:"audience"`
	AccessLevel     *domres.AccessLevel   `json:"accessLevel"`
	Language        *string               `json:"language"`
	Summary         *string               `json:"summary"`
	PublicationDate *string               `json:"publicationDate"`
	LastVerified    *string               `json:"lastVerified"`
	ValidUntil      *string               `json:"validUntil"`
	Translations    *[]domres.Translation `json:"translations"`
}

type transitionRequest struct {
	Status domlc.Status `json:"status"`
	Reason string       `json:"reason"`
}

type transitionsResponse struct {
	Status  domlc.Status   `json:"status"`
	Allowed []domlc.Status `json:"allowed"`
}

type clickResponse struct {
	ID     string `json:"id"`
	Clicks int64  `json:"clicks"`
}

type hitResponse struct {
	Resource   resourceResponse `json:"resource"`
	Score      float64          `json:"score"`
	Highlights []string         `json:"highlights"`
}

type searchResponse struct {
	Results    []hitResponse  `json:"results"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
	Facets     *result.Facets `json:"facets,omitempty"`
}

type topicsRequest struct {
	Topics []taxonomy.Topic `json:"topics"`
}

type topicsResponse struct {
	Topics []taxonomy.Topic `json:"topics"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func resourceToResponse(r *domres.Resource) resourceResponse {
	return resourceResponse{
		ID:              r.ID,
		Slug:            r.Slug,
		URL:             r.URL,
		Title:           r.Title,
		Description:     r.Description,
		Tags:            nonNil(r.Tags),
		ResourceType:    r.ResourceType,
		Themes:          nonNil(r.Themes),
		CountryPrograms: nonNil(r.CountryPrograms),
		OC4IDSAlignment: nonNil(r.OC4IDSAlignment),
		Workstreams:     nonNil(r.Workstreams),
		Audience:        nonNil(r.Audience),
		AccessLevel:     r.AccessLevel,
		Language:        r.Language,
		IsTranslation:   r.IsTranslation,
		CanonicalID:     r.CanonicalID,
		Translations:    nonNil(r.Translations),
		PublicationDate: timePtr(r.PublicationDate),
		LastVerified:    timePtr(r.LastVerified),
		ValidUntil:      r.ValidUntil,
		Status:          r.Status,
		StatusHistory:   nonNil(r.StatusHistory),
		PublishedAt:     r.PublishedAt,
		ArchivedAt:      r.ArchivedAt,
		ArchivedReason:  r.ArchivedReason,
		Clicks:          r.Clicks,
		LastClickedAt:   r.LastClickedAt,
		AICitations:     r.AICitations,
		HasEmbedding:    r.HasEmbedding(),
		Summary:         r.Summary,
		Source:          r.Source,
		CreatedAt:       r.CreatedAt,
		CreatedBy:       r.CreatedBy,
		UpdatedAt:       r.UpdatedAt,
		UpdatedBy:       r.UpdatedBy,
	}
}

func hitsToResponse(hits []result.Hit) []hitResponse {
	out := make([]hitResponse, len(hits))
	for i := range hits {
		res := hits[i].Resource()
		out[i] = hitResponse{
			Resource:   resourceToResponse(&res),
			Score:      hits[i].Score(),
			Highlights: nonNil(hits[i].Highlights()),
		}
	}
	return out
}

func resourceFromCreate(req *createResourceRequest) (domres.Resource, error) {
	r := domres.Resource{
		Slug:            req.Slug,
		URL:             req.URL,
		Title:           req.Title,
		Description:     req.Description,
		Tags:            req.Tags,
		ResourceType:    req.ResourceType,
		Themes:          req.Themes,
		CountryPrograms: req.CountryPrograms,
		OC4IDSAlignment: req.OC4IDSAlignment,
		Workstreams:     req.Workstreams,
		Audience:        req.Audience,
		AccessLevel:     req.AccessLevel,
		Language:        req.Language,
		IsTranslation:   req.IsTranslation,
		CanonicalID:     req.CanonicalID,
		Translations:    req.Translations,
		Summary:         req.Summary,
		Source:          req.Source,
	}
	var err error
	if r.PublicationDate, err = parseOptionalDate("publicationDate", req.PublicationDate, false); err != nil {
		return domres.Resource{}, err
	}
	if r.LastVerified, err = parseOptionalDate("lastVerified", req.LastVerified, false); err != nil {
		return domres.Resource{}, err
	}
	if req.ValidUntil != "" {
		t, err := parseDate("validUntil", req.ValidUntil, false)
		if err != nil {
			return domres.Resource{}, err
		}
		r.ValidUntil = &t
	}
	return r, nil
}

func patchFromRequest(req *patchResourceRequest) (domres.Patch, error) {
	p := domres.Patch{
		Title:           req.Title,
		Description:     req.Description,
		Tags:            req.Tags,
		ResourceType:    req.ResourceType,
		Themes:          req.Themes,
		CountryPrograms: req.CountryPrograms,
		OC4IDSAlignment: req.OC4IDSAlignment,
		Workstreams:     req.Workstreams,
		Audience:        req.Audience,
		AccessLevel:     req.AccessLevel,
		Language:        req.Language,
		Summary:         req.Summary,
		Translations:    req.Translations,
	}
	// An empty validUntil removes the expiry date.
	if req.ValidUntil != nil && strings.TrimSpace(*req.ValidUntil) == "" {
		p.ClearValidUntil = true
		req.ValidUntil = nil
	}
	dates := []struct {
		name string
		raw  *string
		dst  **time.Time
	}{
		{"publicationDate", req.PublicationDate, &p.PublicationDate},
		{"lastVerified", req.LastVerified, &p.LastVerified},
		{"validUntil", req.ValidUntil, &p.ValidUntil},
	}
	for _, d := range dates {
		if d.raw == nil {
			continue
		}
		t, err := parseDate(d.name, *d.raw, false)
		if err != nil {
			return domres.Patch{}, err
		}
		*d.dst = &t
	}
	return p, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
