package resource

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
)

// Field limits.
const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 20000
	MaxSlugLength        = 200

	// idSlugPrefix starts the slug of a resource whose title has no slug-safe letters.
	idSlugPrefix = "resource-"
	idSlugLength = 8
)

// Type is the resource kind.
type Type string

// Resource types.
const (
	TypeGuide     Type = "guide"
	TypeCaseStudy Type = "case_study"
	TypeReport    Type = "report"
	TypeDataset   Type = "dataset"
	TypeTool      Type = "tool"
	TypeTemplate  Type = "template"
	TypePolicy    Type = "policy"
	TypeNews      Type = "news"
	TypeTraining  Type = "training"
	TypeOther     Type = "other"
)

var validTypes = map[Type]bool{
	TypeGuide: true, TypeCaseStudy: true, TypeReport: true, TypeDataset: true, TypeTool: true,
	TypeTemplate: true, TypePolicy: true, TypeNews: true, TypeTraining: true, TypeOther: true,
}

// IsValid reports whether t is a known resource type.
func (t Type) IsValid() bool { return validTypes[t] }

// AccessLevel controls who may open the resource.
type AccessLevel string

// Access levels.
const (
	AccessPublic  AccessLevel = "public"
	AccessMembers AccessLevel = "members"
)

// IsValid reports whether a is a known access level.
func (a AccessLevel) IsValid() bool { return a == AccessPublic || a == AccessMembers }

// Source records how the resource entered the catalog.
type Source string

// Sources.
const (
	SourceManual     Source = "manual"
	SourceDiscovered Source = "discovered"
)

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool { return s == SourceManual || s == SourceDiscovered }

// InitialStatus returns the lifecycle state a new resource from this source starts in.
func (s Source) InitialStatus() lifecycle.Status {
	if s == SourceDiscovered {
		return lifecycle.Discovered
	}
	return lifecycle.PendingReview
}

// DefaultLanguage is used when a resource omits its language.
const DefaultLanguage = "en"

var supportedLanguages = map[string]bool{
	"en": true, "es": true, "fr": true, "pt": true, "uk": true, "id": true, "vi": true,
}

// IsSupportedLanguage reports whether code is in the language allow-list.
func IsSupportedLanguage(code string) bool { return supportedLanguages[code] }

// Translation links a resource to one of its translated versions.
type Translation struct {
	Language   string `json:"language"`
	ResourceID string `json:"resourceId"`
}

// Resource is a catalogued document, tool or report.
// Status and the fields derived from it change only through ApplyTransition.
type Resource struct {
	ID          string
	Slug        string
	URL         string
	Title       string
	Description string
	Tags        []string

	ResourceType    Type
	Themes          []string
	CountryPrograms []string
	OC4IDSAlignment []string
	Workstreams     []string
	Audience        []string

	AccessLevel   AccessLevel
	Language      string
	IsTranslation bool
	CanonicalID   string
	Translations  []Translation

	PublicationDate time.Time
	LastVerified    time.Time
	ValidUntil      *time.Time

	Status         lifecycle.Status
	StatusHistory  []lifecycle.StatusChange
	PublishedAt    *time.Time
	ArchivedAt     *time.Time
	ArchivedReason *string

	Clicks        int64
	LastClickedAt *time.Time
	AICitations   int
	Embedding     []float32
	Summary       string

	Source    Source
	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time
	UpdatedBy string
}

// HasEmbedding reports whether the resource carries an embedding vector.
func (r *Resource) HasEmbedding() bool { return len(r.Embedding) > 0 }

// IsPublic reports whether the gate allows the resource into public search.
func (r *Resource) IsPublic() bool { return lifecycle.IsPublic(r.Status) }

// ApplyTransition applies a gate update in memory: new status, one appended history entry
// and the derived timestamps.
func (r *Resource) ApplyTransition(u lifecycle.Update) {
	r.Status = u.Status
	r.StatusHistory = append(r.StatusHistory, u.Change)
	if u.PublishedAt != nil {
		t := *u.PublishedAt
		r.PublishedAt = &t
	}
	if u.ArchivedAt != nil {
		t := *u.ArchivedAt
		r.ArchivedAt = &t
	}
	if u.ArchivedReason != nil {
		reason := *u.ArchivedReason
		r.ArchivedReason = &reason
	}
	if u.ClearArchive {
		r.ArchivedAt = nil
		r.ArchivedReason = nil
	}
	r.UpdatedAt = u.Change.ChangedAt
	r.UpdatedBy = u.Change.ChangedBy
}

// Text returns the searchable text used by the semantic heuristic and for embeddings.
func (r *Resource) Text() string {
	parts := make([]string, 0, 2+len(r.Tags)+len(r.Themes))
	parts = append(parts, r.Title, r.Description)
	parts = append(parts, r.Tags...)
	parts = append(parts, r.Themes...)
	return strings.Join(parts, " ")
}

// Validate checks the descriptive fields of a resource.
func (r *Resource) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return domain.NewValidationError("title", "is required")
	}
	if len(r.Title) > MaxTitleLength {
		return domain.NewValidationError("title", fmt.Sprintf("too long (max %d)", MaxTitleLength))
	}
	if len(r.Description) > MaxDescriptionLength {
		return domain.NewValidationError("description", fmt.Sprintf("too long (max %d)", MaxDescriptionLength))
	}
	if err := validateURL(r.URL); err != nil {
		return err
	}
	if r.Slug == "" {
		return domain.NewValidationError("slug", "is required when the title has no latin letters or digits")
	}
	if !slugRegex.MatchString(r.Slug) {
		return domain.NewValidationError("slug", "must be lowercase alphanumeric words separated by hyphens")
	}
	if !r.ResourceType.IsValid() {
		return domain.NewValidationError("resourceType", fmt.Sprintf("unknown value %q", r.ResourceType))
	}
	if !r.AccessLevel.IsValid() {
		return domain.NewValidationError("accessLevel", fmt.Sprintf("unknown value %q", r.AccessLevel))
	}
	if !IsSupportedLanguage(r.Language) {
		return domain.NewValidationError("language", fmt.Sprintf("unsupported language %q", r.Language))
	}
	for _, t := range r.Translations {
		if !IsSupportedLanguage(t.Language) {
			return domain.NewValidationError("translations", fmt.Sprintf("unsupported language %q", t.Language))
		}
	}
	if !r.Source.IsValid() {
		return domain.NewValidationError("source", fmt.Sprintf("unknown value %q", r.Source))
	}
	if r.ValidUntil != nil && !r.PublicationDate.IsZero() && r.ValidUntil.Before(r.PublicationDate) {
		return domain.NewValidationError("validUntil", "must not precede publicationDate")
	}
	return nil
}

// ApplyDefaults fills optional enum fields and derives a missing slug from the title,
// or from the id when the title has no slug-safe letters.
func (r *Resource) ApplyDefaults() {
	if r.AccessLevel == "" {
		r.AccessLevel = AccessPublic
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Source == "" {
		r.Source = SourceManual
	}
	if r.ResourceType == "" {
		r.ResourceType = TypeOther
	}
	if r.Slug == "" {
		r.Slug = Slugify(r.Title)
	}
	if r.Slug == "" && r.ID != "" {
		r.Slug = idSlug(r.ID)
	}
}

func idSlug(id string) string {
	s := nonSlugRunes.ReplaceAllString(strings.ToLower(id), "")
	if len(s) > idSlugLength {
		s = s[:idSlugLength]
	}
	if s == "" {
		return ""
	}
	return idSlugPrefix + s
}

func validateURL(raw string) error {
	if raw == "" {
		return domain.NewValidationError("url", "is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return domain.NewValidationError("url", "must be an absolute http(s) url")
	}
	return nil
}

var (
	slugRegex    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugRunes = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a url-safe slug from a title. Accents are folded ("Évaluation" gives
// "evaluation"); scripts without a latin form yield "".
func Slugify(title string) string {
	folded, _, err := transform.String(foldAccents(), title)
	if err != nil {
		folded = title
	}
	s := nonSlugRunes.ReplaceAllString(strings.ToLower(folded), "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	return s
}

// foldAccents strips combining marks after canonical decomposition. Transformers carry
// state, so each call builds its own.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
