package resource

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/db"
	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// opList collects partial writes and keeps the first encoding error.
type opList struct {
	ops []db.JSONOp
	err error
}

func (l *opList) add(kind db.JSONOpKind, path string, v any) {
	if l.err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		l.err = fmt.Errorf("encode %s: %w", path, err)
		return
	}
	l.ops = append(l.ops, db.JSONOp{Kind: kind, Path: path, Value: data})
}

func (l *opList) set(path string, v any) { l.add(db.JSONOpSet, path, v) }

func (l *opList) appendTo(path string, v any) { l.add(db.JSONOpAppend, path, v) }

func (l *opList) stamp(at time.Time, by string) {
	l.set("$.updatedAt", at)
	l.set("$.updatedBy", by)
}

// transitionOps writes the status, one history entry and the derived timestamps.
func transitionOps(u *lifecycle.Update) ([]db.JSONOp, error) {
	var l opList
	l.set("$.status", string(u.Status))
	l.appendTo("$.statusHistory", u.Change)
	if u.PublishedAt != nil {
		l.set("$.publishedAt", u.PublishedAt)
	}
	if u.ArchivedAt != nil {
		l.set("$.archivedAt", u.ArchivedAt)
	}
	if u.ArchivedReason != nil {
		l.set("$.archivedReason", u.ArchivedReason)
	}
	if u.ClearArchive {
		l.set("$.archivedAt", nil)
		l.set("$.archivedReason", nil)
	}
	l.stamp(u.Change.ChangedAt, u.Change.ChangedBy)
	return l.ops, l.err
}

// editOps writes the fields named by p, taken from the already patched res.
// reembedded adds the refreshed vector.
func editOps(res *domres.Resource, p *domres.Patch, reembedded bool) ([]db.JSONOp, error) {
	d := ToDoc(res)
	var l opList
	if p.Title != nil {
		l.set("$.title", d.Title)
	}
	if p.Description != nil {
		l.set("$.description", d.Description)
	}
	if p.Tags != nil {
		l.set("$.tags", d.Tags)
	}
	if p.ResourceType != nil {
		l.set("$.resourceType", d.ResourceType)
	}
	if p.Themes != nil {
		l.set("$.themes", d.Themes)
	}
	if p.CountryPrograms != nil {
		l.set("$.countryPrograms", d.CountryPrograms)
	}
	if p.OC4IDSAlignment != nil {
		l.set("$.oc4idsAlignment", d.OC4IDSAlignment)
	}
	if p.Workstreams != nil {
		l.set("$.workstreams", d.Workstreams)
	}
	if p.Audience != nil {
		l.set("$.audience", d.Audience)
	}
	if p.AccessLevel != nil {
		l.set("$.accessLevel", d.AccessLevel)
	}
	if p.Language != nil {
		l.set("$.language", d.Language)
	}
	if p.Summary != nil {
		l.set("$.summary", d.Summary)
	}
	if p.PublicationDate != nil {
		l.set("$.publicationDate", d.PublicationDate)
		l.set("$.publicationTs", d.PublicationTs)
	}
	if p.LastVerified != nil {
		l.set("$.lastVerified", d.LastVerified)
	}
	if p.ValidUntil != nil || p.ClearValidUntil {
		l.set("$.validUntil", d.ValidUntil)
	}
	if p.Translations != nil {
		l.set("$.translations", d.Translations)
	}
	if reembedded {
		l.set("$.embedding", d.Embedding)
		l.set("$.hasEmbedding", d.HasEmbedding)
	}
	l.stamp(res.UpdatedAt, res.UpdatedBy)
	return l.ops, l.err
}
