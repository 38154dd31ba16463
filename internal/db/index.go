package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StorageType is the document type an FT index reads (HASH or JSON).
type StorageType string

const (
	StorageHash StorageType = "HASH"
	StorageJSON StorageType = "JSON"
)

// IndexFieldType enumerates the FT schema field types the catalog uses.
type IndexFieldType int

const (
	IndexFieldNumeric IndexFieldType = iota
	IndexFieldTag
	IndexFieldText
)

func (t IndexFieldType) keyword() (string, bool) {
	switch t {
	case IndexFieldNumeric:
		return "NUMERIC", true
	case IndexFieldTag:
		return "TAG", true
	case IndexFieldText:
		return "TEXT", true
	default:
		return "", false
	}
}

// IndexField is one SCHEMA entry.
type IndexField struct {
	Name     string // attribute name or JSON path
	Alias    string
	Type     IndexFieldType
	Sortable bool

	// TEXT only.
	Weight float64 // 0 keeps the server default (1.0)
	NoStem bool

	// TAG only.
	TagSeparator     string
	TagCaseSensitive bool
}

// IndexDefinition is everything FT.CREATE needs.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	// Language selects the default stemmer. Empty keeps the server default (English).
	Language string
	// NoStopwords disables the stop-word list so short queries like "how to" still match.
	NoStopwords bool
	Fields      []IndexField
}

// Validate checks that the definition can be rendered into FT.CREATE.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field name is required at position %d", i)
		}
		key := f.attribute()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate field name: %s", key)
		}
		seen[key] = struct{}{}

		if _, ok := f.Type.keyword(); !ok {
			return fmt.Errorf("unknown type for field %s", key)
		}
		if f.Weight < 0 {
			return fmt.Errorf("negative weight for field %s", key)
		}
		if f.Type != IndexFieldText && (f.Weight > 0 || f.NoStem) {
			return fmt.Errorf("weight and nostem are only valid for TEXT fields: %s", key)
		}
	}
	return nil
}

// attribute is the name queries use: the alias when set, otherwise the raw name.
func (f *IndexField) attribute() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Args renders the FT.CREATE arguments (without the command name).
func (idx *IndexDefinition) Args() ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}

	storage := idx.StorageType
	if storage == "" {
		storage = StorageHash
	}
	args := []string{idx.Name, "ON", string(storage)}

	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}
	if idx.Language != "" {
		args = append(args, "LANGUAGE", idx.Language)
	}
	if idx.NoStopwords {
		args = append(args, "STOPWORDS", "0")
	}

	args = append(args, "SCHEMA")
	for i := range idx.Fields {
		args = append(args, idx.Fields[i].args()...)
	}
	return args, nil
}

func (f *IndexField) args() []string {
	out := []string{f.Name}
	if f.Alias != "" {
		out = append(out, "AS", f.Alias)
	}
	kw, _ := f.Type.keyword()
	out = append(out, kw)

	switch f.Type {
	case IndexFieldText:
		if f.Weight > 0 {
			out = append(out, "WEIGHT", strconv.FormatFloat(f.Weight, 'g', -1, 64))
		}
		if f.NoStem {
			out = append(out, "NOSTEM")
		}
	case IndexFieldTag:
		if f.TagSeparator != "" {
			out = append(out, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			out = append(out, "CASESENSITIVE")
		}
	}

	if f.Sortable {
		out = append(out, "SORTABLE")
	}
	return out
}

// String renders the FT.CREATE command for logs. Invalid definitions render their error.
func (idx *IndexDefinition) String() string {
	args, err := idx.Args()
	if err != nil {
		return "invalid index: " + err.Error()
	}
	return "FT.CREATE " + strings.Join(args, " ")
}

// IsValidIdentifier reports whether s is non-empty and made of [a-zA-Z0-9_:-].
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_' || r == ':' || r == '-':
			return false
		}
		return true
	}) < 0
}
