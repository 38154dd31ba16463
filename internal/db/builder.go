package db

// IndexBuilder assembles an IndexDefinition fluently. Field modifiers (As, Sortable, NoStem)
// apply to the most recently added field and are ignored before the first one.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a HASH index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name, StorageType: StorageHash}}
}

// OnJSON indexes JSON documents instead of hashes.
func (b *IndexBuilder) OnJSON() *IndexBuilder {
	b.def.StorageType = StorageJSON
	return b
}

// Prefix adds key prefixes the index watches.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Language sets the default stemming language.
func (b *IndexBuilder) Language(lang string) *IndexBuilder {
	b.def.Language = lang
	return b
}

// NoStopwords indexes and queries every word.
func (b *IndexBuilder) NoStopwords() *IndexBuilder {
	b.def.NoStopwords = true
	return b
}

// Numeric adds a NUMERIC field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldNumeric})
}

// Tag adds a TAG field with the server's default separator, case-folded.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldTag})
}

// TagWithOpts adds a TAG field with a custom separator and case sensitivity.
func (b *IndexBuilder) TagWithOpts(name, separator string, caseSensitive bool) *IndexBuilder {
	return b.add(IndexField{
		Name:             name,
		Type:             IndexFieldTag,
		TagSeparator:     separator,
		TagCaseSensitive: caseSensitive,
	})
}

// Text adds a TEXT field with the default weight.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldText})
}

// TextWeighted adds a TEXT field whose matches count weight times a default field.
func (b *IndexBuilder) TextWeighted(name string, weight float64) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldText, Weight: weight})
}

// As aliases the last field. JSON paths need an alias to be queryable by name.
func (b *IndexBuilder) As(alias string) *IndexBuilder {
	if f := b.last(); f != nil {
		f.Alias = alias
	}
	return b
}

// Sortable marks the last field SORTABLE.
func (b *IndexBuilder) Sortable() *IndexBuilder {
	if f := b.last(); f != nil {
		f.Sortable = true
	}
	return b
}

// NoStem disables stemming on the last field (TEXT only; Validate rejects it elsewhere).
func (b *IndexBuilder) NoStem() *IndexBuilder {
	if f := b.last(); f != nil {
		f.NoStem = true
	}
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// MustBuild is Build for definitions fixed at compile time; it panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

func (b *IndexBuilder) last() *IndexField {
	if n := len(b.def.Fields); n > 0 {
		return &b.def.Fields[n-1]
	}
	return nil
}
