// Package catalog reads and writes gettext PO catalogs and exposes their
// entries as translation units the engine can fill in.
package catalog

// Status is the terminal outcome of a unit within one translation run.
type Status int

const (
	StatusPending Status = iota
	StatusTranslated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusTranslated:
		return "translated"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Unit is one translatable catalog entry. The engine reads Source and
// Context and writes Target and Status; everything else is carried
// through untouched so the output file round-trips.
type Unit struct {
	Source  string
	Target  string
	Context string
	Status  Status

	TranslatorComments []string
	ExtractedComments  []string
	References         []string
	Flags              []string

	// Plural entries are preserved verbatim but never translated.
	SourcePlural string
	TargetPlural map[int]string

	Obsolete bool
}

// IsTranslated reports whether the unit already carries a translation.
func (u *Unit) IsTranslated() bool {
	if u.Source == "" {
		return false // header entry
	}
	if u.IsFuzzy() {
		return false
	}
	if u.SourcePlural != "" {
		for _, v := range u.TargetPlural {
			if v == "" {
				return false
			}
		}
		return len(u.TargetPlural) > 0
	}
	return u.Target != ""
}

// IsFuzzy reports whether the unit carries the gettext fuzzy flag.
func (u *Unit) IsFuzzy() bool {
	for _, f := range u.Flags {
		if f == "fuzzy" {
			return true
		}
	}
	return false
}

// File is a parsed PO catalog: the header entry plus the ordered units.
type File struct {
	Header *Unit
	Units  []*Unit
}

// Untranslated returns the units that still need a translation, in
// catalog order. Plural and obsolete entries are excluded; the engine
// only handles singular texts.
func (f *File) Untranslated() []*Unit {
	var result []*Unit
	for _, u := range f.Units {
		if u.Source == "" || u.Obsolete || u.SourcePlural != "" {
			continue
		}
		if !u.IsTranslated() && !u.IsFuzzy() {
			result = append(result, u)
		}
	}
	return result
}

// Stats returns per-catalog translation counts.
func (f *File) Stats() (total, translated, fuzzy, untranslated int) {
	for _, u := range f.Units {
		if u.Source == "" || u.Obsolete {
			continue
		}
		total++
		switch {
		case u.IsFuzzy():
			fuzzy++
		case u.IsTranslated():
			translated++
		default:
			untranslated++
		}
	}
	return
}
