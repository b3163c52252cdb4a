package textextract

import (
	"github.com/gabriel-vasile/mimetype"
)

// Registry holds the available extractors and dispatches to the right one
type Registry struct {
	fallback   Extractor
	extractors []Extractor
}

// NewRegistry creates a registry. fallback is used whenever the media type
// cannot be resolved; it is also consulted like any other extractor.
func NewRegistry(fallback Extractor, extractors ...Extractor) *Registry {
	return &Registry{
		fallback:   fallback,
		extractors: append([]Extractor{fallback}, extractors...),
	}
}

// Find returns the first extractor that handles mediaType, or nil
func (r *Registry) Find(mediaType string) Extractor {
	mt := NormalizeMediaType(mediaType)
	if mt == "" {
		return nil
	}
	for _, e := range r.extractors {
		if e.CanExtract(mt) {
			return e
		}
	}
	return nil
}

// Resolve picks the extractor for a document. A supported declared type wins.
// Otherwise the content is sniffed, walking up to more generic types, and the
// fallback is used when nothing matches.
//
// Sniffing never selects plain text: any printable junk sniffs as text/plain,
// so text is only extracted when the client declares it.
func (r *Registry) Resolve(declared string, data []byte) Extractor {
	if e := r.Find(declared); e != nil {
		return e
	}

	if len(data) > 0 {
		for m := mimetype.Detect(data); m != nil; m = m.Parent() {
			if m.Is(MediaTypeText) {
				break
			}
			if e := r.Find(m.String()); e != nil {
				return e
			}
		}
	}

	return r.fallback
}

// Formats lists the media types the registry can extract, fallback first
func (r *Registry) Formats() []string {
	formats := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		formats[i] = e.Format()
	}
	return formats
}
