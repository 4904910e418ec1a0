package usecase

import (
	"regexp"
	"strings"

	"github.com/watchlens/backend/internal/domain"
)

// yearRegex matches the first plausible production year
var yearRegex = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// Extractor pulls structured watch attributes out of free text.
// Every rule is a first-match scan over an ordered list; nothing is guessed
// beyond substring or regex evidence.
type Extractor struct {
	brands     keywordList
	models     map[string]keywordList
	modelOrder []string
	conditions keywordList
	dialColors keywordList
	materials  keywordList
	movements  keywordList
	references []*regexp.Regexp
}

// NewExtractor creates an extractor over the given vocabulary.
// Returns ErrInvalidConfiguration when a reference pattern does not compile.
func NewExtractor(vocab Vocabulary) (*Extractor, error) {
	refs, err := compileReferencePatterns(vocab.ReferencePatterns)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		brands:     newKeywordList(vocab.Brands, false),
		models:     make(map[string]keywordList, len(vocab.Models)),
		conditions: newKeywordList(vocab.Conditions, true),
		dialColors: newKeywordList(vocab.DialColors, true),
		materials:  newKeywordList(vocab.Materials, true),
		movements:  newKeywordList(vocab.Movements, true),
		references: refs,
	}

	// model lists are scanned in brand order when the brand is unknown
	for _, b := range vocab.Brands {
		if models, ok := vocab.Models[b.Label]; ok {
			e.models[b.Label] = newKeywordList(models, true)
			e.modelOrder = append(e.modelOrder, b.Label)
		}
	}

	return e, nil
}

// Extract returns every attribute found in title and description.
func (e *Extractor) Extract(title, description string) domain.Attributes {
	text := strings.ToLower(strings.TrimSpace(title + " " + description))
	if text == "" {
		return domain.Attributes{}
	}

	brand := e.ExtractBrand(text)
	return domain.Attributes{
		Brand:     brand,
		Model:     e.extractModel(text, brand),
		Reference: e.extractReference(text),
		Year:      extractYear(text),
		Condition: e.conditions.first(text),
		DialColor: e.dialColors.first(text),
		Material:  e.materials.first(text),
		Movement:  e.movements.first(text),
	}
}

// ExtractBrand returns the canonical name of the first brand found in text,
// or "" when none is present.
func (e *Extractor) ExtractBrand(text string) string {
	return e.brands.first(strings.ToLower(text))
}

// Enrich fills the empty attribute fields of record from its own title and
// description. Fields that already hold a value are never overwritten.
func (e *Extractor) Enrich(record *domain.ProductRecord) {
	attrs := e.Extract(record.Title, record.Description)

	if record.Brand == "" || record.Brand == domain.UnknownBrand {
		if attrs.Brand != "" {
			record.Brand = attrs.Brand
		}
	}
	fillEmpty(&record.Model, attrs.Model)
	fillEmpty(&record.Reference, attrs.Reference)
	fillEmpty(&record.Year, attrs.Year)
	fillEmpty(&record.Condition, attrs.Condition)
	fillEmpty(&record.DialColor, attrs.DialColor)
	fillEmpty(&record.Material, attrs.Material)
	fillEmpty(&record.Movement, attrs.Movement)
}

func fillEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// extractModel scans the model list of the detected brand, or every brand's
// list in brand order when the brand is unknown.
func (e *Extractor) extractModel(text, brand string) string {
	if brand != "" {
		if models, ok := e.models[brand]; ok {
			return models.first(text)
		}
		return ""
	}
	for _, b := range e.modelOrder {
		if model := e.models[b].first(text); model != "" {
			return model
		}
	}
	return ""
}

// extractReference returns the first reference pattern match, uppercased.
// The generic digit pattern can pick up years or price fragments.
func (e *Extractor) extractReference(text string) string {
	for _, re := range e.references {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return strings.ToUpper(m[1])
		}
		return strings.ToUpper(m[0])
	}
	return ""
}

func extractYear(text string) string {
	return yearRegex.FindString(text)
}
