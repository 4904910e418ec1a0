package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/watchlens/backend/internal/domain"
)

// Keyword pairs a lower-case search term with the label it yields
type Keyword struct {
	Term  string `mapstructure:"term"`
	Label string `mapstructure:"label"`
}

// Vocabulary holds the ordered keyword lists driving extraction and
// normalization. List order is the tie-break: earlier entries win.
type Vocabulary struct {
	Brands            []Keyword
	BrandAliases      map[string]string
	Models            map[string][]Keyword
	Conditions        []Keyword
	DialColors        []Keyword
	Materials         []Keyword
	Movements         []Keyword
	ReferencePatterns []string
}

// DefaultVocabulary returns the watch-domain keyword lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Brands: []Keyword{
			{"rolex", "Rolex"},
			{"omega", "Omega"},
			{"patek philippe", "Patek Philippe"},
			{"audemars piguet", "Audemars Piguet"},
			{"cartier", "Cartier"},
			{"breitling", "Breitling"},
			{"tag heuer", "TAG Heuer"},
			{"tudor", "Tudor"},
			{"seiko", "Seiko"},
			{"tissot", "Tissot"},
			{"hamilton", "Hamilton"},
			{"iwc", "IWC"},
			{"jaeger-lecoultre", "Jaeger-LeCoultre"},
			{"vacheron constantin", "Vacheron Constantin"},
			{"richard mille", "Richard Mille"},
			{"hublot", "Hublot"},
			{"panerai", "Panerai"},
			{"breguet", "Breguet"},
			{"zenith", "Zenith"},
			{"longines", "Longines"},
			{"chopard", "Chopard"},
		},
		BrandAliases: map[string]string{
			"tag":              "TAG Heuer",
			"heuer":            "TAG Heuer",
			"ap":               "Audemars Piguet",
			"patek":            "Patek Philippe",
			"jaeger lecoultre": "Jaeger-LeCoultre",
			"jlc":              "Jaeger-LeCoultre",
			"vacheron":         "Vacheron Constantin",
			"iwc schaffhausen": "IWC",
			"officine panerai": "Panerai",
		},
		Models: map[string][]Keyword{
			"Rolex": {
				{"submariner date", "Submariner Date"},
				{"submariner", "Submariner"},
				{"daytona", "Daytona"},
				{"gmt-master ii", "GMT-Master II"},
				{"gmt master ii", "GMT-Master II"},
				{"gmt-master", "GMT-Master"},
				{"datejust", "Datejust"},
				{"day-date", "Day-Date"},
				{"sea-dweller", "Sea-Dweller"},
				{"yacht-master", "Yacht-Master"},
				{"explorer ii", "Explorer II"},
				{"explorer", "Explorer"},
				{"oyster perpetual", "Oyster Perpetual"},
				{"milgauss", "Milgauss"},
				{"air-king", "Air-King"},
			},
			"Omega": {
				{"speedmaster", "Speedmaster"},
				{"seamaster aqua terra", "Seamaster Aqua Terra"},
				{"aqua terra", "Seamaster Aqua Terra"},
				{"seamaster", "Seamaster"},
				{"constellation", "Constellation"},
				{"de ville", "De Ville"},
			},
			"Patek Philippe": {
				{"nautilus", "Nautilus"},
				{"aquanaut", "Aquanaut"},
				{"calatrava", "Calatrava"},
			},
			"Audemars Piguet": {
				{"royal oak offshore", "Royal Oak Offshore"},
				{"royal oak", "Royal Oak"},
			},
			"Cartier": {
				{"santos", "Santos"},
				{"tank", "Tank"},
				{"ballon bleu", "Ballon Bleu"},
			},
			"Breitling": {
				{"navitimer", "Navitimer"},
				{"superocean", "Superocean"},
				{"chronomat", "Chronomat"},
			},
			"TAG Heuer": {
				{"carrera", "Carrera"},
				{"monaco", "Monaco"},
				{"aquaracer", "Aquaracer"},
			},
			"Tudor": {
				{"black bay", "Black Bay"},
				{"pelagos", "Pelagos"},
			},
		},
		Conditions: []Keyword{
			{"new", "New"},
			{"unworn", "Unworn"},
			{"excellent", "Excellent"},
			{"very good", "Very Good"},
			{"good", "Good"},
			{"fair", "Fair"},
			{"poor", "Poor"},
		},
		DialColors: []Keyword{
			{"mother of pearl", "Mother of Pearl"},
			{"black", "Black"},
			{"blue", "Blue"},
			{"white", "White"},
			{"silver", "Silver"},
			{"green", "Green"},
			{"grey", "Grey"},
			{"gray", "Grey"},
			{"champagne", "Champagne"},
			{"brown", "Brown"},
			{"red", "Red"},
			{"pink", "Pink"},
			{"yellow", "Yellow"},
		},
		Materials: []Keyword{
			{"stainless steel", "Stainless Steel"},
			{"steel", "Stainless Steel"},
			{"yellow gold", "Yellow Gold"},
			{"rose gold", "Rose Gold"},
			{"everose", "Rose Gold"},
			{"white gold", "White Gold"},
			{"gold", "Gold"},
			{"platinum", "Platinum"},
			{"titanium", "Titanium"},
			{"ceramic", "Ceramic"},
			{"bronze", "Bronze"},
		},
		Movements: []Keyword{
			{"spring drive", "Spring Drive"},
			{"automatic", "Automatic"},
			{"self-winding", "Automatic"},
			{"hand-wound", "Manual"},
			{"manual", "Manual"},
			{"quartz", "Quartz"},
			{"kinetic", "Kinetic"},
			{"solar", "Solar"},
		},
		ReferencePatterns: []string{
			`\b(?:reference|ref)\b(?:\s*(?:no|number)\b)?[\s:.#]*([a-z0-9]*\d[a-z0-9]*(?:[./-][a-z0-9]+)*)`,
			`\b(\d{4,6}[a-z]*)\b`,
			`\b([12]\d{4,5}[a-z]*)\b`,
			`\b(\d{3}\.\d{2}\.\d{2})\b`,
		},
	}
}

// keywordList matches an ordered list of keywords against lower-case text
type keywordList struct {
	keywords  []Keyword
	patterns  []*regexp.Regexp
	wholeWord bool
}

func newKeywordList(keywords []Keyword, wholeWord bool) keywordList {
	list := keywordList{keywords: keywords, wholeWord: wholeWord}
	if wholeWord {
		list.patterns = make([]*regexp.Regexp, len(keywords))
		for i, kw := range keywords {
			list.patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(kw.Term)) + `\b`)
		}
	}
	return list
}

// first returns the label of the first keyword found in text
func (l keywordList) first(text string) string {
	for i, kw := range l.keywords {
		if l.wholeWord {
			if l.patterns[i].MatchString(text) {
				return kw.Label
			}
			continue
		}
		if strings.Contains(text, strings.ToLower(kw.Term)) {
			return kw.Label
		}
	}
	return ""
}

// lookup returns the label of a keyword whose term or label equals s
func (l keywordList) lookup(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, kw := range l.keywords {
		if s == strings.ToLower(kw.Term) || s == strings.ToLower(kw.Label) {
			return kw.Label, true
		}
	}
	return "", false
}

// compileReferencePatterns compiles the ordered reference regex list
func compileReferencePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: reference pattern %q: %v", domain.ErrInvalidConfiguration, p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
