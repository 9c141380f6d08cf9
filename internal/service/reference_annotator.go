package service

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/screening-engine/internal/domain"
)

const unresolvedURL = "#"

// citationSeparators are tried in order; the first one present splits the citation.
var citationSeparators = []string{"/", ";", ","}

// compoundOrganizations contain a separator but name a single issuer.
var compoundOrganizations = []string{"AHA/ACC", "ACC/AHA"}

var trailingYear = regexp.MustCompile(`\s*\b((?:19|20)\d{2})\s*$`)

var organizationURLs = map[string]string{
	"USPSTF":   "https://www.uspreventiveservicestaskforce.org/uspstf/recommendation-topics",
	"ADA":      "https://diabetesjournals.org/care/issue/47/Supplement_1",
	"AHA/ACC":  "https://www.ahajournals.org/guidelines",
	"ACC/AHA":  "https://www.ahajournals.org/guidelines",
	"AHA":      "https://professional.heart.org/en/guidelines-and-statements",
	"ACC":      "https://www.acc.org/guidelines",
	"SBC":      "https://www.portal.cardiol.br/diretrizes",
	"SBIM":     "https://sbim.org.br/calendarios-de-vacinacao",
	"ANVISA":   "https://www.gov.br/anvisa/pt-br",
	"CDC":      "https://www.cdc.gov/vaccines/hcp/imz-schedules/adult-age.html",
	"MS":       "https://www.gov.br/saude/pt-br",
	"FEBRASGO": "https://www.febrasgo.org.br/pt/protocolos",
	"AASLD":    "https://www.aasld.org/practice-guidelines",
	"INCA":     "https://www.gov.br/inca/pt-br",
}

// organizationYearURLs pins a specific guideline document when the title
// alone does not identify it.
var organizationYearURLs = map[string]string{
	"AHA/ACC 2017": "https://www.ahajournals.org/doi/10.1161/HYP.0000000000000065",
	"AHA/ACC 2018": "https://www.ahajournals.org/doi/10.1161/CIR.0000000000000625",
	"AHA/ACC 2019": "https://www.ahajournals.org/doi/10.1161/CIR.0000000000000678",
	"AHA 2018":     "https://www.ahajournals.org/doi/10.1161/HYP.0000000000000084",
	"ADA 2024":     "https://diabetesjournals.org/care/issue/47/Supplement_1",
	"SBC 2020":     "https://abccardiol.org/article/diretrizes-brasileiras-de-hipertensao-arterial-2020/",
}

type titleKeywordURL struct {
	keywords []string
	url      string
}

const uspstfBase = "https://www.uspreventiveservicestaskforce.org/uspstf/recommendation/"

// topicURLs cross-references organization tokens with title keywords
// (accent-folded, lower case). The first matching entry wins.
var topicURLs = map[string][]titleKeywordURL{
	"USPSTF": {
		{[]string{"mamografia", "mama", "breast"}, uspstfBase + "breast-cancer-screening"},
		{[]string{"citologia", "papanicolau", "hpv", "colo do utero", "cervical"}, uspstfBase + "cervical-cancer-screening"},
		{[]string{"colorretal", "colorectal"}, uspstfBase + "colorectal-cancer-screening"},
		{[]string{"psa", "prostata", "prostate"}, uspstfBase + "prostate-cancer-screening"},
		{[]string{"pulmao", "tomografia", "lung"}, uspstfBase + "lung-cancer-screening"},
		{[]string{"hiv"}, uspstfBase + "human-immunodeficiency-virus-hiv-infection-screening"},
		{[]string{"hcv", "hepatite c"}, uspstfBase + "hepatitis-c-screening"},
		{[]string{"densitometria", "osteoporose", "dxa"}, uspstfBase + "osteoporosis-screening"},
		{[]string{"aorta", "aneurisma"}, uspstfBase + "abdominal-aortic-aneurysm-screening"},
		{[]string{"glicemia", "glicada", "diabetes"}, uspstfBase + "screening-for-prediabetes-and-type-2-diabetes"},
	},
	"CDC": {
		{[]string{"hepatite b"}, "https://www.cdc.gov/hepatitis-b/vaccination/"},
		{[]string{"pneumococ"}, "https://www.cdc.gov/pneumococcal/vaccines/"},
		{[]string{"influenza"}, "https://www.cdc.gov/flu/prevent/flushot.htm"},
	},
	"SBIM": {
		{[]string{"gestante", "gestacional"}, "https://sbim.org.br/images/calendarios/calend-sbim-gestante.pdf"},
		{[]string{"influenza", "gripe"}, "https://sbim.org.br/images/calendarios/calend-sbim-adulto.pdf"},
	},
	"ANVISA": {
		{[]string{"influenza", "gripe"}, "https://www.gov.br/anvisa/pt-br/assuntos/medicamentos/registro/vacinas-influenza"},
	},
}

// ReferenceAnnotator resolves citation strings into reference links.
// It only reads static tables and is safe for concurrent use.
type ReferenceAnnotator struct{}

// NewReferenceAnnotator creates a new reference annotator
func NewReferenceAnnotator() *ReferenceAnnotator {
	return &ReferenceAnnotator{}
}

// Annotate returns a copy of recs with ReferenceLinks and ReferenceHTML set.
func (a *ReferenceAnnotator) Annotate(recs []domain.Recommendation) []domain.Recommendation {
	out := make([]domain.Recommendation, len(recs))
	for i, r := range recs {
		links := a.Resolve(r.Title, r.Citation)
		r.ReferenceLinks = links
		r.ReferenceHTML = RenderReferenceHTML(links)
		out[i] = r
	}
	return out
}

// Resolve splits citation and resolves every token. Unresolved tokens keep
// their label and get URL "#"; none are dropped.
func (a *ReferenceAnnotator) Resolve(title, citation string) []domain.ReferenceLink {
	tokens := SplitCitation(citation)
	if len(tokens) == 0 {
		return []domain.ReferenceLink{}
	}

	year := ""
	if m := trailingYear.FindStringSubmatch(tokens[len(tokens)-1]); m != nil {
		year = m[1]
	}

	foldedTitle := domain.FoldText(title)
	links := make([]domain.ReferenceLink, 0, len(tokens))
	for _, tok := range tokens {
		label := tok
		if year != "" && !trailingYear.MatchString(tok) {
			label = tok + " " + year
		}
		links = append(links, domain.ReferenceLink{
			Label: label,
			URL:   resolveToken(label, foldedTitle),
		})
	}
	return links
}

// SplitCitation splits on the first separator present among "/", ";" and
// ",", keeping compound organizations such as AHA/ACC whole.
func SplitCitation(citation string) []string {
	protected := citation
	for i, compound := range compoundOrganizations {
		protected = replaceFold(protected, compound, placeholder(i))
	}

	parts := []string{protected}
	for _, sep := range citationSeparators {
		if strings.Contains(protected, sep) {
			parts = strings.Split(protected, sep)
			break
		}
	}

	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		for i, compound := range compoundOrganizations {
			part = strings.ReplaceAll(part, placeholder(i), compound)
		}
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

func resolveToken(label, foldedTitle string) string {
	org := strings.ToUpper(strings.TrimSpace(trailingYear.ReplaceAllString(label, "")))
	if org == "" {
		return unresolvedURL
	}

	for _, topic := range topicURLs[org] {
		for _, kw := range topic.keywords {
			if strings.Contains(foldedTitle, kw) {
				return topic.url
			}
		}
	}
	if m := trailingYear.FindStringSubmatch(label); m != nil {
		if url, ok := organizationYearURLs[org+" "+m[1]]; ok {
			return url
		}
	}
	if url, ok := organizationURLs[org]; ok {
		return url
	}
	return unresolvedURL
}

// RenderReferenceHTML joins the links as escaped anchor tags.
func RenderReferenceHTML(links []domain.ReferenceLink) string {
	anchors := make([]string, 0, len(links))
	for _, l := range links {
		anchors = append(anchors, fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
			html.EscapeString(l.URL), html.EscapeString(l.Label)))
	}
	return strings.Join(anchors, " | ")
}

func placeholder(i int) string {
	return fmt.Sprintf("\x00%d\x00", i)
}

// replaceFold replaces case-insensitive occurrences of old with new.
// Windows are taken from s itself so offsets always line up with it.
func replaceFold(s, old, new string) string {
	if old == "" {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if i+len(old) <= len(s) && strings.EqualFold(s[i:i+len(old)], old) {
			b.WriteString(new)
			i += len(old)
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}
