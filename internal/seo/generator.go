package seo

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

// Similarity band for generated titles: recognizable but differentiated.
const (
	MinSimilarity = 70.0
	MaxSimilarity = 85.0
)

// Variant is one platform-tuned title proposal.
type Variant struct {
	Platform   string  `json:"platform"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	InBand     bool    `json:"inBand"`
}

// Generator produces platform-tuned title variants whose similarity to the
// original lands in [MinSimilarity, MaxSimilarity] percent where possible.
type Generator struct {
	decorations map[string][]string
	logger      *zap.Logger
}

// NewGenerator creates a generator with the stock decoration tables.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{
		decorations: map[string][]string{
			"shopee": {
				"Ready Stock COD",
				"Original 100%",
				"Bisa COD",
				"Termurah",
				"Free Ongkir",
			},
			"tiktokshop": {
				"Viral TikTok",
				"Best Seller",
				"Official",
				"Trending Now",
				"Hot Item",
			},
		},
		logger: logger,
	}
}

// Similarity returns the percentage similarity between two titles based on
// edit distance over the longer length.
func Similarity(a, b string) float64 {
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return (1 - float64(dist)/float64(longest)) * 100
}

// GenerateTitleVariant builds the best platform-tuned variant of a title.
// It tries each decoration and keeps the candidate whose similarity is in
// band, falling back to the candidate closest to the band.
func (g *Generator) GenerateTitleVariant(title, platform string) Variant {
	decorations, ok := g.decorations[platform]
	if !ok || strings.TrimSpace(title) == "" {
		return Variant{Platform: platform, Title: title, Similarity: 100, InBand: false}
	}

	best := Variant{Platform: platform, Title: title, Similarity: 100, InBand: false}
	bestDistance := bandDistance(best.Similarity)

	for _, dec := range decorations {
		candidate := title + " " + dec
		sim := Similarity(title, candidate)
		if sim >= MinSimilarity && sim <= MaxSimilarity {
			return Variant{Platform: platform, Title: candidate, Similarity: sim, InBand: true}
		}
		if d := bandDistance(sim); d < bestDistance {
			best = Variant{Platform: platform, Title: candidate, Similarity: sim, InBand: false}
			bestDistance = d
		}
	}

	g.logger.Debug("no title variant landed in similarity band",
		zap.String("platform", platform),
		zap.String("title", title),
		zap.Float64("similarity", best.Similarity),
	)
	return best
}

// GenerateAll builds variants for every requested platform.
func (g *Generator) GenerateAll(title string, platforms []string) map[string]Variant {
	out := make(map[string]Variant, len(platforms))
	for _, p := range platforms {
		out[p] = g.GenerateTitleVariant(title, p)
	}
	return out
}

func bandDistance(sim float64) float64 {
	switch {
	case sim < MinSimilarity:
		return MinSimilarity - sim
	case sim > MaxSimilarity:
		return sim - MaxSimilarity
	default:
		return 0
	}
}
