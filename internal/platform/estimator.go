package platform

import "strings"

type keywordGuess struct {
	keyword string
	value   float64
}

// Estimator holds the best-effort guessing heuristics used when a raw
// record is missing price or weight. Kept out of the adapters' mapping
// logic so guess quality can be tested in isolation. Keyword tables are
// ordered: the first match wins.
type Estimator struct {
	priceKeywords  []keywordGuess
	weightKeywords []keywordGuess
	defaultPrice   float64
	defaultWeight  float64
}

// NewEstimator creates an estimator with the stock keyword tables.
func NewEstimator() *Estimator {
	return &Estimator{
		priceKeywords: []keywordGuess{
			{"laptop", 5000000},
			{"phone", 1500000},
			{"watch", 350000},
			{"speaker", 200000},
			{"headset", 120000},
			{"shoes", 250000},
			{"sepatu", 250000},
			{"bag", 175000},
			{"tas", 150000},
			{"shirt", 85000},
			{"kaos", 60000},
			{"charger", 45000},
			{"case", 35000},
			{"cable", 25000},
		},
		weightKeywords: []keywordGuess{
			{"laptop", 2500},
			{"shoes", 800},
			{"sepatu", 800},
			{"bag", 500},
			{"tas", 450},
			{"phone", 350},
			{"shirt", 200},
			{"kaos", 180},
			{"watch", 150},
			{"charger", 100},
			{"cable", 50},
		},
		defaultPrice:  50000,
		defaultWeight: 500,
	}
}

// EstimatePrice guesses a price from product name keywords. Returns the
// default when no keyword matches.
func (e *Estimator) EstimatePrice(name string) float64 {
	lower := strings.ToLower(name)
	for _, kg := range e.priceKeywords {
		if strings.Contains(lower, kg.keyword) {
			return kg.value
		}
	}
	return e.defaultPrice
}

// EstimateWeight guesses a weight in grams from product name keywords.
func (e *Estimator) EstimateWeight(name string) float64 {
	lower := strings.ToLower(name)
	for _, kg := range e.weightKeywords {
		if strings.Contains(lower, kg.keyword) {
			return kg.value
		}
	}
	return e.defaultWeight
}
