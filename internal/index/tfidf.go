package index

import (
	"math"
	"sort"

	"github.com/docdex/docdex/internal/token"
)

// TFIDF computes per-document TF-IDF weights over the stored content
// snapshots. The full token stream is used, with no length filtering, so
// weights cover tokens the inverted index drops.
func TFIDF(snap *Snapshot) map[string]map[string]float64 {
	n := len(snap.Docs)
	if n == 0 {
		return map[string]map[string]float64{}
	}

	docFreq := make(map[string]int)
	for _, doc := range snap.Docs {
		seen := make(map[string]struct{})
		for _, t := range token.Tokenize(doc.Content) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			docFreq[t]++
		}
	}

	weights := make(map[string]map[string]float64, n)
	for path, doc := range snap.Docs {
		tokens := token.Tokenize(doc.Content)
		if len(tokens) == 0 {
			continue
		}

		termFreq := make(map[string]int)
		for _, t := range tokens {
			termFreq[t]++
		}

		docWeights := make(map[string]float64, len(termFreq))
		for t, count := range termFreq {
			tf := float64(count) / float64(len(tokens))
			idf := math.Log(float64(n) / float64(1+docFreq[t]))
			docWeights[t] = tf * idf
		}
		weights[path] = docWeights
	}

	return weights
}

// TermWeight is one scored term.
type TermWeight struct {
	Term   string
	Weight float64
}

// TopTerms returns the highest-weighted terms for one document, in
// descending weight order with ties broken by term.
func TopTerms(docWeights map[string]float64, n int) []TermWeight {
	terms := make([]TermWeight, 0, len(docWeights))
	for t, w := range docWeights {
		terms = append(terms, TermWeight{Term: t, Weight: w})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Term < terms[j].Term
	})
	if n > 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms
}
