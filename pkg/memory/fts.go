package memory

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
)

// BM25 parameters, same standard values the teacher uses.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// ftsIndex is a BM25 full-text index over memory records, adapted
// from pkg/search/fulltext_index.go's inverted-index/IDF/
// length-normalization algorithm, rekeyed from graph-node IDs to
// memory record IDs per spec.md §4.5's "text-search index" requirement.
// Unlike a graph node index, memory entries carry a tier-specific
// notion of staleness: Recall is a short-term conversational log where
// a recent match usually matters more than an old one with an
// otherwise-identical BM25 score, while Archival is deliberately
// undecayed, long-term storage. recencyHalfLife encodes that
// distinction per tier instead of scoring every entry on text-relevance
// alone.
type ftsIndex struct {
	mu sync.RWMutex

	documents       map[string]string
	invertedIndex   map[string]map[string]int
	docLengths      map[string]int
	docCreatedAt    map[string]time.Time
	avgDocLength    float64
	docCount        int
	recencyHalfLife time.Duration
}

// newFTSIndex builds an index. A positive recencyHalfLife blends BM25
// relevance with an exponential recency decay at Search time (used for
// Recall); zero leaves ranking as pure text relevance (used for
// Archival, which has no "too old" concept).
func newFTSIndex(recencyHalfLife time.Duration) *ftsIndex {
	return &ftsIndex{
		documents:       make(map[string]string),
		invertedIndex:   make(map[string]map[string]int),
		docLengths:      make(map[string]int),
		docCreatedAt:    make(map[string]time.Time),
		recencyHalfLife: recencyHalfLife,
	}
}

type ftsResult struct {
	ID    string
	Score float64
}

func (f *ftsIndex) Index(id, text string, createdAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeInternal(id)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return
	}

	f.documents[id] = text
	f.docLengths[id] = len(tokens)
	f.docCreatedAt[id] = createdAt
	f.docCount++

	termFreq := make(map[string]int)
	for _, token := range tokens {
		termFreq[token]++
	}
	for term, freq := range termFreq {
		if f.invertedIndex[term] == nil {
			f.invertedIndex[term] = make(map[string]int)
		}
		f.invertedIndex[term][id] = freq
	}
	f.updateAvgDocLength()
}

func (f *ftsIndex) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeInternal(id)
}

func (f *ftsIndex) removeInternal(id string) {
	text, exists := f.documents[id]
	if !exists {
		return
	}
	tokens := tokenize(text)
	termFreq := make(map[string]int)
	for _, token := range tokens {
		termFreq[token]++
	}
	for term := range termFreq {
		if docs, ok := f.invertedIndex[term]; ok {
			delete(docs, id)
			if len(docs) == 0 {
				delete(f.invertedIndex, term)
			}
		}
	}
	delete(f.documents, id)
	delete(f.docLengths, id)
	delete(f.docCreatedAt, id)
	f.docCount--
	f.updateAvgDocLength()
}

func (f *ftsIndex) Search(query string, limit int) []ftsResult {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.docCount == 0 {
		return nil
	}
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, term := range queryTerms {
		if docs, exists := f.invertedIndex[term]; exists {
			idf := f.calculateIDF(term)
			for docID, tf := range docs {
				scores[docID] += idf * bm25Term(float64(tf), float64(f.docLengths[docID]), f.avgDocLength)
			}
		}
		for indexedTerm, termDocs := range f.invertedIndex {
			if indexedTerm != term && strings.HasPrefix(indexedTerm, term) {
				idf := f.calculateIDF(indexedTerm) * 0.8
				for docID, tf := range termDocs {
					scores[docID] += idf * bm25Term(float64(tf), float64(f.docLengths[docID]), f.avgDocLength)
				}
			}
		}
	}

	results := make([]ftsResult, 0, len(scores))
	for id, score := range scores {
		results = append(results, ftsResult{ID: id, Score: score * f.recencyWeight(id)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// recencyWeight returns a multiplier in (0, 1] that decays a document's
// BM25 score by age when the index has a recencyHalfLife configured,
// so two Recall entries with similar relevance rank by which one is
// more recent. Returns 1 (no decay) for undated or zero-half-life
// (Archival) indexes.
func (f *ftsIndex) recencyWeight(id string) float64 {
	if f.recencyHalfLife <= 0 {
		return 1
	}
	createdAt, ok := f.docCreatedAt[id]
	if !ok || createdAt.IsZero() {
		return 1
	}
	age := time.Since(createdAt)
	if age <= 0 {
		return 1
	}
	return math.Pow(0.5, age.Hours()/f.recencyHalfLife.Hours())
}

func bm25Term(tf, docLen, avgDocLength float64) float64 {
	numerator := tf * (bm25K1 + 1)
	denominator := tf + bm25K1*(1-bm25B+bm25B*(docLen/avgDocLength))
	return numerator / denominator
}

func (f *ftsIndex) calculateIDF(term string) float64 {
	df := float64(len(f.invertedIndex[term]))
	n := float64(f.docCount)
	idf := math.Log(1 + (n-df+0.5)/(df+0.5))
	if idf < 0 {
		idf = 0
	}
	return idf
}

func (f *ftsIndex) updateAvgDocLength() {
	if f.docCount == 0 {
		f.avgDocLength = 0
		return
	}
	var total int
	for _, length := range f.docLengths {
		total += length
	}
	f.avgDocLength = float64(total) / float64(f.docCount)
}

func (f *ftsIndex) GetDocument(id string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	text, ok := f.documents[id]
	return text, ok
}

func tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
	var tokens []string
	for _, word := range words {
		if len(word) < 2 || isStopWord(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "he": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "was": true, "were": true,
	"with": true, "this": true, "but": true, "they": true,
	"we": true, "you": true, "your": true, "my": true, "their": true,
	"been": true, "do": true, "does": true, "did": true,
}

func isStopWord(word string) bool {
	return stopWords[word]
}
