package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

var urlRegex = regexp.MustCompile(`https?://[^\s"'<>]+`)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	tags        = regexp.MustCompile(`<[^>]*>`)
	teamSplit   = regexp.MustCompile(`\s+(?:-|–|vs\.?|v)\s+`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "in": {}, "for": {}, "of": {},
	"and": {}, "at": {}, "on": {}, "vs": {}, "with": {}, "from": {},
	"highlights": {}, "highlight": {}, "goals": {}, "match": {},
}

// ExtractURLs extracts all HTTP(S) URLs from the input text or HTML snippet.
func ExtractURLs(input string) []string {
	if input == "" {
		return nil
	}
	matches := urlRegex.FindAllString(input, -1)
	if len(matches) == 0 {
		return nil
	}
	// Remove duplicates while preserving order
	seen := make(map[string]struct{})
	var urls []string
	for _, url := range matches {
		if _, ok := seen[url]; !ok {
			seen[url] = struct{}{}
			urls = append(urls, url)
		}
	}
	return urls
}

// StripTags removes HTML tags and decodes entities, keeping punctuation.
func StripTags(input string) string {
	if input == "" {
		return ""
	}
	out := html.UnescapeString(tags.ReplaceAllString(input, " "))
	return strings.TrimSpace(whitespace.ReplaceAllString(out, " "))
}

// CleanText strips HTML, URLs and punctuation and squeezes whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := StripTags(input)
	decoded = urlRegex.ReplaceAllString(decoded, " ")
	decoded = punctuation.ReplaceAllString(decoded, " ")
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// Slugify lowercases input and joins its letter/number runs with dashes.
func Slugify(input string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// SplitCompetition separates a "COUNTRY: Competition" label into its parts.
// Labels without a country prefix are returned unchanged with an empty country.
func SplitCompetition(label string) (country, name string) {
	label = strings.TrimSpace(label)
	idx := strings.Index(label, ":")
	if idx <= 0 {
		return "", label
	}
	country = titleCase(strings.TrimSpace(label[:idx]))
	name = strings.TrimSpace(label[idx+1:])
	if name == "" {
		return "", label
	}
	return country, name
}

// SplitTeams splits a match title such as "Arsenal - Chelsea" into home and away.
func SplitTeams(title string) (home, away string, ok bool) {
	parts := teamSplit.Split(strings.TrimSpace(title), 2)
	if len(parts) != 2 {
		return "", "", false
	}
	home, away = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if home == "" || away == "" {
		return "", "", false
	}
	return home, away, true
}

// ExtractKeywords returns the most frequent words that are not stop-words.
func ExtractKeywords(text string, limit, minLen int) []string {
	clean := strings.ToLower(CleanText(text))
	if clean == "" {
		return nil
	}

	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		freq[token]++
	}

	if len(freq) == 0 {
		return nil
	}

	type kv struct {
		word  string
		count int
	}

	pairs := make([]kv, 0, len(freq))
	for word, count := range freq {
		pairs = append(pairs, kv{word: word, count: count})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].count > pairs[j].count
	})

	max := limit
	if max <= 0 || max > len(pairs) {
		max = len(pairs)
	}

	keywords := make([]string, 0, max)
	for i := 0; i < max; i++ {
		keywords = append(keywords, pairs[i].word)
	}

	return keywords
}

// DedupKey hashes the fields that identify the same match across providers:
// title, both team names and the UTC day of the match.
func DedupKey(title, home, away string, matchDate time.Time) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	s := sha1.Sum([]byte(norm(title) + "|" + norm(home) + "|" + norm(away) + "|" + matchDate.UTC().Format(time.DateOnly)))
	return hex.EncodeToString(s[:])
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
