package jobs

import (
	"math"
	"regexp"
	"strings"
)

// similarityThreshold is the ratio above which two tokens count as a match.
const similarityThreshold = 0.75

// keywordRe preserves tech suffixes like "c++", "c#", "node.js".
var keywordRe = regexp.MustCompile(`[a-zA-Z0-9\-+.#]+`)

// Keywords tokenizes text into lowercase keywords longer than two characters.
func Keywords(text string) []string {
	words := keywordRe.FindAllString(strings.ToLower(text), -1)
	out := words[:0]
	for _, w := range words {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// MatchResult is the outcome of scoring a candidate against one job.
type MatchResult struct {
	Score    float64  `json:"score"`
	Matching []string `json:"matching,omitempty"`
	Missing  []string `json:"missing,omitempty"`
}

// Candidate is the résumé side of a match. Build it once per résumé with
// NewCandidate and reuse it to score many jobs.
type Candidate struct {
	keywords []string
	exact    map[string]bool
}

// NewCandidate combines skill names with keywords from free résumé text.
func NewCandidate(skills []string, resumeText string) Candidate {
	c := Candidate{exact: make(map[string]bool)}
	for _, s := range skills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			c.keywords = append(c.keywords, s)
		}
	}
	c.keywords = append(c.keywords, Keywords(resumeText)...)
	for _, k := range c.keywords {
		c.exact[k] = true
	}
	return c
}

// Score returns the ATS score of c against job.
func (c Candidate) Score(job Posting) float64 {
	return c.Match(job).Score
}

// Match scores c against job: the percentage of job keywords that equal, or
// are similar enough to, some candidate keyword. Repeated job keywords count
// once per occurrence on both sides of the ratio. The first
// candidate keyword above the threshold wins. Jobs without keywords score 0.
func (c Candidate) Match(job Posting) MatchResult {
	text := strings.Join([]string{
		Deref(job.Title), Deref(job.Company), Deref(job.Location), Deref(job.Description),
	}, " ")

	var res MatchResult
	total := 0
	for _, jk := range Keywords(text) {
		total++
		if c.matches(jk) {
			res.Matching = append(res.Matching, jk)
		} else {
			res.Missing = append(res.Missing, jk)
		}
	}
	if total == 0 {
		return MatchResult{}
	}
	raw := float64(len(res.Matching)) / float64(total) * 100
	res.Score = math.Round(raw*100) / 100
	return res
}

func (c Candidate) matches(jk string) bool {
	if c.exact[jk] {
		return true
	}
	for _, rk := range c.keywords {
		if ratio(rk, jk) > similarityThreshold {
			return true
		}
	}
	return false
}

// ScoreResumeToJob is the one-shot form of NewCandidate(...).Score(job).
func ScoreResumeToJob(skills []string, resumeText string, job Posting) float64 {
	return NewCandidate(skills, resumeText).Score(job)
}

// ratio is the Ratcliff/Obershelp similarity 2*M/T, where M counts the
// characters in recursively found longest common blocks.
func ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

func matchingChars(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	matched := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest common block in a[alo:ahi] and b[blo:bhi],
// preferring the earliest start in a, then in b.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	besti, bestj = alo, blo
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}
