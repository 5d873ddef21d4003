package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
)

// UnknownPerson names a person the model could not identify.
const UnknownPerson = "Unknown"

const maxPromptChars = 12000

// Facts is the structured content of one résumé.
type Facts struct {
	Person      PersonFacts      `json:"person"`
	Skills      []string         `json:"skills"`
	Experiences []ExperienceFact `json:"experiences"`
	Education   []EducationFact  `json:"education"`
}

type PersonFacts struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

type ExperienceFact struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

type EducationFact struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// EmptyFacts is substituted when the model output cannot be parsed.
func EmptyFacts() Facts {
	return Facts{
		Person:      PersonFacts{Name: UnknownPerson},
		Skills:      []string{},
		Experiences: []ExperienceFact{},
		Education:   []EducationFact{},
	}
}

const factsPrompt = `Extract information from this resume and return ONLY valid JSON.

Resume:
%s

Return JSON with this exact structure:
{"person": {"name": "...", "email": "...", "phone": "...", "location": "..."}, "skills": [...], "experiences": [{"title": "...", "company": "...", "duration": "...", "description": "..."}], "education": [{"degree": "...", "institution": "...", "year": "..."}]}`

// ExtractFacts asks gen for the résumé's facts. Generation errors, including
// *AuthRequiredError, are returned; unparseable output is not an error.
func ExtractFacts(ctx context.Context, gen Generator, text string) (Facts, error) {
	prompt := fmt.Sprintf(factsPrompt, engine.TruncateRunes(text, maxPromptChars, ""))
	raw, err := gen.Generate(ctx, prompt)
	if err != nil {
		return Facts{}, err
	}
	return ParseFacts(raw), nil
}

// ParseFacts reads the first balanced JSON object in raw. Entries of the wrong
// shape are dropped; when no object parses, EmptyFacts is returned.
func ParseFacts(raw string) Facts {
	obj, ok := engine.FirstJSONObject(raw)
	if !ok {
		slog.Warn("resume: model output has no JSON object", slog.String("raw", engine.Truncate(raw, 200)))
		return EmptyFacts()
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		slog.Warn("resume: model output is not valid JSON", slog.Any("error", err))
		return EmptyFacts()
	}

	f := EmptyFacts()
	if p, ok := doc["person"].(map[string]any); ok {
		if name := scalar(p["name"]); name != "" {
			f.Person.Name = name
		}
		f.Person.Email = scalar(p["email"])
		f.Person.Phone = scalar(p["phone"])
		f.Person.Location = scalar(p["location"])
	}

	seen := make(map[string]bool)
	for _, v := range list(doc["skills"]) {
		s, ok := v.(string)
		s = strings.TrimSpace(s)
		if !ok || s == "" || seen[s] {
			continue
		}
		seen[s] = true
		f.Skills = append(f.Skills, s)
	}
	for _, v := range list(doc["experiences"]) {
		if m, ok := v.(map[string]any); ok {
			f.Experiences = append(f.Experiences, ExperienceFact{
				Title:       scalar(m["title"]),
				Company:     scalar(m["company"]),
				Duration:    scalar(m["duration"]),
				Description: scalar(m["description"]),
			})
		}
	}
	for _, v := range list(doc["education"]) {
		if m, ok := v.(map[string]any); ok {
			f.Education = append(f.Education, EducationFact{
				Degree:      scalar(m["degree"]),
				Institution: scalar(m["institution"]),
				Year:        scalar(m["year"]),
			})
		}
	}
	return f
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

// scalar renders a JSON scalar as text; objects, arrays and null become "".
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
