// Package resume turns uploaded résumé files into a person subgraph
// (skills, experience, education) and answers résumé-centric queries:
// the stored graph, ATS scores against ingested jobs, and saved jobs.
package resume

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
	"github.com/anatolykoptev/go_careerlift/internal/graph"
)

// DefaultResumeName labels an upload that names no résumé.
const DefaultResumeName = "Default Resume"

var (
	ErrResumeNotFound   = errors.New("resume not found")
	ErrPersonNotFound   = errors.New("person not found")
	ErrJobNotFound      = errors.New("job not found")
	ErrSavedJobNotFound = errors.New("saved job not found")
)

// Service runs the upload pipeline and résumé queries against one graph store.
type Service struct {
	store graph.Store
	gen   Generator
	now   func() time.Time
}

// NewService returns a Service using gen for fact extraction.
func NewService(store graph.Store, gen Generator) *Service {
	return &Service{store: store, gen: gen, now: time.Now}
}

// Upload is one résumé file plus naming overrides.
type Upload struct {
	Filename   string
	Data       []byte
	PersonName string
	ResumeName string
}

// UploadResult summarizes a processed upload.
type UploadResult struct {
	ResumeID     string `json:"resume_id"`
	ResumeName   string `json:"resume_name"`
	PersonName   string `json:"person_name"`
	Filename     string `json:"filename"`
	TextLength   int    `json:"text_length"`
	NodesCreated int    `json:"nodes_created"`
	Facts        Facts  `json:"graph_data"`
}

// Upload extracts text, asks the model for facts and writes the person
// subgraph, the Resume node and its BELONGS_TO link in one transaction.
// An explicit PersonName wins over the extracted name.
func (s *Service) Upload(ctx context.Context, u Upload) (UploadResult, error) {
	engine.IncrResumeUploads()
	text, err := ExtractText(u.Filename, u.Data)
	if err != nil {
		return UploadResult{}, err
	}

	facts, err := ExtractFacts(ctx, s.gen, text)
	if err != nil {
		return UploadResult{}, fmt.Errorf("extract facts: %w", err)
	}
	if name := strings.TrimSpace(u.PersonName); name != "" {
		facts.Person.Name = name
	}
	resumeName := strings.TrimSpace(u.ResumeName)
	if resumeName == "" {
		resumeName = DefaultResumeName
	}

	res := UploadResult{
		ResumeID:   uuid.NewString(),
		ResumeName: resumeName,
		PersonName: facts.Person.Name,
		Filename:   u.Filename,
		TextLength: len([]rune(text)),
		Facts:      facts,
	}
	now := s.now()
	ts := graph.Timestamp(now)

	err = s.store.InTx(ctx, func(tx graph.Tx) error {
		personID, created, err := materialize(ctx, tx, facts, now)
		if err != nil {
			return err
		}
		res.NodesCreated = created

		resumeID, err := tx.CreateNode(ctx, graph.LabelResume, graph.Props{
			"id":          res.ResumeID,
			"name":        resumeName,
			"person_name": facts.Person.Name,
			"text":        text,
			"filename":    u.Filename,
			"created_at":  ts,
			"updated_at":  ts,
		})
		if err != nil {
			return fmt.Errorf("create resume: %w", err)
		}
		_, err = tx.MergeEdge(ctx, resumeID, personID, graph.RelBelongsTo, nil)
		return err
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("store resume: %w", err)
	}

	slog.Info("resume: uploaded",
		slog.String("resume_id", res.ResumeID),
		slog.String("person", res.PersonName),
		slog.Int("skills", len(facts.Skills)),
		slog.Int("nodes_created", res.NodesCreated))
	return res, nil
}

// PersonGraph is a person with everything linked to them.
type PersonGraph struct {
	Person      graph.Props   `json:"person"`
	Skills      []graph.Props `json:"skills"`
	Experiences []graph.Props `json:"experiences"`
	Education   []graph.Props `json:"education"`
}

// Graph returns the stored subgraph of the named person.
func (s *Service) Graph(ctx context.Context, personName string) (PersonGraph, error) {
	var g PersonGraph
	err := s.store.InTx(ctx, func(tx graph.Tx) error {
		p, err := findPerson(ctx, tx, personName)
		if err != nil {
			return err
		}
		g.Person = p.Props
		if g.Skills, err = linkedProps(ctx, tx, p.ID, graph.RelHasSkill); err != nil {
			return err
		}
		if g.Experiences, err = linkedProps(ctx, tx, p.ID, graph.RelHasExperience); err != nil {
			return err
		}
		g.Education, err = linkedProps(ctx, tx, p.ID, graph.RelHasEducation)
		return err
	})
	return g, err
}

// Score rates every stored job against the named person, best first.
func (s *Service) Score(ctx context.Context, personName string) ([]jobs.StoredJob, error) {
	var out []jobs.StoredJob
	err := s.store.InTx(ctx, func(tx graph.Tx) error {
		p, err := findPerson(ctx, tx, personName)
		if err != nil {
			return err
		}
		cand, _, err := candidateFor(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		nodes, err := tx.Nodes(ctx, graph.LabelJobPosting)
		if err != nil {
			return err
		}
		out = make([]jobs.StoredJob, 0, len(nodes))
		for _, n := range nodes {
			j := jobs.FromProps(n.Props)
			score := cand.Score(j.Posting)
			j.ATSScore = &score
			out = append(out, j)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b jobs.StoredJob) int {
		return cmp.Compare(*b.ATSScore, *a.ATSScore)
	})
	return out, nil
}

// Candidate resolves a résumé to its owner's scoring profile. ok is false
// when the résumé has no person or the person has no skills.
func (s *Service) Candidate(ctx context.Context, resumeID string) (c jobs.Candidate, ok bool, err error) {
	err = s.store.InTx(ctx, func(tx graph.Tx) error {
		r, err := findResume(ctx, tx, resumeID)
		if err != nil {
			return err
		}
		personID, found, err := ownerOf(ctx, tx, r.ID)
		if err != nil || !found {
			return err
		}
		c, ok, err = candidateFor(ctx, tx, personID)
		return err
	})
	return c, ok, err
}

// Rank scores list in place against the owner of resumeID and sorts it best
// first. An unknown résumé, or an owner without skills, leaves list unscored
// and in its original order.
func (s *Service) Rank(ctx context.Context, resumeID string, list []jobs.StoredJob) error {
	cand, ok, err := s.Candidate(ctx, resumeID)
	if errors.Is(err, ErrResumeNotFound) {
		return nil
	}
	if err != nil || !ok {
		return err
	}
	for i := range list {
		score := cand.Score(list[i].Posting)
		list[i].ATSScore = &score
	}
	slices.SortStableFunc(list, func(a, b jobs.StoredJob) int {
		return cmp.Compare(*b.ATSScore, *a.ATSScore)
	})
	return nil
}

// Info describes one stored résumé.
type Info struct {
	ResumeID   string `json:"resume_id"`
	ResumeName string `json:"resume_name"`
	PersonName string `json:"person_name"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// List returns résumés newest first, optionally only those of personName.
func (s *Service) List(ctx context.Context, personName string) ([]Info, error) {
	var out []Info
	err := s.store.InTx(ctx, func(tx graph.Tx) error {
		nodes, err := tx.Nodes(ctx, graph.LabelResume)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			if personName != "" && n.Props.String("person_name") != personName {
				continue
			}
			out = append(out, Info{
				ResumeID:   n.Props.String("id"),
				ResumeName: n.Props.String("name"),
				PersonName: n.Props.String("person_name"),
				CreatedAt:  n.Props.String("created_at"),
				UpdatedAt:  n.Props.String("updated_at"),
			})
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b Info) int { return strings.Compare(b.CreatedAt, a.CreatedAt) })
	return out, err
}

func findPerson(ctx context.Context, tx graph.Tx, name string) (*graph.Node, error) {
	p, err := tx.FindByKey(ctx, graph.LabelPerson, name)
	if errors.Is(err, graph.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrPersonNotFound, name)
	}
	return p, err
}

func findResume(ctx context.Context, tx graph.Tx, id string) (*graph.Node, error) {
	r, err := tx.FindByKey(ctx, graph.LabelResume, id)
	if errors.Is(err, graph.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	return r, err
}

// ownerOf follows BELONGS_TO from a Resume node to its Person.
func ownerOf(ctx context.Context, tx graph.Tx, resumeNodeID int64) (int64, bool, error) {
	links, err := tx.Out(ctx, resumeNodeID, graph.RelBelongsTo)
	if err != nil || len(links) == 0 {
		return 0, false, err
	}
	return links[0].Node.ID, true, nil
}

// candidateFor builds the scoring profile from skill names and experience
// descriptions. ok reports whether the person has any skills.
func candidateFor(ctx context.Context, tx graph.Tx, personID int64) (jobs.Candidate, bool, error) {
	skillLinks, err := tx.Out(ctx, personID, graph.RelHasSkill)
	if err != nil {
		return jobs.Candidate{}, false, err
	}
	expLinks, err := tx.Out(ctx, personID, graph.RelHasExperience)
	if err != nil {
		return jobs.Candidate{}, false, err
	}
	skills := make([]string, 0, len(skillLinks))
	for _, l := range skillLinks {
		skills = append(skills, l.Node.Props.String("name"))
	}
	var descs []string
	for _, l := range expLinks {
		if d := l.Node.Props.String("description"); d != "" {
			descs = append(descs, d)
		}
	}
	return jobs.NewCandidate(skills, strings.Join(descs, " ")), len(skills) > 0, nil
}

func linkedProps(ctx context.Context, tx graph.Tx, from int64, rel string) ([]graph.Props, error) {
	links, err := tx.Out(ctx, from, rel)
	if err != nil {
		return nil, err
	}
	out := make([]graph.Props, 0, len(links))
	for _, l := range links {
		out = append(out, l.Node.Props)
	}
	return out, nil
}
