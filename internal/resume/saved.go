package resume

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
	"github.com/anatolykoptev/go_careerlift/internal/graph"
)

// SavedJob is a job bookmarked against a résumé.
type SavedJob struct {
	Title    string  `json:"job_title"`
	Company  string  `json:"company,omitempty"`
	Location string  `json:"location,omitempty"`
	ApplyURL string  `json:"apply_url"`
	Source   string  `json:"source,omitempty"`
	SavedAt  string  `json:"saved_at"`
	Notes    string  `json:"notes,omitempty"`
	ATSScore float64 `json:"ats_score"`
}

// SavedJobs lists a résumé's bookmarks.
type SavedJobs struct {
	ResumeID   string     `json:"resume_id"`
	ResumeName string     `json:"resume_name"`
	Jobs       []SavedJob `json:"jobs"`
}

// SaveJob links a résumé to a stored job. Saving again refreshes saved_at
// and replaces the notes.
func (s *Service) SaveJob(ctx context.Context, resumeID, applyURL, notes string) error {
	now := graph.Timestamp(s.now())
	return s.store.InTx(ctx, func(tx graph.Tx) error {
		r, j, err := resumeAndJob(ctx, tx, resumeID, applyURL)
		if err != nil {
			return err
		}
		_, err = tx.MergeEdge(ctx, r.ID, j.ID, graph.RelSavedJob, graph.Props{
			"saved_at": now,
			"notes":    optional(strings.TrimSpace(notes)),
		})
		return err
	})
}

// SavedJobs returns the résumé's saved jobs, most recently saved first, each
// scored on title and description against the résumé owner.
func (s *Service) SavedJobs(ctx context.Context, resumeID string) (SavedJobs, error) {
	out := SavedJobs{ResumeID: resumeID, Jobs: []SavedJob{}}
	err := s.store.InTx(ctx, func(tx graph.Tx) error {
		r, err := findResume(ctx, tx, resumeID)
		if err != nil {
			return err
		}
		out.ResumeName = r.Props.String("name")

		var cand jobs.Candidate
		if personID, found, err := ownerOf(ctx, tx, r.ID); err != nil {
			return err
		} else if found {
			if cand, _, err = candidateFor(ctx, tx, personID); err != nil {
				return err
			}
		}

		links, err := tx.Out(ctx, r.ID, graph.RelSavedJob)
		if err != nil {
			return err
		}
		for _, l := range links {
			p := l.Node.Props
			out.Jobs = append(out.Jobs, SavedJob{
				Title:    p.String("title"),
				Company:  p.String("company"),
				Location: p.String("location"),
				ApplyURL: p.String("apply_url"),
				Source:   p.String("source"),
				SavedAt:  l.Props.String("saved_at"),
				Notes:    l.Props.String("notes"),
				ATSScore: cand.Score(jobs.Posting{
					Title:       jobs.Str(p.String("title")),
					Description: jobs.Str(p.String("description")),
				}),
			})
		}
		return nil
	})
	slices.SortStableFunc(out.Jobs, func(a, b SavedJob) int { return strings.Compare(b.SavedAt, a.SavedAt) })
	return out, err
}

// RemoveSavedJob deletes the bookmark, or fails with ErrSavedJobNotFound.
func (s *Service) RemoveSavedJob(ctx context.Context, resumeID, applyURL string) error {
	return s.store.InTx(ctx, func(tx graph.Tx) error {
		r, j, err := resumeAndJob(ctx, tx, resumeID, applyURL)
		if errors.Is(err, ErrResumeNotFound) || errors.Is(err, ErrJobNotFound) {
			return ErrSavedJobNotFound
		}
		if err != nil {
			return err
		}
		deleted, err := tx.DeleteEdge(ctx, r.ID, j.ID, graph.RelSavedJob)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrSavedJobNotFound
		}
		return nil
	})
}

func resumeAndJob(ctx context.Context, tx graph.Tx, resumeID, applyURL string) (r, j *graph.Node, err error) {
	if r, err = findResume(ctx, tx, resumeID); err != nil {
		return nil, nil, err
	}
	j, err = tx.FindByKey(ctx, graph.LabelJobPosting, applyURL)
	if errors.Is(err, graph.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrJobNotFound, applyURL)
	}
	return r, j, err
}
