package resume

import (
	"context"
	"fmt"
	"time"

	"github.com/anatolykoptev/go_careerlift/internal/graph"
)

// materialize writes f under one person inside tx. The person is merged by
// name, experiences and education are replaced wholesale, and skills are only
// ever added. It returns the person's node id and the number of nodes created.
func materialize(ctx context.Context, tx graph.Tx, f Facts, now time.Time) (personID int64, created int, err error) {
	ts := graph.Timestamp(now)

	person, err := graph.Merge(ctx, tx, graph.LabelPerson, f.Person.Name, graph.Props{
		"email":    optional(f.Person.Email),
		"phone":    optional(f.Person.Phone),
		"location": optional(f.Person.Location),
	}, nil, now)
	if err != nil {
		return 0, 0, err
	}
	if person.Created {
		created++
	}

	for _, rel := range []string{graph.RelHasExperience, graph.RelHasEducation} {
		if err := deleteOwned(ctx, tx, person.ID, rel); err != nil {
			return 0, 0, err
		}
	}

	linked, err := tx.Out(ctx, person.ID, graph.RelHasSkill)
	if err != nil {
		return 0, 0, fmt.Errorf("load skills: %w", err)
	}
	has := make(map[int64]bool, len(linked))
	for _, l := range linked {
		has[l.Node.ID] = true
	}
	for _, name := range f.Skills {
		skill, err := graph.Merge(ctx, tx, graph.LabelSkill, name, nil, nil, now)
		if err != nil {
			return 0, 0, err
		}
		if skill.Created {
			created++
		}
		if has[skill.ID] {
			continue
		}
		if _, err := tx.MergeEdge(ctx, person.ID, skill.ID, graph.RelHasSkill, graph.Props{"created_at": ts}); err != nil {
			return 0, 0, fmt.Errorf("link skill %q: %w", name, err)
		}
		has[skill.ID] = true
	}

	for _, e := range f.Experiences {
		if err := createOwned(ctx, tx, person.ID, graph.LabelExperience, graph.RelHasExperience, graph.Props{
			"title":       e.Title,
			"company":     e.Company,
			"duration":    e.Duration,
			"description": e.Description,
			"created_at":  ts,
		}); err != nil {
			return 0, 0, err
		}
		created++
	}
	for _, e := range f.Education {
		if err := createOwned(ctx, tx, person.ID, graph.LabelEducation, graph.RelHasEducation, graph.Props{
			"degree":      e.Degree,
			"institution": e.Institution,
			"year":        e.Year,
			"created_at":  ts,
		}); err != nil {
			return 0, 0, err
		}
		created++
	}
	return person.ID, created, nil
}

func deleteOwned(ctx context.Context, tx graph.Tx, personID int64, rel string) error {
	links, err := tx.Out(ctx, personID, rel)
	if err != nil {
		return fmt.Errorf("load %s: %w", rel, err)
	}
	for _, l := range links {
		if err := tx.DeleteNode(ctx, l.Node.ID); err != nil {
			return fmt.Errorf("delete %s node: %w", rel, err)
		}
	}
	return nil
}

func createOwned(ctx context.Context, tx graph.Tx, personID int64, label, rel string, props graph.Props) error {
	id, err := tx.CreateNode(ctx, label, props)
	if err != nil {
		return fmt.Errorf("create %s: %w", label, err)
	}
	if _, err := tx.MergeEdge(ctx, personID, id, rel, nil); err != nil {
		return fmt.Errorf("link %s: %w", label, err)
	}
	return nil
}

// optional maps "" to an absent prop so merges keep stored values.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
