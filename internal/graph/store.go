// Package graph stores the career graph (people, skills, résumés, job postings)
// behind a small transactional node/edge interface with two backends:
// Postgres + Apache AGE for deployments and embedded SQLite for local use and tests.
package graph

import (
	"context"
	"errors"
	"time"
)

// Node labels.
const (
	LabelPerson     = "Person"
	LabelSkill      = "Skill"
	LabelExperience = "Experience"
	LabelEducation  = "Education"
	LabelResume     = "Resume"
	LabelJobPosting = "JobPosting"
)

// Relation labels.
const (
	RelHasSkill      = "HAS_SKILL"
	RelHasExperience = "HAS_EXPERIENCE"
	RelHasEducation  = "HAS_EDUCATION"
	RelBelongsTo     = "BELONGS_TO"
	RelSavedJob      = "SAVED_JOB"
)

// Keys maps each uniquely keyed label to its key property.
// Labels absent from the map (Experience, Education) are owned nodes without identity.
var Keys = map[string]string{
	LabelPerson:     "name",
	LabelSkill:      "name",
	LabelResume:     "id",
	LabelJobPosting: "apply_url",
}

// ErrNotFound is returned when a keyed node does not exist.
var ErrNotFound = errors.New("graph: not found")

// Props holds node or edge properties. A nil value means "absent".
type Props map[string]any

// String returns the string property k, or "" when missing or not a string.
func (p Props) String(k string) string {
	s, _ := p[k].(string)
	return s
}

// Bool returns the bool property k and whether it was set.
func (p Props) Bool(k string) (bool, bool) {
	b, ok := p[k].(bool)
	return b, ok
}

// Opt converts an optional value into a prop value, mapping nil pointers to an untyped nil.
func Opt[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Node is a stored vertex.
type Node struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Props Props  `json:"props"`
}

// Link is an outgoing edge together with the node it points to.
type Link struct {
	Label string `json:"label"`
	Props Props  `json:"props"`
	Node  Node   `json:"node"`
}

// Tx is one atomic unit of graph work. Every method runs inside the
// transaction opened by Store.InTx and is undone if fn returns an error.
type Tx interface {
	// Lock serializes writers of the same (label, key) until the transaction ends.
	Lock(ctx context.Context, label, key string) error
	FindByKey(ctx context.Context, label, key string) (*Node, error)
	Nodes(ctx context.Context, label string) ([]Node, error)
	CreateNode(ctx context.Context, label string, props Props) (int64, error)
	// SetProps sets non-nil values and removes keys mapped to nil.
	SetProps(ctx context.Context, id int64, props Props) error
	// DeleteNode removes the node and every edge touching it.
	DeleteNode(ctx context.Context, id int64) error
	// MergeEdge creates from-[label]->to unless it exists, then applies props.
	MergeEdge(ctx context.Context, from, to int64, label string, props Props) (created bool, err error)
	DeleteEdge(ctx context.Context, from, to int64, label string) (deleted bool, err error)
	Out(ctx context.Context, from int64, label string) ([]Link, error)
}

// Store opens transactions against a graph backend.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp formats t for storage as a property value.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTimestamp parses a value written by Timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// keyOf returns the key value for a keyed label, or "" for unkeyed labels.
func keyOf(label string, props Props) string {
	k, ok := Keys[label]
	if !ok {
		return ""
	}
	return props.String(k)
}
