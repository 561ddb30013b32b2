// Package loader reads survey documents from JSON or YAML, validates them and
// builds the dataset plus the literal presentation content that goes with it.
package loader

import (
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

// Document is the wire format of a survey file.
type Document struct {
	Title          string            `json:"title" yaml:"title" validate:"required"`
	Subtitle       string            `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	PageTitle      string            `json:"page_title,omitempty" yaml:"page_title,omitempty"`
	CategoryLabels map[string]string `json:"category_labels,omitempty" yaml:"category_labels,omitempty"`
	Buckets        []BucketDocument  `json:"buckets" yaml:"buckets" validate:"dive"`
	Findings       []Finding         `json:"findings,omitempty" yaml:"findings,omitempty" validate:"dive"`
	Strategic      *Recommendation   `json:"strategic,omitempty" yaml:"strategic,omitempty"`
	Benchmarks     []Benchmark       `json:"benchmarks,omitempty" yaml:"benchmarks,omitempty" validate:"dive"`
	ActionItems    []ActionItem      `json:"action_items,omitempty" yaml:"action_items,omitempty" validate:"dive"`
}

// BucketDocument carries counts and literal text for one size.
type BucketDocument struct {
	ID             string          `json:"id" yaml:"id" validate:"required"`
	Counts         map[string]int  `json:"counts" yaml:"counts" validate:"dive,gte=0"`
	Issues         []string        `json:"issues,omitempty" yaml:"issues,omitempty"`
	Feedback       []string        `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

type Finding struct {
	Title string `json:"title" yaml:"title" validate:"required"`
	Body  string `json:"body" yaml:"body"`
	Tone  string `json:"tone,omitempty" yaml:"tone,omitempty" validate:"omitempty,oneof=info warning error success"`
}

type Recommendation struct {
	Title   string   `json:"title" yaml:"title" validate:"required"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

type Benchmark struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

type ActionItem struct {
	Bucket string `json:"bucket" yaml:"bucket" validate:"required"`
	Label  string `json:"label" yaml:"label" validate:"required"`
	Body   string `json:"body" yaml:"body"`
}

// BucketContent is the literal text attached to one size bucket.
type BucketContent struct {
	Issues         []string        `json:"issues,omitempty"`
	Feedback       []string        `json:"feedback,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// Content is everything the dashboard shows that is not derived from counts.
// Strings are carried verbatim.
type Content struct {
	Title       string                              `json:"title"`
	Subtitle    string                              `json:"subtitle,omitempty"`
	PageTitle   string                              `json:"page_title,omitempty"`
	Labels      map[survey.ResponseCategory]string  `json:"labels"`
	Buckets     map[survey.SizeBucket]BucketContent `json:"buckets"`
	Findings    []Finding                           `json:"findings,omitempty"`
	Strategic   *Recommendation                     `json:"strategic,omitempty"`
	Benchmarks  []Benchmark                         `json:"benchmarks,omitempty"`
	ActionItems []ActionItem                        `json:"action_items,omitempty"`
}

// Label returns the display label for a category, falling back to its wire name.
func (c *Content) Label(category survey.ResponseCategory) string {
	if l, ok := c.Labels[category]; ok && l != "" {
		return l
	}
	return category.String()
}

// Bucket returns the literal text for bucket, empty when none was provided.
func (c *Content) Bucket(bucket survey.SizeBucket) BucketContent {
	return c.Buckets[bucket]
}

// Bundle is a loaded survey: the validated dataset, its report and the
// presentation content.
type Bundle struct {
	Dataset *survey.Dataset
	Report  *survey.Report
	Content Content
	Source  string
}
