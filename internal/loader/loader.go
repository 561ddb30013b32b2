package loader

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

//go:embed data/survey.schema.json data/toddler_bottoms.yaml
var dataFiles embed.FS

const (
	schemaFile  = "data/survey.schema.json"
	fixtureFile = "data/toddler_bottoms.yaml"

	// EmbeddedSource names the built-in dataset in Bundle.Source.
	EmbeddedSource = "embedded"
)

// Format is the encoding of a survey document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", &survey.ValidationError{Field: "path", Reason: fmt.Sprintf("unsupported file extension %q", filepath.Ext(path))}
}

// FieldError is a single schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaError lists every JSON Schema violation in a document.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema validation failed:")
	for i, fe := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %s: %s", i+1, fe.Field, fe.Message))
	}
	return sb.String()
}

func (e *SchemaError) Is(target error) bool { return target == survey.ErrValidation }

var validate = validator.New()

// Load reads a survey document from disk.
func Load(path string) (*Bundle, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey file: %w", err)
	}
	bundle, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	bundle.Source = path
	return bundle, nil
}

// LoadEmbedded returns the built-in toddler bottoms survey.
func LoadEmbedded() (*Bundle, error) {
	data, err := dataFiles.ReadFile(fixtureFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded survey: %w", err)
	}
	bundle, err := Parse(data, FormatYAML)
	if err != nil {
		return nil, err
	}
	bundle.Source = EmbeddedSource
	return bundle, nil
}

// Parse validates raw document bytes against the schema and builds a Bundle.
func Parse(data []byte, format Format) (*Bundle, error) {
	doc, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// Decode validates raw bytes against the schema and returns the typed document.
func Decode(data []byte, format Format) (*Document, error) {
	raw, err := normalize(data, format)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, &survey.ValidationError{Field: "document", Reason: err.Error()}
	}
	return &doc, nil
}

// normalize turns either format into JSON so a single schema covers both.
func normalize(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if !json.Valid(data) {
			return nil, &survey.ValidationError{Field: "document", Reason: "malformed JSON"}
		}
		return data, nil
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, &survey.ValidationError{Field: "document", Reason: fmt.Sprintf("malformed YAML: %v", err)}
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, &survey.ValidationError{Field: "document", Reason: fmt.Sprintf("YAML is not representable as JSON: %v", err)}
		}
		return out, nil
	}
	return nil, &survey.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", string(format))}
}

func validateSchema(doc []byte) error {
	schema, err := dataFiles.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read survey schema: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &survey.ValidationError{Field: "document", Reason: err.Error()}
	}
	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Errors = append(schemaErr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return schemaErr
}

// FromDocument validates a typed document and builds the Bundle. Every
// source, including sqlite, goes through here.
func FromDocument(doc *Document) (*Bundle, error) {
	if err := validate.Struct(doc); err != nil {
		return nil, structError(err)
	}

	entries := make([]survey.Entry, 0, len(doc.Buckets))
	for i, b := range doc.Buckets {
		counts := make(map[survey.ResponseCategory]int, len(b.Counts))
		for name, n := range b.Counts {
			category, err := survey.ParseCategory(name)
			if err != nil {
				return nil, &survey.ValidationError{Field: fmt.Sprintf("buckets[%d].counts", i), Reason: err.Error()}
			}
			counts[category] = n
		}
		entries = append(entries, survey.Entry{Bucket: survey.SizeBucket(b.ID), Counts: counts})
	}

	ds, err := survey.New(entries)
	if err != nil {
		return nil, err
	}

	content, err := buildContent(doc, ds)
	if err != nil {
		return nil, err
	}

	return &Bundle{Dataset: ds, Report: survey.NewReport(ds), Content: content}, nil
}

func buildContent(doc *Document, ds *survey.Dataset) (Content, error) {
	content := Content{
		Title:      doc.Title,
		Subtitle:   doc.Subtitle,
		PageTitle:  doc.PageTitle,
		Labels:     make(map[survey.ResponseCategory]string, len(doc.CategoryLabels)),
		Buckets:    make(map[survey.SizeBucket]BucketContent, len(doc.Buckets)),
		Findings:   doc.Findings,
		Strategic:  doc.Strategic,
		Benchmarks: doc.Benchmarks,
	}
	if len(doc.ActionItems) > 0 {
		content.ActionItems = make([]ActionItem, len(doc.ActionItems))
	}
	if content.PageTitle == "" {
		content.PageTitle = content.Title
	}

	for name, label := range doc.CategoryLabels {
		category, err := survey.ParseCategory(name)
		if err != nil {
			return Content{}, &survey.ValidationError{Field: "category_labels", Reason: err.Error()}
		}
		content.Labels[category] = label
	}

	for _, b := range doc.Buckets {
		id := survey.SizeBucket(strings.TrimSpace(b.ID))
		content.Buckets[id] = BucketContent{
			Issues:         b.Issues,
			Feedback:       b.Feedback,
			Recommendation: b.Recommendation,
		}
	}

	for i, item := range doc.ActionItems {
		item.Bucket = strings.TrimSpace(item.Bucket)
		content.ActionItems[i] = item
		if !ds.Has(survey.SizeBucket(item.Bucket)) {
			return Content{}, &survey.ValidationError{
				Field:  fmt.Sprintf("action_items[%d].bucket", i),
				Reason: fmt.Sprintf("references unknown bucket %q", item.Bucket),
			}
		}
	}

	return content, nil
}

func structError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &survey.ValidationError{
			Field:  fe.Namespace(),
			Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
		}
	}
	return &survey.ValidationError{Field: "document", Reason: err.Error()}
}

// Encode writes doc in the given format.
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	}
	return nil, &survey.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", string(format))}
}

// ToDocument converts a bundle back to its wire form.
func (b *Bundle) ToDocument() *Document {
	doc := &Document{
		Title:       b.Content.Title,
		Subtitle:    b.Content.Subtitle,
		PageTitle:   b.Content.PageTitle,
		Findings:    b.Content.Findings,
		Strategic:   b.Content.Strategic,
		Benchmarks:  b.Content.Benchmarks,
		ActionItems: b.Content.ActionItems,
		Buckets:     make([]BucketDocument, 0, b.Dataset.Len()),
	}
	if len(b.Content.Labels) > 0 {
		doc.CategoryLabels = make(map[string]string, len(b.Content.Labels))
		for c, l := range b.Content.Labels {
			doc.CategoryLabels[c.String()] = l
		}
	}
	for _, e := range b.Dataset.Entries() {
		counts := make(map[string]int, len(e.Counts))
		for c, n := range e.Counts {
			counts[c.String()] = n
		}
		bc := b.Content.Bucket(e.Bucket)
		doc.Buckets = append(doc.Buckets, BucketDocument{
			ID:             string(e.Bucket),
			Counts:         counts,
			Issues:         bc.Issues,
			Feedback:       bc.Feedback,
			Recommendation: bc.Recommendation,
		})
	}
	return doc
}
