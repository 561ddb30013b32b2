package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/loader"
)

// ErrNoSurvey is returned when the database holds no survey yet
var ErrNoSurvey = errors.New("no survey stored")

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// SaveDocument replaces the stored survey with doc in one transaction
func (r *Repository) SaveDocument(ctx context.Context, doc *loader.Document, source string) (*SurveyRecord, error) {
	record := NewSurveyRecord(doc.Title, source)

	labels, err := encodeJSON(doc.CategoryLabels, len(doc.CategoryLabels) == 0)
	if err != nil {
		return nil, fmt.Errorf("failed to encode category labels: %w", err)
	}
	findings, err := encodeJSON(doc.Findings, len(doc.Findings) == 0)
	if err != nil {
		return nil, fmt.Errorf("failed to encode findings: %w", err)
	}
	strategic, err := encodeJSON(doc.Strategic, doc.Strategic == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode strategic recommendation: %w", err)
	}
	benchmarks, err := encodeJSON(doc.Benchmarks, len(doc.Benchmarks) == 0)
	if err != nil {
		return nil, fmt.Errorf("failed to encode benchmarks: %w", err)
	}
	actionItems, err := encodeJSON(doc.ActionItems, len(doc.ActionItems) == 0)
	if err != nil {
		return nil, fmt.Errorf("failed to encode action items: %w", err)
	}

	insertContent, err := r.db.GetPreparedStatement("insert_content")
	if err != nil {
		return nil, err
	}
	insertBucket, err := r.db.GetPreparedStatement("insert_bucket")
	if err != nil {
		return nil, err
	}
	insertCount, err := r.db.GetPreparedStatement("insert_count")
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"response_counts", "size_buckets", "survey_content"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	_, err = tx.StmtContext(ctx, insertContent).ExecContext(ctx,
		record.ID, doc.Title, doc.Subtitle, doc.PageTitle, labels, findings,
		strategic, benchmarks, actionItems, record.Source, record.ImportedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert survey content: %w", err)
	}

	bucketStmt := tx.StmtContext(ctx, insertBucket)
	countStmt := tx.StmtContext(ctx, insertCount)
	for position, b := range doc.Buckets {
		issues, err := encodeJSON(b.Issues, len(b.Issues) == 0)
		if err != nil {
			return nil, fmt.Errorf("failed to encode issues for bucket %s: %w", b.ID, err)
		}
		feedback, err := encodeJSON(b.Feedback, len(b.Feedback) == 0)
		if err != nil {
			return nil, fmt.Errorf("failed to encode feedback for bucket %s: %w", b.ID, err)
		}
		recommendation, err := encodeJSON(b.Recommendation, b.Recommendation == nil)
		if err != nil {
			return nil, fmt.Errorf("failed to encode recommendation for bucket %s: %w", b.ID, err)
		}

		if _, err := bucketStmt.ExecContext(ctx, record.ID, b.ID, position, issues, feedback, recommendation); err != nil {
			return nil, fmt.Errorf("failed to insert bucket %s: %w", b.ID, err)
		}
		for category, count := range b.Counts {
			if _, err := countStmt.ExecContext(ctx, record.ID, b.ID, category, count); err != nil {
				return nil, fmt.Errorf("failed to insert %s count for bucket %s: %w", category, b.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit survey: %w", err)
	}

	return record, nil
}

// LoadDocument reads the most recently stored survey
func (r *Repository) LoadDocument(ctx context.Context) (*loader.Document, *SurveyRecord, error) {
	getContent, err := r.db.GetPreparedStatement("get_latest_content")
	if err != nil {
		return nil, nil, err
	}

	var (
		doc                                                  loader.Document
		record                                               SurveyRecord
		labels, findings, strategic, benchmarks, actionItems sql.NullString
	)
	err = getContent.QueryRowContext(ctx).Scan(
		&record.ID, &doc.Title, &doc.Subtitle, &doc.PageTitle, &labels, &findings,
		&strategic, &benchmarks, &actionItems, &record.Source, &record.ImportedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNoSurvey
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query survey content: %w", err)
	}
	record.Title = doc.Title

	for _, col := range []struct {
		name  string
		value sql.NullString
		into  any
	}{
		{"category_labels", labels, &doc.CategoryLabels},
		{"findings", findings, &doc.Findings},
		{"strategic", strategic, &doc.Strategic},
		{"benchmarks", benchmarks, &doc.Benchmarks},
		{"action_items", actionItems, &doc.ActionItems},
	} {
		if err := decodeJSON(col.value, col.into); err != nil {
			return nil, nil, fmt.Errorf("failed to decode %s: %w", col.name, err)
		}
	}

	buckets, err := r.loadBuckets(ctx, record.ID)
	if err != nil {
		return nil, nil, err
	}
	doc.Buckets = buckets

	return &doc, &record, nil
}

func (r *Repository) loadBuckets(ctx context.Context, surveyID string) ([]loader.BucketDocument, error) {
	getBuckets, err := r.db.GetPreparedStatement("get_buckets")
	if err != nil {
		return nil, err
	}
	getCounts, err := r.db.GetPreparedStatement("get_counts")
	if err != nil {
		return nil, err
	}

	rows, err := getBuckets.QueryContext(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	defer rows.Close()

	buckets := []loader.BucketDocument{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			b                                loader.BucketDocument
			issues, feedback, recommendation sql.NullString
		)
		if err := rows.Scan(&b.ID, &issues, &feedback, &recommendation); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		if err := decodeJSON(issues, &b.Issues); err != nil {
			return nil, fmt.Errorf("failed to decode issues for bucket %s: %w", b.ID, err)
		}
		if err := decodeJSON(feedback, &b.Feedback); err != nil {
			return nil, fmt.Errorf("failed to decode feedback for bucket %s: %w", b.ID, err)
		}
		if err := decodeJSON(recommendation, &b.Recommendation); err != nil {
			return nil, fmt.Errorf("failed to decode recommendation for bucket %s: %w", b.ID, err)
		}
		b.Counts = make(map[string]int)
		index[b.ID] = len(buckets)
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buckets: %w", err)
	}

	countRows, err := getCounts.QueryContext(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query response counts: %w", err)
	}
	defer countRows.Close()

	for countRows.Next() {
		var (
			bucketID, category string
			count              int
		)
		if err := countRows.Scan(&bucketID, &category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan response count: %w", err)
		}
		i, ok := index[bucketID]
		if !ok {
			return nil, fmt.Errorf("response count references unknown bucket %s", bucketID)
		}
		buckets[i].Counts[category] = count
	}
	if err := countRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate response counts: %w", err)
	}

	return buckets, nil
}

// CountSurveys returns how many surveys are stored
func (r *Repository) CountSurveys(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM survey_content`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count surveys: %w", err)
	}
	return n, nil
}
