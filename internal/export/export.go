// Package export copies approved survey responses to object storage as
// JSON Lines, one object per survey and day.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"donkeymap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

var ErrNoBucket = errors.New("export bucket is not configured")

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type surveySource interface {
	Approved(ctx context.Context) ([]*types.Survey, error)
}

type responseSource interface {
	BySurveySince(ctx context.Context, surveyID string, since time.Time) ([]*types.SurveyResponse, error)
}

// Record is one exported line.
type Record struct {
	SurveyID    string         `json:"survey_id"`
	SurveyTitle string         `json:"survey_title"`
	ResponseID  string         `json:"response_id"`
	SubmittedBy string         `json:"submitted_by"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Latitude    *float64       `json:"latitude,omitempty"`
	Longitude   *float64       `json:"longitude,omitempty"`
	Accuracy    *float64       `json:"accuracy,omitempty"`
	Answers     map[string]any `json:"answers"`
}

type Summary struct {
	Surveys   int
	Responses int
	Keys      []string
}

type Exporter struct {
	logger    *logrus.Logger
	client    objectPutter
	surveys   surveySource
	responses responseSource
	bucket    string
	prefix    string
}

func New(logger *logrus.Logger, client objectPutter, surveys surveySource, responses responseSource, bucket, prefix string) (*Exporter, error) {
	if bucket == "" {
		return nil, ErrNoBucket
	}

	return &Exporter{
		logger:    logger,
		client:    client,
		surveys:   surveys,
		responses: responses,
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
	}, nil
}

// ObjectKey names the object holding a survey's responses exported on day.
func ObjectKey(prefix string, day time.Time, surveyID string) string {
	return path.Join(prefix, day.UTC().Format(time.DateOnly), surveyID+".jsonl")
}

func encodeRecords(sv *types.Survey, responses []*types.SurveyResponse) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, r := range responses {
		err := enc.Encode(Record{
			SurveyID:    sv.ID,
			SurveyTitle: sv.Title,
			ResponseID:  r.ID,
			SubmittedBy: r.SubmittedBy,
			SubmittedAt: r.SubmittedAt,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Accuracy:    r.Accuracy,
			Answers:     r.Responses,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode response %s: %w", r.ID, err)
		}
	}

	return buf.Bytes(), nil
}

// Export writes the responses submitted after since for every approved
// survey. Surveys without new responses are skipped.
func (e *Exporter) Export(ctx context.Context, since, now time.Time) (*Summary, error) {
	surveys, err := e.surveys.Approved(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved surveys: %w", err)
	}

	summary := &Summary{}
	for _, sv := range surveys {
		responses, err := e.responses.BySurveySince(ctx, sv.ID, since)
		if err != nil {
			return summary, fmt.Errorf("failed to list responses for survey %s: %w", sv.ID, err)
		}
		if len(responses) == 0 {
			continue
		}

		body, err := encodeRecords(sv, responses)
		if err != nil {
			return summary, err
		}

		key := ObjectKey(e.prefix, now, sv.ID)
		_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/x-ndjson"),
		})
		if err != nil {
			return summary, fmt.Errorf("failed to upload %s: %w", key, err)
		}

		e.logger.WithFields(logrus.Fields{
			"survey_id": sv.ID,
			"responses": len(responses),
			"key":       key,
		}).Info("exported survey responses")

		summary.Surveys++
		summary.Responses += len(responses)
		summary.Keys = append(summary.Keys, key)
	}

	return summary, nil
}
