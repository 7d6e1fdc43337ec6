package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/database"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/drafts"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/elastic_client"
)

const qualityIndexName = "busscheduler-quality-1"

// qualityDocument is the per draft extraction quality summary kept in
// Elasticsearch for fleet wide history queries.
type qualityDocument struct {
	Identifier   string
	FileName     string
	Confidence   int
	IsValid      bool
	ErrorCount   int
	WarningCount int
	TimePoints   int
	Edges        int
	Timestamp    time.Time
}

// IndexDraft queues a quality summary for one draft. No-op when
// Elasticsearch is not connected.
func IndexDraft(draft *drafts.ScheduleDraft) {
	if elastic_client.Client == nil {
		return
	}

	document := buildQualityDocument(draft)

	body, _ := json.Marshal(document)
	elastic_client.IndexRequest(qualityIndexName, bytes.NewReader(body))
}

func buildQualityDocument(draft *drafts.ScheduleDraft) qualityDocument {
	document := qualityDocument{
		Identifier: draft.PrimaryIdentifier,
		FileName:   draft.FileName,
		TimePoints: draft.TimePointCount(),
		Edges:      draft.EdgeCount(),
		Timestamp:  draft.ModificationDateTime,
	}

	if draft.Data != nil && draft.Data.Format != nil {
		document.Confidence = draft.Data.Format.Confidence
	}

	if draft.Validation != nil {
		document.IsValid = draft.Validation.IsValid
		document.ErrorCount = len(draft.Validation.Errors)
		document.WarningCount = len(draft.Validation.Warnings)
	}

	return document
}

// ReindexDrafts rebuilds the quality index from stored drafts, newest first.
// A limit of zero reindexes everything.
func ReindexDrafts(limit int64) error {
	createQualityIndex()

	collection := database.GetCollection(drafts.CollectionName)

	findOptions := options.Find().SetSort(bson.D{{Key: "modificationdatetime", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := collection.Find(context.Background(), bson.M{}, findOptions)
	if err != nil {
		return err
	}
	defer cursor.Close(context.Background())

	indexPool := pool.New().WithMaxGoroutines(50)

	count := 0
	for cursor.Next(context.Background()) {
		var draft drafts.ScheduleDraft
		if err := cursor.Decode(&draft); err != nil {
			log.Error().Err(err).Msg("Failed to decode draft")
			continue
		}

		count += 1
		indexPool.Go(func() {
			IndexDraft(&draft)
		})
	}

	indexPool.Wait()

	log.Info().Int("drafts", count).Msg("Queued quality documents")

	return cursor.Err()
}

func createQualityIndex() {
	mapping := `{
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 1
		},
		"mappings": {
			"properties": {
				"Identifier": {
					"type": "keyword"
				},
				"FileName": {
					"type": "text",
					"fields": {
						"keyword": {
							"type": "keyword",
							"ignore_above": 256
						}
					}
				},
				"Confidence": {
					"type": "integer"
				},
				"IsValid": {
					"type": "boolean"
				},
				"ErrorCount": {
					"type": "integer"
				},
				"WarningCount": {
					"type": "integer"
				},
				"TimePoints": {
					"type": "integer"
				},
				"Edges": {
					"type": "integer"
				},
				"Timestamp": {
					"type": "date"
				}
			}
		}
	}`

	indexReq := esapi.IndicesCreateRequest{
		Index: qualityIndexName,
		Body:  strings.NewReader(mapping),
	}

	resp, err := indexReq.Do(context.Background(), elastic_client.Client)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create index")
	}
	defer resp.Body.Close()

	// 400 here means the index already exists, which reindex runs hit every
	// time after the first.
	if resp.IsError() && resp.StatusCode != 400 {
		responseBytes, _ := io.ReadAll(resp.Body)
		log.Fatal().Str("response", string(responseBytes)).Msg("Failed to create index")
	}
}
