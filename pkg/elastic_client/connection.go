package elastic_client

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/util"
)

var Client *elasticsearch.Client
var bulkIndexer esutil.BulkIndexer

// Connect sets up the shared Elasticsearch client and its bulk indexer.
// Without SCHEDULER_ELASTICSEARCH_ADDRESS the client stays nil and indexing
// becomes a no-op, unless the caller says the connection is required.
func Connect(required bool) error {
	env := util.GetEnvironmentVariables()

	address := env["SCHEDULER_ELASTICSEARCH_ADDRESS"]
	if address == "" {
		if required {
			log.Fatal().Msg("Elasticsearch configuration not set")
		}

		log.Info().Msg("Skipping Elasticsearch setup")
		return nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if env["SCHEDULER_ELASTICSEARCH_INSECURE_TLS"] == "YES" {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	retryBackoff := backoff.NewExponentialBackOff()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{address},
		Username:  env["SCHEDULER_ELASTICSEARCH_USERNAME"],
		Password:  env["SCHEDULER_ELASTICSEARCH_PASSWORD"],
		Transport: transport,

		RetryOnStatus: []int{502, 503, 504, 429},

		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: 5,
	})
	if err != nil {
		return err
	}

	if _, err := es.Info(); err != nil {
		return err
	}

	Client = es

	bulkIndexer, err = esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        es,
		FlushInterval: 15 * time.Second,
	})
	if err != nil {
		return err
	}

	log.Info().Msgf("Elasticsearch client setup for %s", address)

	return nil
}

// IndexRequest queues one document for asynchronous indexing. Failures are
// logged, not returned.
func IndexRequest(indexName string, document io.ReadSeeker) {
	if Client == nil {
		return
	}

	bulkIndexer.Add(
		context.Background(),
		esutil.BulkIndexerItem{
			Index:  indexName,
			Action: "index",
			Body:   document,
			OnFailure: func(_ context.Context, _ esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					log.Error().Err(err).Str("index", indexName).Msg("Failed to index document")
					return
				}

				log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Failed to index document")
			},
		},
	)
}

// WaitUntilQueueEmpty flushes the bulk indexer and blocks until every queued
// document has been pushed.
func WaitUntilQueueEmpty() {
	if bulkIndexer == nil {
		return
	}

	bulkIndexer.Close(context.Background())
}
