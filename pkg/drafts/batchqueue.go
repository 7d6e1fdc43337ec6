package drafts

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/database"
)

func NewBatchProcessingQueue(collection string, batchTimeout time.Duration, emptyTimeout time.Duration, batchSize int) BatchProcessingQueue {
	return BatchProcessingQueue{
		Collection:        collection,
		BatchTimeout:      batchTimeout,
		EmptyTimeout:      emptyTimeout,
		items:             make(chan mongo.WriteModel, batchSize),
		lastItemProcessed: time.Now(),

		itemsWriteLock: sync.RWMutex{},
	}
}

// BatchProcessingQueue coalesces write models into periodic bulk writes
// against one collection. Producers call Add, the ticker goroutine flushes.
type BatchProcessingQueue struct {
	Collection   string
	BatchTimeout time.Duration
	EmptyTimeout time.Duration

	items             chan (mongo.WriteModel)
	itemsWriteLock    sync.RWMutex
	lastItemProcessed time.Time
	ticker            *time.Ticker
}

// Add blocks while a flush is draining the channel.
func (b *BatchProcessingQueue) Add(item mongo.WriteModel) {
	b.itemsWriteLock.RLock()
	b.itemsWriteLock.RUnlock()

	b.items <- item
}

func (b *BatchProcessingQueue) Process() {
	go func(b *BatchProcessingQueue) {
		collection := database.GetCollection(b.Collection)

		b.ticker = time.NewTicker(b.BatchTimeout)

		for range b.ticker.C {
			batchItems := []mongo.WriteModel{}

			b.itemsWriteLock.Lock()
			running := true

			for running {
				select {
				case item := <-b.items:
					batchItems = append(batchItems, item)
				default: // Stop when no more values buffered
					running = false
				}
			}

			if len(batchItems) > 0 {
				b.lastItemProcessed = time.Now()
				log.Info().Str("collection", b.Collection).Int("Length", len(batchItems)).Msg("Bulk write")
				_, err := collection.BulkWrite(context.Background(), batchItems, &options.BulkWriteOptions{})
				if err != nil {
					log.Error().Str("collection", b.Collection).Err(err).Msg("Failed to bulk write")
				}
			}

			runtime.GC()
			b.itemsWriteLock.Unlock()
		}
	}(b)
}

// Wait returns once no item has been flushed for EmptyTimeout, then stops
// the ticker.
func (b *BatchProcessingQueue) Wait() {
	for {
		if time.Since(b.lastItemProcessed) > b.EmptyTimeout {
			log.Info().Str("collection", b.Collection).Msg("Nothing left to process in queue")
			b.ticker.Stop()
			return
		}

		time.Sleep(1 * time.Second)
	}
}
