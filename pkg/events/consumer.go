package events

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/kr/pretty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/drafts"
)

type BatchConsumer struct {
}

func NewBatchConsumer() *BatchConsumer {
	return &BatchConsumer{}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	payloads := batch.Payloads()

	for _, payload := range payloads {
		var event drafts.ChangeEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.Error().Err(err).Msg("Failed to decode change event")
			continue
		}

		log.Info().
			Str("type", string(event.Type)).
			Str("identifier", event.Identifier).
			Str("file", event.FileName).
			Msg("Draft change")

		if zerolog.GlobalLevel() <= zerolog.DebugLevel {
			pretty.Println(event)
		}
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Fatal().Err(err).Msg("Failed to consume event")
		}
	}
}
