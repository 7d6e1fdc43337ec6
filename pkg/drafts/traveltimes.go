package drafts

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/database"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

const TravelTimesCollectionName = "draft_travel_times"

// TravelTimeRecord is one observed running time for one day type, flattened
// out of a draft so analysis queries do not have to unpack whole drafts.
type TravelTimeRecord struct {
	DraftIdentifier string
	FromTimePoint   string
	ToTimePoint     string
	DayType         schedule.DayType
	Minutes         int
	RecordedAt      time.Time
}

// SaveTravelTimes fans the draft's edges out into per day type records and
// bulk upserts them through a batch queue. Unobserved day values are skipped.
// Blocks until the queue drains.
func SaveTravelTimes(draft *ScheduleDraft) {
	if draft.Data == nil || len(draft.Data.TravelTimes) == 0 {
		return
	}

	queue := NewBatchProcessingQueue(TravelTimesCollectionName, 1*time.Second, 3*time.Second, 2000)
	queue.Process()

	recordedAt := time.Now().UTC()

	var producers conc.WaitGroup
	for _, dayType := range schedule.AllDayTypes() {
		dayType := dayType

		producers.Go(func() {
			for _, edge := range draft.Data.TravelTimes {
				minutes := edge.DayValue(dayType)
				if minutes == 0 {
					continue
				}

				record := TravelTimeRecord{
					DraftIdentifier: draft.PrimaryIdentifier,
					FromTimePoint:   edge.FromTimePoint,
					ToTimePoint:     edge.ToTimePoint,
					DayType:         dayType,
					Minutes:         minutes,
					RecordedAt:      recordedAt,
				}

				filter := bson.M{
					"draftidentifier": record.DraftIdentifier,
					"fromtimepoint":   record.FromTimePoint,
					"totimepoint":     record.ToTimePoint,
					"daytype":         record.DayType,
				}

				model := mongo.NewReplaceOneModel()
				model.SetFilter(filter)
				model.SetReplacement(record)
				model.SetUpsert(true)

				queue.Add(model)
			}
		})
	}

	producers.Wait()
	queue.Wait()
}

// DeleteTravelTimes removes the flattened records belonging to a draft.
func DeleteTravelTimes(identifier string) error {
	collection := database.GetCollection(TravelTimesCollectionName)

	_, err := collection.DeleteMany(
		context.Background(), bson.M{"draftidentifier": identifier})

	return err
}
