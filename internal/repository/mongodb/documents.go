package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// collectionDocument mirrors what ingestion writes. The timestamp is kept raw
// because older documents store it as a string and newer ones as a date.
type collectionDocument struct {
	ID            bson.RawValue `bson:"_id"`
	Timestamp     bson.RawValue `bson:"timestamp"`
	CreatedAt     string        `bson:"createdAt"`
	FarmerID      string        `bson:"farmerId"`
	FarmerName    string        `bson:"farmerName"`
	FingerprintID *string       `bson:"fingerprintId"`
	Quantity      float64       `bson:"quantity"`
	FatContent    float64       `bson:"fatContent"`
	PHValue       *float64      `bson:"phValue"`
	Temperature   *float64      `bson:"temperature"`
	DeviceID      string        `bson:"deviceId"`
	Status        string        `bson:"status"`
}

// toRecord normalizes the document. ok is false when no timestamp could be
// resolved; the record is still returned so raw feeds can show it.
func (d collectionDocument) toRecord() (models.CollectionRecord, bool) {
	ts, ok := models.ResolveTimestamp(nativeTime(d.Timestamp), d.CreatedAt)
	status := models.Status(d.Status)
	if status == "" {
		status = models.StatusVerified
	}
	return models.CollectionRecord{
		ID:          idString(d.ID),
		Timestamp:   ts,
		FarmerID:    d.FarmerID,
		FarmerName:  d.FarmerName,
		Quantity:    d.Quantity,
		FatContent:  d.FatContent,
		PHValue:     d.PHValue,
		Temperature: d.Temperature,
		DeviceID:    d.DeviceID,
		Status:      status,
	}, ok
}

func nativeTime(v bson.RawValue) any {
	switch v.Type {
	case bson.TypeString:
		return v.StringValue()
	case bson.TypeDateTime:
		return primitive.DateTime(v.DateTime())
	case bson.TypeTimestamp:
		t, _ := v.Timestamp()
		return time.Unix(int64(t), 0)
	default:
		return nil
	}
}

func idString(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return v.StringValue()
	case 0:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
