package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

func decodeDocument(t *testing.T, doc bson.M) collectionDocument {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var out collectionDocument
	require.NoError(t, bson.Unmarshal(raw, &out))
	return out
}

func TestCollectionDocumentTimestampEncodings(t *testing.T) {
	at := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)
	id := primitive.NewObjectID()

	tests := []struct {
		name   string
		doc    bson.M
		want   time.Time
		wantOK bool
	}{
		{
			name:   "server date",
			doc:    bson.M{"_id": id, "timestamp": primitive.NewDateTimeFromTime(at)},
			want:   at,
			wantOK: true,
		},
		{
			name:   "iso string",
			doc:    bson.M{"_id": id, "timestamp": at.Format(time.RFC3339Nano)},
			want:   at,
			wantOK: true,
		},
		{
			name:   "bson timestamp",
			doc:    bson.M{"_id": id, "timestamp": primitive.Timestamp{T: uint32(at.Unix())}},
			want:   at,
			wantOK: true,
		},
		{
			name:   "pending server timestamp falls back to createdAt",
			doc:    bson.M{"_id": id, "timestamp": nil, "createdAt": at.Format(time.RFC3339Nano)},
			want:   at,
			wantOK: true,
		},
		{
			name:   "nothing resolvable",
			doc:    bson.M{"_id": id},
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, ok := decodeDocument(t, tc.doc).toRecord()
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, id.Hex(), rec.ID)
			if tc.wantOK {
				require.True(t, tc.want.Equal(rec.Timestamp), "got %s", rec.Timestamp)
			} else {
				require.False(t, rec.HasTimestamp())
			}
		})
	}
}

func TestCollectionDocumentOptionalFields(t *testing.T) {
	rec, _ := decodeDocument(t, bson.M{
		"_id":         "legacy-1",
		"farmerId":    "F1",
		"farmerName":  "Amina",
		"quantity":    int32(12),
		"fatContent":  4.4,
		"phValue":     nil,
		"temperature": 3.9,
		"deviceId":    "DEV001",
	}).toRecord()

	require.Equal(t, "legacy-1", rec.ID)
	require.Equal(t, 12.0, rec.Quantity)
	require.Nil(t, rec.PHValue)
	require.NotNil(t, rec.Temperature)
	require.Equal(t, 3.9, *rec.Temperature)
	require.Equal(t, models.StatusVerified, rec.Status)
}

func TestRecentSortBreaksTiesOnCreatedAt(t *testing.T) {
	sort := recentSort()
	require.Len(t, sort, 2)
	require.Equal(t, bson.E{Key: "timestamp", Value: -1}, sort[0])
	require.Equal(t, bson.E{Key: "createdAt", Value: -1}, sort[1])
}
