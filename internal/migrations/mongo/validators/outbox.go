package validators

import "go.mongodb.org/mongo-driver/bson"

var OutboxValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"aggregate_id",
			"event_type",
			"payload",
			"created_at",
			"attempts",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"aggregate_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"event_type": bson.M{
				"enum": []string{
					"reservation.approve",
					"reservation.reject",
					"reservation.reschedule",
					"reservation.cancel",
				},
			},

			"payload": bson.M{
				"bsonType": "object",
				"required": []string{"event_id", "requester_id", "booking_id", "action", "title", "body", "category"},
				"properties": bson.M{
					"category": bson.M{
						"enum": []string{"success", "error", "info", "warning"},
					},
				},
			},

			"attempts": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"published_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
