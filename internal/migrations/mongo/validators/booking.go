package validators

import "go.mongodb.org/mongo-driver/bson"

var clockTimePattern = `^([01][0-9]|2[0-3]):[0-5][0-9]$`

var isoDatePattern = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"facility_type",
			"requester_id",
			"requester_class",
			"date",
			"start_time",
			"end_time",
			"status",
			"version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 64,
			},

			"facility_type": bson.M{
				"enum": []string{"gym", "oval"},
			},

			"requester_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"requester_class": bson.M{
				"enum": []string{"student", "faculty", "staff", "external"},
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  isoDatePattern,
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  clockTimePattern,
			},

			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  clockTimePattern,
			},

			"status": bson.M{
				"enum": []string{"pending", "confirmed", "rejected", "rescheduled", "cancelled"},
			},

			"purpose": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"attendees": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"receipt_number": bson.M{
				"bsonType": "string",
				"pattern":  `^[0-9]{7}$`,
			},

			"metadata": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"schema_version": bson.M{
						"bsonType": []string{"int", "long"},
						"minimum":  1,
					},
					"previous_slots": bson.M{
						"bsonType": "array",
						"items": bson.M{
							"bsonType": "object",
							"required": []string{"date", "start_time", "end_time", "moved_at"},
						},
					},
				},
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
