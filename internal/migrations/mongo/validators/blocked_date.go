package validators

import "go.mongodb.org/mongo-driver/bson"

// A null facility_type blocks every facility.
var BlockedDateValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"start_date",
			"end_date",
			"event_name",
			"is_active",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"facility_type": bson.M{
				"enum": bson.A{"gym", "oval", nil},
			},

			"start_date": bson.M{
				"bsonType": "string",
				"pattern":  isoDatePattern,
			},

			"end_date": bson.M{
				"bsonType": "string",
				"pattern":  isoDatePattern,
			},

			"event_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"event_type": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
