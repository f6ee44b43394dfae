package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotGuardValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "version"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  `^(gym|oval)\|[0-9]{4}-[0-9]{2}-[0-9]{2}$`,
			},
			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},
			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
