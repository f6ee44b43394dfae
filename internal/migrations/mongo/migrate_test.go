package mongo

import (
	"campusres/pkg/model"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func schemaProperty(t *testing.T, validator bson.M, field string) bson.M {
	t.Helper()
	schema, ok := validator["$jsonSchema"].(bson.M)
	if !ok {
		t.Fatalf("validator has no $jsonSchema")
	}
	props, ok := schema["properties"].(bson.M)
	if !ok {
		t.Fatalf("schema has no properties")
	}
	prop, ok := props[field].(bson.M)
	if !ok {
		t.Fatalf("schema has no property %q", field)
	}
	return prop
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func TestCollections_CoverEveryStore(t *testing.T) {
	collections := Collections()

	for _, name := range []string{BookingsCollection, BlockedDatesCollection, SlotGuardsCollection, OutboxCollection} {
		def, ok := collections[name]
		if !ok {
			t.Errorf("missing collection definition for %s", name)
			continue
		}
		if def.Validator == nil {
			t.Errorf("%s has no validator", name)
		}
		if len(def.Indexes) == 0 {
			t.Errorf("%s has no indexes", name)
		}
	}
}

func TestBookingsIndexes_BookingIDIsUnique(t *testing.T) {
	first := BookingsIndexes[0]
	keys, ok := first.Keys.(bson.D)
	if !ok || len(keys) != 1 || keys[0].Key != "booking_id" {
		t.Fatalf("expected first index on booking_id, got %v", first.Keys)
	}
	if first.Options == nil || first.Options.Unique == nil || !*first.Options.Unique {
		t.Error("booking_id index must be unique")
	}
}

func TestBookingValidator_StatusEnumMatchesLifecycle(t *testing.T) {
	enum, ok := schemaProperty(t, Collections()[BookingsCollection].Validator, "status")["enum"].([]string)
	if !ok {
		t.Fatal("status enum is not a string list")
	}

	statuses := []model.Status{
		model.StatusPending,
		model.StatusConfirmed,
		model.StatusRejected,
		model.StatusRescheduled,
		model.StatusCancelled,
	}
	if len(enum) != len(statuses) {
		t.Errorf("expected %d statuses, got %d", len(statuses), len(enum))
	}
	for _, s := range statuses {
		if !contains(enum, string(s)) {
			t.Errorf("status %q missing from validator", s)
		}
	}
}

func TestBookingValidator_FacilityEnumMatchesModel(t *testing.T) {
	enum, ok := schemaProperty(t, Collections()[BookingsCollection].Validator, "facility_type")["enum"].([]string)
	if !ok {
		t.Fatal("facility_type enum is not a string list")
	}
	for _, f := range model.FacilityTypes() {
		if !contains(enum, string(f)) {
			t.Errorf("facility %q missing from validator", f)
		}
	}
}

func TestOutboxValidator_EventTypesMatchActions(t *testing.T) {
	enum, ok := schemaProperty(t, Collections()[OutboxCollection].Validator, "event_type")["enum"].([]string)
	if !ok {
		t.Fatal("event_type enum is not a string list")
	}
	for _, a := range []model.Action{model.ActionApprove, model.ActionReject, model.ActionReschedule, model.ActionCancel} {
		if !contains(enum, model.EventType(a)) {
			t.Errorf("event type %q missing from validator", model.EventType(a))
		}
	}
}

func TestOutboxIndexes_ExpireOnlyPublishedRows(t *testing.T) {
	var found bool
	for _, idx := range OutboxIndexes {
		if idx.Options == nil || idx.Options.ExpireAfterSeconds == nil {
			continue
		}
		found = true
		if *idx.Options.ExpireAfterSeconds != publishedOutboxTTLSeconds {
			t.Errorf("unexpected TTL %d", *idx.Options.ExpireAfterSeconds)
		}
		if idx.Options.PartialFilterExpression == nil {
			t.Error("TTL index must be partial so pending rows never expire")
		}
	}
	if !found {
		t.Error("expected a TTL index on published_at")
	}
}
