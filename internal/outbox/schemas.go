package outbox

const activityAddedSchema = `{
  "type": "object",
  "title": "ActivityAdded",
  "properties": {
    "event_id": {"type": "string"},
    "activity_id": {"type": "integer"},
    "destination_id": {"type": "integer"},
    "owner_id": {"type": "string"},
    "title": {"type": "string"},
    "position": {"type": "integer", "minimum": 0},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "activity_id", "destination_id", "owner_id", "title", "position", "occurred_at"],
  "additionalProperties": false
}`

const activityUpdatedSchema = `{
  "type": "object",
  "title": "ActivityUpdated",
  "properties": {
    "event_id": {"type": "string"},
    "activity_id": {"type": "integer"},
    "destination_id": {"type": "integer"},
    "owner_id": {"type": "string"},
    "field": {"type": "string", "enum": ["title", "free_text", "web_link"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "activity_id", "destination_id", "owner_id", "field", "occurred_at"],
  "additionalProperties": false
}`

const activitiesReorderedSchema = `{
  "type": "object",
  "title": "ActivitiesReordered",
  "properties": {
    "event_id": {"type": "string"},
    "destination_id": {"type": "integer"},
    "owner_id": {"type": "string"},
    "order": {"type": "array", "items": {"type": "integer"}},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "destination_id", "owner_id", "order", "occurred_at"],
  "additionalProperties": false
}`

const activityDeletedSchema = `{
  "type": "object",
  "title": "ActivityDeleted",
  "properties": {
    "event_id": {"type": "string"},
    "activity_id": {"type": "integer"},
    "destination_id": {"type": "integer"},
    "owner_id": {"type": "string"},
    "position": {"type": "integer", "minimum": 0},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "activity_id", "destination_id", "owner_id", "position", "occurred_at"],
  "additionalProperties": false
}`
