package outbox

const activityLoggedSchema = `{
  "type": "object",
  "title": "ActivityLogged",
  "properties": {
    "activity_id": {"type": "string"},
    "user_id": {"type": "string"},
    "activity_type": {"type": "string", "enum": ["meditation", "journal", "frequency_meditation"]},
    "frequency": {"type": "integer"},
    "activity_date": {"type": "string", "format": "date"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "user_id", "activity_type", "activity_date", "occurred_at"],
  "additionalProperties": false
}`

const journalSavedSchema = `{
  "type": "object",
  "title": "JournalSaved",
  "properties": {
    "entry_id": {"type": "string"},
    "user_id": {"type": "string"},
    "mood": {"type": "integer", "minimum": 1, "maximum": 5},
    "sleep_quality": {"type": "integer", "minimum": 1, "maximum": 5},
    "activity_date": {"type": "string", "format": "date"},
    "created": {"type": "boolean"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["entry_id", "user_id", "mood", "sleep_quality", "activity_date", "created", "occurred_at"],
  "additionalProperties": false
}`
