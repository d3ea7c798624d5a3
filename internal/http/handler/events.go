package handler

import (
	"encoding/json"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"warrantyai/internal/storage"
)

// eventEnvelope accepts S3-style change notifications, either directly or
// wrapped in a queue message whose Body carries the notification JSON.
type eventEnvelope struct {
	Records []eventRecord `json:"Records"`
}

type eventRecord struct {
	Body string    `json:"body"`
	S3   *s3Record `json:"s3"`
}

type s3Record struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key string `json:"key"`
	} `json:"object"`
}

// Events accepts queue-envelope webhooks and feeds them to the ingestion
// workers. Returns 202 once every event is enqueued.
func Events(events chan<- storage.Event) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var envelope eventEnvelope
		if err := json.Unmarshal(c.Body(), &envelope); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		parsed, err := collectEvents(envelope)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if len(parsed) == 0 {
			return writeError(c, fiber.StatusBadRequest, "NO_RECORDS", "no records in envelope")
		}

		// All or nothing: a partially enqueued envelope would make the
		// client's retry re-deliver events already accepted. The capacity
		// check can race with other producers, so the non-blocking send
		// stays as a backstop.
		if len(parsed) > cap(events)-len(events) {
			return writeError(c, fiber.StatusServiceUnavailable, "QUEUE_FULL", "event queue is full")
		}
		for _, ev := range parsed {
			select {
			case events <- ev:
			default:
				return writeError(c, fiber.StatusServiceUnavailable, "QUEUE_FULL", "event queue is full")
			}
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": len(parsed)})
	}
}

func collectEvents(envelope eventEnvelope) ([]storage.Event, error) {
	var out []storage.Event
	for _, rec := range envelope.Records {
		if rec.S3 != nil {
			ev, err := toEvent(*rec.S3)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
			continue
		}
		if rec.Body == "" {
			continue
		}
		// Queue-wrapped: the body is itself a notification envelope.
		var inner eventEnvelope
		if err := json.Unmarshal([]byte(rec.Body), &inner); err != nil {
			return nil, err
		}
		nested, err := collectEvents(inner)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func toEvent(rec s3Record) (storage.Event, error) {
	// Object keys arrive URL-encoded in S3 notifications.
	key, err := url.QueryUnescape(rec.Object.Key)
	if err != nil {
		return storage.Event{}, err
	}
	return storage.Event{Bucket: rec.Bucket.Name, Key: key}, nil
}
