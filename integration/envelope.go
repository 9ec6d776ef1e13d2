package integration

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
)

const (
	CodeMalformedEnvelope = "MALFORMED_ENVELOPE"
	CodeNameMismatch      = "ENVELOPE_NAME_MISMATCH"
)

// Envelope is the wire form of an event.
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventName  string          `json:"event_name"`
	OccurredOn time.Time       `json:"occurred_on"`
	Payload    json.RawMessage `json:"payload"`
}

// Seal checks e and wraps its JSON payload into an envelope.
func Seal(e Event) (Envelope, error) {
	if err := CheckSerializable(e); err != nil {
		return Envelope{}, err
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, errx.Wrap(err, errx.WithCode(CodeNotSerializable))
	}

	return Envelope{
		EventID:    e.EventID(),
		EventName:  NameOf(e),
		OccurredOn: e.OccurredOn(),
		Payload:    payload,
	}, nil
}

// Marshal encodes e into envelope bytes ready for a Publisher.
func Marshal(e Event) ([]byte, error) {
	env, err := Seal(e)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(env)
	return raw, errx.Wrap(err)
}

// Open decodes envelope bytes. An envelope without id or name is rejected.
func Open(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, errx.Wrap(err, errx.WithCode(CodeMalformedEnvelope), errx.WithType(errx.T_Validation))
	}
	if env.EventID == uuid.Nil || env.EventName == "" {
		return Envelope{}, errx.New("[integration]: envelope has no event id or name",
			errx.WithCode(CodeMalformedEnvelope),
			errx.WithType(errx.T_Validation),
		)
	}
	return env, nil
}

// Decode restores the event carried by env, including its id and time.
func Decode[E Event](env Envelope) (E, error) {
	var e E
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		return e, errx.Wrap(err,
			errx.WithCode(CodeMalformedEnvelope),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"event_name": env.EventName, "event_id": env.EventID.String()}),
		)
	}
	target := any(&e)
	if v := reflect.ValueOf(e); v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return e, errx.New("[integration]: envelope payload is null",
				errx.WithCode(CodeMalformedEnvelope),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{"event_name": env.EventName, "event_id": env.EventID.String()}),
			)
		}
		target = e
	}
	if r, ok := target.(restorer); ok {
		r.restore(env.EventID, env.OccurredOn)
	}
	return e, nil
}
