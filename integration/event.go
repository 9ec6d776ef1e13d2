// Package integration defines the asynchronous messaging seam between services.
//
// An Event is an immutable fact produced by a command handler after a successful state
// change. It is sealed into a JSON Envelope, handed to a Publisher, and delivered at least
// once to the Handlers subscribed on a Router in another process.
package integration

import (
	"reflect"
	"sync/atomic"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
)

const CodeNotSerializable = "EVENT_NOT_SERIALIZABLE"

// Event is implemented by every integration event, usually by embedding Base.
type Event interface {
	EventID() uuid.UUID
	OccurredOn() time.Time
}

// Namer overrides the default event name, which is the event's Go type name.
// Implement it on the value receiver to keep the wire name stable across renames.
type Namer interface {
	EventName() string
}

// Base carries the identity of an event. It is not part of the serialized payload;
// the envelope transports it.
type Base struct {
	id       uuid.UUID
	occurred time.Time
}

// NewBase returns a Base with a fresh id and the current UTC time. Bases created in
// sequence within one process never go back in time.
func NewBase() Base {
	return Base{id: uuid.Must(uuid.NewV7()), occurred: occurredNow()}
}

func (b Base) EventID() uuid.UUID     { return b.id }
func (b Base) OccurredOn() time.Time { return b.occurred }

func (b *Base) restore(id uuid.UUID, at time.Time) {
	b.id = id
	b.occurred = at
}

type restorer interface {
	restore(id uuid.UUID, at time.Time)
}

var lastOccurred atomic.Int64

func occurredNow() time.Time {
	for {
		now := time.Now().UTC().UnixNano()
		last := lastOccurred.Load()
		if now < last {
			now = last
		}
		if lastOccurred.CompareAndSwap(last, now) {
			return time.Unix(0, now).UTC()
		}
	}
}

// NameOf returns the routing name of e.
func NameOf(e Event) string {
	if n, ok := e.(Namer); ok {
		if name := n.EventName(); name != "" {
			return name
		}
	}
	t := reflect.TypeOf(e)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// NameFor returns the routing name of event type E without an instance.
func NameFor[E Event]() string {
	t := reflect.TypeFor[E]()
	if t.Kind() == reflect.Pointer {
		e, _ := reflect.New(t.Elem()).Interface().(E)
		return NameOf(e)
	}
	var zero E
	return NameOf(zero)
}

var (
	typeTime = reflect.TypeFor[time.Time]()
	typeUUID = reflect.TypeFor[uuid.UUID]()
	typeBase = reflect.TypeFor[Base]()
)

// CheckSerializable reports an error when e carries anything other than primitives,
// times, uuids and slices, arrays, string-keyed maps or value structs of those.
// Pointers, interfaces, funcs and channels are rejected: each is a reference into the
// producing process.
func CheckSerializable(e Event) error {
	t := reflect.TypeOf(e)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if path, kind, ok := firstUnsupported(t, t.Name(), map[reflect.Type]bool{}); !ok {
		return errx.New("[integration]: event carries a field that cannot cross a service boundary",
			errx.WithCode(CodeNotSerializable),
			errx.WithDetails(errx.D{
				"event": NameOf(e),
				"field": path,
				"kind":  kind,
			}),
		)
	}
	return nil
}

func firstUnsupported(t reflect.Type, path string, seen map[reflect.Type]bool) (string, string, bool) {
	if t == typeTime || t == typeUUID {
		return "", "", true
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "", "", true
	case reflect.Slice, reflect.Array:
		return firstUnsupported(t.Elem(), path+"[]", seen)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return path, "map key " + t.Key().Kind().String(), false
		}
		return firstUnsupported(t.Elem(), path+"{}", seen)
	case reflect.Struct:
		if seen[t] {
			return "", "", true
		}
		seen[t] = true
		for i := range t.NumField() {
			f := t.Field(i)
			if f.Type == typeBase || !f.IsExported() {
				continue
			}
			if p, k, ok := firstUnsupported(f.Type, path+"."+f.Name, seen); !ok {
				return p, k, false
			}
		}
		return "", "", true
	default:
		return path, t.Kind().String(), false
	}
}
