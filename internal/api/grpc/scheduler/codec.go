package scheduler

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/rtc-alarm/internal/calendar"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// Field names of the Struct messages.
const (
	fieldLabel     = "label"
	fieldOwner     = "owner"
	fieldEpoch     = "epoch"
	fieldAt        = "at"
	fieldUnit      = "unit"
	fieldCount     = "count"
	fieldHandle    = "handle"
	fieldRecurring = "recurring"
	fieldInterval  = "interval"
	fieldArmed     = "armed"
	fieldClock     = "clock"
)

var (
	// errTimeRequired is returned when an add request has neither epoch nor at.
	errTimeRequired = errors.New("either epoch or at is required")
	// errNotInteger is returned when a number field holds a fraction or is out of range.
	errNotInteger = errors.New("value is not an integer")
	// errWrongType is returned when a field has an unexpected kind.
	errWrongType = errors.New("unexpected field type")
)

// encodeNewAlarm converts an add request to its wire form.
func encodeNewAlarm(n NewAlarm) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldLabel: n.Label,
		fieldOwner: n.Owner,
		fieldEpoch: n.Epoch,
	}

	if n.Recurring() {
		fields[fieldUnit] = n.Unit.String()
		fields[fieldCount] = n.Count
	}

	return structpb.NewStruct(fields)
}

// decodeNewAlarm reads an add request. at takes precedence over epoch.
func decodeNewAlarm(s *structpb.Struct) (NewAlarm, error) {
	var (
		n   NewAlarm
		err error
	)

	if n.Label, err = stringField(s, fieldLabel); err != nil {
		return NewAlarm{}, err
	}

	if n.Owner, err = stringField(s, fieldOwner); err != nil {
		return NewAlarm{}, err
	}

	at, err := stringField(s, fieldAt)
	if err != nil {
		return NewAlarm{}, err
	}

	switch {
	case at != "":
		fields, err := calendar.Parse(at)
		if err != nil {
			return NewAlarm{}, err
		}

		if n.Epoch, err = calendar.ToEpoch(fields); err != nil {
			return NewAlarm{}, err
		}
	case s.GetFields()[fieldEpoch] != nil:
		if n.Epoch, err = intField(s, fieldEpoch); err != nil {
			return NewAlarm{}, err
		}
	default:
		return NewAlarm{}, errTimeRequired
	}

	if n.Count, err = intField(s, fieldCount); err != nil {
		return NewAlarm{}, err
	}

	if n.Count == 0 {
		return n, nil
	}

	unit, err := stringField(s, fieldUnit)
	if err != nil {
		return NewAlarm{}, err
	}

	if n.Unit, err = alarm.ParseTimeUnit(unit); err != nil {
		return NewAlarm{}, err
	}

	return n, nil
}

// encodeAlarm converts a listed alarm to its wire form.
func encodeAlarm(a Alarm) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldHandle:    int64(a.Handle),
		fieldEpoch:     a.Epoch,
		fieldRecurring: a.Recurring,
		fieldInterval:  a.Interval,
		fieldLabel:     a.Label,
		fieldOwner:     a.Owner,
	}

	if at, err := calendar.FromEpoch(a.Epoch); err == nil {
		fields[fieldAt] = at.String()
	}

	return structpb.NewStruct(fields)
}

// decodeAlarm reads a listed alarm.
func decodeAlarm(s *structpb.Struct) (Alarm, error) {
	var (
		a   Alarm
		err error
	)

	handle, err := intField(s, fieldHandle)
	if err != nil {
		return Alarm{}, err
	}

	a.Handle = alarm.Handle(handle)

	if a.Epoch, err = intField(s, fieldEpoch); err != nil {
		return Alarm{}, err
	}

	if a.Interval, err = intField(s, fieldInterval); err != nil {
		return Alarm{}, err
	}

	if a.Label, err = stringField(s, fieldLabel); err != nil {
		return Alarm{}, err
	}

	if a.Owner, err = stringField(s, fieldOwner); err != nil {
		return Alarm{}, err
	}

	a.Recurring = s.GetFields()[fieldRecurring].GetBoolValue()

	return a, nil
}

// encodeNext converts the alarm register state to its wire form.
func encodeNext(n Next) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldEpoch: n.Epoch,
		fieldArmed: n.Armed,
		fieldClock: n.Clock,
	}

	if at, err := calendar.FromEpoch(n.Epoch); err == nil {
		fields[fieldAt] = at.String()
	}

	return structpb.NewStruct(fields)
}

// decodeNext reads the alarm register state.
func decodeNext(s *structpb.Struct) (Next, error) {
	epoch, err := intField(s, fieldEpoch)
	if err != nil {
		return Next{}, err
	}

	clock, err := intField(s, fieldClock)
	if err != nil {
		return Next{}, err
	}

	return Next{
		Epoch: epoch,
		Armed: s.GetFields()[fieldArmed].GetBoolValue(),
		Clock: clock,
	}, nil
}

// stringField returns a string field, or "" when it is absent.
func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", nil
	}

	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", errWrongType, name)
	}

	return str.StringValue, nil
}

// intField returns a whole-number field, or 0 when it is absent.
func intField(s *structpb.Struct, name string) (int64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, nil
	}

	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", errWrongType, name)
	}

	f := num.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%w: %s = %v", errNotInteger, name, f)
	}

	return int64(f), nil
}
