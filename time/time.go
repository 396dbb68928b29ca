// SPDX-License-Identifier: ice License 1.0

package time

import (
	"context"
	"strconv"
	stdlibtime "time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

func Now() *Time {
	now := stdlibtime.Now().UTC()

	return &Time{
		Time: &now,
	}
}

func New(time stdlibtime.Time) *Time {
	utc := time.UTC()

	return &Time{
		Time: &utc,
	}
}

func UnixMilli(millis int64) *Time {
	return New(stdlibtime.UnixMilli(millis))
}

func Unix(seconds int64) *Time {
	return New(stdlibtime.Unix(seconds, 0))
}

func (t *Time) DecodeMsgpack(dec *msgpack.Decoder) error {
	nanoSecs, err := dec.DecodeInt64()
	if err != nil {
		return errors.Wrap(err, "failed to Time.DecodeMsgpack.DecodeInt64")
	}
	t.Time = new(stdlibtime.Time)
	*t.Time = stdlibtime.Unix(0, nanoSecs).UTC()

	return nil
}

func (t *Time) EncodeMsgpack(enc *msgpack.Encoder) error {
	return errors.Wrap(enc.EncodeInt64(t.UTC().UnixNano()), "failed to EncodeInt64")
}

func (t *Time) MarshalJSON(_ context.Context) ([]byte, error) {
	if t.Time == nil || t.UnixNano() == 0 {
		return []byte(nullJSON), nil
	}
	if t.Location() != stdlibtime.UTC {
		*t.Time = t.Time.UTC()
	}

	//nolint:wrapcheck // We're just proxying it.
	return t.Time.MarshalJSON()
}

func (t *Time) UnmarshalJSON(_ context.Context, bytes []byte) error {
	if parsed, err := t.unmarshalInt64(bytes); parsed || err != nil {
		return err
	}

	return t.unmarshalString(bytes)
}

func (t *Time) unmarshalInt64(data []byte) (bool, error) {
	if len(data) == 0 {
		return false, nil
	}
	for _, b := range data {
		if b < '0' || b > '9' {
			return false, nil
		}
	}
	millisOrNanos, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return true, errors.Wrapf(err, "invalid numeric time: %s", data)
	}
	t.Time = new(stdlibtime.Time)
	if len(data) == millisecondDigits {
		*t.Time = stdlibtime.UnixMilli(millisOrNanos).UTC()
	} else {
		*t.Time = stdlibtime.Unix(0, millisOrNanos).UTC()
	}

	return true, nil
}

func (t *Time) unmarshalString(bytes []byte) error {
	data := string(bytes)
	if data == nullJSON || data == `""` || data == "" {
		return nil
	}
	time, err := stdlibtime.Parse(`"`+stdlibtime.RFC3339Nano+`"`, data)
	if err != nil {
		return errors.Wrapf(err, "invalid time format: %v", data)
	}
	t.Time = new(stdlibtime.Time)
	*t.Time = time.UTC()

	return nil
}
