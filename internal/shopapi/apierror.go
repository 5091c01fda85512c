package shopapi

import (
	"fmt"
	"strings"

	"github.com/go-faster/jx"
)

// APIError is a non-OK response from the shop API with its message already
// normalized for inline display.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shop api: %d: %s", e.StatusCode, e.Message)
}

// normalizeErrorBody flattens an upstream error body of unknown shape into a
// single display message:
//
//   - a "detail" string field wins outright;
//   - other objects join their entries as "key: value" with " | ";
//   - bare strings pass through, arrays join with ", ";
//   - anything unreadable falls back to the generic message.
func normalizeErrorBody(data []byte, fallback string) string {
	if len(data) == 0 {
		return fallback
	}

	d := jx.DecodeBytes(data)
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil || s == "" {
			return fallback
		}
		return s

	case jx.Array:
		s, err := renderArray(d)
		if err != nil || s == "" {
			return fallback
		}
		return s

	case jx.Object:
		detail := ""
		var parts []string
		err := d.Obj(func(d *jx.Decoder, key string) error {
			if key == "detail" && d.Next() == jx.String {
				s, err := d.Str()
				if err != nil {
					return err
				}
				detail = s
				return nil
			}
			val, err := renderValue(d)
			if err != nil {
				return err
			}
			parts = append(parts, key+": "+val)
			return nil
		})
		if err != nil {
			return fallback
		}
		if detail != "" {
			return detail
		}
		if len(parts) == 0 {
			return fallback
		}
		return strings.Join(parts, " | ")

	default:
		return fallback
	}
}

// renderValue renders one JSON value for the "key: value" form.
func renderValue(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Array:
		return renderArray(d)
	default:
		raw, err := d.Raw()
		if err != nil {
			return "", err
		}
		return raw.String(), nil
	}
}

// renderArray joins array elements with ", ". DRF returns field errors as
// arrays of strings, so this is the common case.
func renderArray(d *jx.Decoder) (string, error) {
	var elems []string
	err := d.Arr(func(d *jx.Decoder) error {
		v, err := renderValue(d)
		if err != nil {
			return err
		}
		elems = append(elems, v)
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(elems, ", "), nil
}
