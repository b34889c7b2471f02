package location

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Attributes is the persisted attribute store of a model, typically an XML
// element.
type Attributes interface {
	Attr(name, def string) string
	HasAttr(name string) bool
	SetAttr(name, value string)
	DeleteAttr(name string)
}

// attrFloat reads a float attribute, falling back to def when it is missing,
// malformed or not finite.
func attrFloat(a Attributes, name string, def float64) float64 {
	s := strings.TrimSpace(a.Attr(name, ""))
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return def
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// attrInt reads an integer attribute. Fractional values are truncated.
func attrInt(a Attributes, name string, def int) int {
	s := strings.TrimSpace(a.Attr(name, ""))
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && finite(v) {
		return int(v)
	}
	return def
}

func attrLocked(a Attributes) bool {
	return attrInt(a, "Locked", 0) == 1
}

// writeLocked replaces the Locked attribute; unlocked models omit it.
func writeLocked(a Attributes, locked bool) {
	a.DeleteAttr("Locked")
	if locked {
		a.SetAttr("Locked", "1")
	}
}

// replaceAttr deletes and re-adds an attribute so it moves to the end of the
// element, the way models have always been written.
func replaceAttr(a Attributes, name, value string) {
	a.DeleteAttr(name)
	a.SetAttr(name, value)
}

// parseFloatList splits a comma separated list of floats. Blank, malformed
// and non-finite entries read as zero so later entries keep their index; a
// single trailing comma is ignored.
func parseFloatList(s string) []float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	fields := strings.Split(s, ",")
	if strings.TrimSpace(fields[len(fields)-1]) == "" {
		fields = fields[:len(fields)-1]
	}
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil || !finite(v) {
			v = 0
		}
		out = append(out, v)
	}
	return out
}

// toFloat converts a property value to a finite float64.
func toFloat(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(t), 64); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("unsupported property value %v (%T)", v, v)
	}
	if !finite(f) {
		return 0, fmt.Errorf("non-finite property value %v", v)
	}
	return f, nil
}

// toBool converts a property value to bool.
func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	default:
		return false, fmt.Errorf("unsupported property value %v (%T)", v, v)
	}
}
