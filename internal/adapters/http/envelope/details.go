package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Details - диагностические данные ошибки (error.details).
//
// Значения ограничены DetailValue: строка, целое, дробное, bool или
// вложенный Details. Так payload всегда сериализуем и не протаскивает
// произвольные структуры наружу.
type Details map[string]DetailValue

type valueKind uint8

const (
	kindString valueKind = iota + 1
	kindInt
	kindFloat
	kindBool
	kindMap
)

// DetailValue - одно значение внутри Details.
type DetailValue struct {
	kind valueKind
	s    string
	i    int64
	f    float64
	b    bool
	m    Details
}

// String создаёт строковое значение.
func String(s string) DetailValue { return DetailValue{kind: kindString, s: s} }

// Int создаёт целое значение.
func Int(i int64) DetailValue { return DetailValue{kind: kindInt, i: i} }

// Float создаёт дробное значение.
//
// NaN и ±Inf не представимы в JSON, поэтому хранятся строкой
// ("NaN", "+Inf", "-Inf"): envelope всегда сериализуется.
// Целые значения (2.0) уходят в JSON как 2 и после разбора читаются
// как Int; Float64() возвращает их в обоих случаях.
func Float(f float64) DetailValue {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return String(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return DetailValue{kind: kindFloat, f: f}
}

// Bool создаёт логическое значение.
func Bool(b bool) DetailValue { return DetailValue{kind: kindBool, b: b} }

// Map создаёт вложенный набор значений.
func Map(m Details) DetailValue { return DetailValue{kind: kindMap, m: m} }

// Str возвращает строку, если значение строковое.
func (v DetailValue) Str() (string, bool) { return v.s, v.kind == kindString }

// Int64 возвращает целое, если значение целое.
func (v DetailValue) Int64() (int64, bool) { return v.i, v.kind == kindInt }

// Float64 возвращает число (целые тоже приводятся).
func (v DetailValue) Float64() (float64, bool) {
	switch v.kind {
	case kindFloat:
		return v.f, true
	case kindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Boolean возвращает bool, если значение логическое.
func (v DetailValue) Boolean() (bool, bool) { return v.b, v.kind == kindBool }

// Nested возвращает вложенный Details.
func (v DetailValue) Nested() (Details, bool) { return v.m, v.kind == kindMap }

// MarshalJSON сериализует значение как обычный JSON скаляр или объект.
func (v DetailValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.s)
	case kindInt:
		return json.Marshal(v.i)
	case kindFloat:
		return json.Marshal(v.f)
	case kindBool:
		return json.Marshal(v.b)
	case kindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	}
	return []byte("null"), nil
}

// UnmarshalJSON разбирает скаляр или объект. Массивы и null не входят
// в допустимый набор значений.
func (v *DetailValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("envelope: empty detail value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{':
		var m Details
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*v = Map(m)
	case 'n', '[':
		return fmt.Errorf("envelope: unsupported detail value %s", string(data))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if i, err := n.Int64(); err == nil {
			*v = Int(i)
			return nil
		}
		f, err := n.Float64()
		if err != nil {
			return err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("envelope: detail number out of range")
		}
		*v = Float(f)
	}
	return nil
}
