/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package model

import "fmt"

// PropertyType is a declared property's data type. UNKNOWN is the zero
// value and is never accepted by a manager on create or update.
type PropertyType int

const (
	// Unknown is the sentinel PropertyType; never storable.
	Unknown PropertyType = iota
	// Int is a 64-bit signed integer property.
	Int
	// Double is a 64-bit floating point property.
	Double
	// String is a string property.
	String
)

// String implements fmt.Stringer.
func (t PropertyType) String() string {
	switch t {
	case Int:
		return "INT"
	case Double:
		return "DOUBLE"
	case String:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// PropertyValue is a discriminated union over the three storable property
// data types. Exactly one of the typed fields is meaningful, selected by
// Type.
type PropertyValue struct {
	Type        PropertyType
	IntValue    int64
	DoubleValue float64
	StringValue string
}

// IntProp builds an Int-kind PropertyValue.
func IntProp(v int64) PropertyValue { return PropertyValue{Type: Int, IntValue: v} }

// DoubleProp builds a Double-kind PropertyValue.
func DoubleProp(v float64) PropertyValue { return PropertyValue{Type: Double, DoubleValue: v} }

// StringProp builds a String-kind PropertyValue.
func StringProp(v string) PropertyValue { return PropertyValue{Type: String, StringValue: v} }

// Equal reports whether two property values have the same kind and value.
func (v PropertyValue) Equal(other PropertyValue) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case Int:
		return v.IntValue == other.IntValue
	case Double:
		return v.DoubleValue == other.DoubleValue
	case String:
		return v.StringValue == other.StringValue
	default:
		return false
	}
}

// String renders the value for logging; not used for persistence.
func (v PropertyValue) String() string {
	switch v.Type {
	case Int:
		return fmt.Sprintf("%d", v.IntValue)
	case Double:
		return fmt.Sprintf("%v", v.DoubleValue)
	case String:
		return v.StringValue
	default:
		return "<unknown>"
	}
}

// PropertyBag is a mapping from property name to value. Key order carries
// no semantic meaning.
type PropertyBag map[string]PropertyValue

// Clone returns a shallow copy of the bag.
func (b PropertyBag) Clone() PropertyBag {
	out := make(PropertyBag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
