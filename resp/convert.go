package resp

// Convertible is anything that can render itself as a protocol value.
// Conversion cannot fail; types whose rendering could fail should resolve
// the failure before constructing the batch.
type Convertible interface {
	ToValue() Value
}

// ToValue returns v itself, making Value usable wherever a Convertible is
// expected.
func (v Value) ToValue() Value {
	return v
}
