package contentstream

// Operation is a content stream operator with its operands.
type Operation struct {
	Operator string
	Operands []Operand
}

// Operand is a type-safe operand value.
type Operand interface {
	operand()
	Type() string
}

type NumberOperand struct{ Value float64 }

func (NumberOperand) operand()     {}
func (NumberOperand) Type() string { return "number" }

type NameOperand struct{ Value string }

func (NameOperand) operand()     {}
func (NameOperand) Type() string { return "name" }

type StringOperand struct{ Value []byte }

func (StringOperand) operand()     {}
func (StringOperand) Type() string { return "string" }

type ArrayOperand struct{ Values []Operand }

func (ArrayOperand) operand()     {}
func (ArrayOperand) Type() string { return "array" }

type DictOperand struct{ Values map[string]Operand }

func (DictOperand) operand()     {}
func (DictOperand) Type() string { return "dict" }

type BoolOperand struct{ Value bool }

func (BoolOperand) operand()     {}
func (BoolOperand) Type() string { return "bool" }

type NullOperand struct{}

func (NullOperand) operand()     {}
func (NullOperand) Type() string { return "null" }

// InlineImageOperand carries the BI dictionary and the raw payload.
type InlineImageOperand struct {
	Image DictOperand
	Data  []byte
}

func (InlineImageOperand) operand()     {}
func (InlineImageOperand) Type() string { return "inline_image" }

func operandToFloat(op Operand) float64 {
	if n, ok := op.(NumberOperand); ok {
		return n.Value
	}
	return 0
}

func operandsToFloats(ops []Operand) []float64 {
	out := make([]float64, len(ops))
	for i, op := range ops {
		out[i] = operandToFloat(op)
	}
	return out
}
