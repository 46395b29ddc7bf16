package billing

// Line is one requested {product, quantity} pair.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderSource says where a checkout takes its lines from: an explicit list sent by the
// caller or the caller's cart.
type OrderSource struct {
	fromCart bool
	lines    []Line
}

func ExplicitItems(lines []Line) OrderSource {
	return OrderSource{lines: lines}
}

func FromCart() OrderSource {
	return OrderSource{fromCart: true}
}

// SourceFor picks the explicit list when it has lines and the cart otherwise.
func SourceFor(lines []Line) OrderSource {
	if len(lines) > 0 {
		return ExplicitItems(lines)
	}
	return FromCart()
}

func (o OrderSource) IsCart() bool { return o.fromCart }

func (o OrderSource) Lines() []Line { return o.lines }
