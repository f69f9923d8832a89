package events

const (
	EventsExchange = "ecommerce.events"

	OrderQuotedRoutingKey   = "storefront.order.quoted.v1"
	OrderCapturedRoutingKey = "storefront.order.captured.v1"

	EventTypeOrderQuoted   = "OrderQuoted"
	EventTypeOrderCaptured = "OrderCaptured"

	defaultProducer = "storefront-api"
)

func declareEventsExchange(ch Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
