package enums

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventTenantCreated         OutboxEventType = "tenant.created"
	EventStockSynced           OutboxEventType = "stock.synced"
	EventOrderCreated          OutboxEventType = "order.created"
	EventOrderStatusChanged    OutboxEventType = "order.status_changed"
	EventSensorReadingRecorded OutboxEventType = "sensor.reading_recorded"
	EventRetreadRecorded       OutboxEventType = "retread.recorded"
)

// String implements fmt.Stringer.
func (e OutboxEventType) String() string {
	return string(e)
}

// OutboxAggregateType names the aggregate a domain event belongs to.
type OutboxAggregateType string

const (
	AggregateTenant  OutboxAggregateType = "tenant"
	AggregateTire    OutboxAggregateType = "tire"
	AggregateOrder   OutboxAggregateType = "order"
	AggregateSensor  OutboxAggregateType = "sensor"
	AggregateRetread OutboxAggregateType = "retread"
)

// String implements fmt.Stringer.
func (a OutboxAggregateType) String() string {
	return string(a)
}
