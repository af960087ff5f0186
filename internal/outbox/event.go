package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by this service.
const (
	EventOrderConfirmed       = "orders.order.confirmed.v1"
	EventOrderShipped         = "orders.order.shipped.v1"
	EventOrderDelivered       = "orders.order.delivered.v1"
	EventOrderCancelled       = "orders.order.cancelled.v1"
	EventOrderOverdue         = "orders.order.overdue.v1"
	EventAppointmentScheduled = "schedule.appointment.scheduled.v1"
	EventAppointmentStarted   = "schedule.appointment.started.v1"
	EventAppointmentCompleted = "schedule.appointment.completed.v1"
	EventAppointmentCancelled = "schedule.appointment.cancelled.v1"
	EventAppointmentNoShow    = "schedule.appointment.no_show.v1"
	EventReminderDue          = "schedule.reminder.due.v1"
)
