package shared

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// EventCollector gathers events from several aggregates touched in one unit
// of work so they can be published after the commit.
type EventCollector struct {
	events []DomainEvent
}

// Collect drains the pending events of the given aggregates
func (c *EventCollector) Collect(aggregates ...AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		c.events = append(c.events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
}

// Add appends events directly
func (c *EventCollector) Add(events ...DomainEvent) {
	c.events = append(c.events, events...)
}

// Events returns the collected events
func (c *EventCollector) Events() []DomainEvent {
	return c.events
}

// Reset discards collected events, used when a unit of work rolls back
func (c *EventCollector) Reset() {
	c.events = nil
}
