package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Case() CaseRepository
	Record() RecordRepository
	AIExchange() AIExchangeRepository
	Staff() StaffRepository

	Close() error
}
