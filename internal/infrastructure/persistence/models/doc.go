// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - group.go: groups, cycles and members
// - ledger.go: ledger entries
// - loan.go: loans and the loan transaction trail
// - socialfund.go: social fund transactions
// - meeting.go: meetings, attendance and action plans
// - shareout.go: shareouts and distributions
package models

// All returns every model in dependency order, for AutoMigrate in tests and
// single-node sqlite deployments. Postgres deployments use the SQL
// migrations instead.
func All() []any {
	return []any{
		&GroupModel{},
		&CycleModel{},
		&MemberModel{},
		&LedgerEntryModel{},
		&LoanModel{},
		&LoanTransactionModel{},
		&SocialFundTransactionModel{},
		&MeetingModel{},
		&MeetingAttendanceModel{},
		&ActionPlanModel{},
		&ShareoutModel{},
		&ShareoutDistributionModel{},
	}
}
