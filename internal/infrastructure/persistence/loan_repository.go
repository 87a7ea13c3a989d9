package persistence

import (
	"context"

	"github.com/farmsupport/vsla/internal/domain/loan"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLoanRepository implements loan.LoanRepository using GORM
type GormLoanRepository struct {
	db *gorm.DB
}

// NewGormLoanRepository creates a new GormLoanRepository
func NewGormLoanRepository(db *gorm.DB) *GormLoanRepository {
	return &GormLoanRepository{db: db}
}

// Create inserts a new loan
func (r *GormLoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	return r.db.WithContext(ctx).Create(models.LoanModelFromDomain(l)).Error
}

// Save updates the loan's projected fields and status
func (r *GormLoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	result := r.db.WithContext(ctx).
		Model(&models.LoanModel{}).
		Where("id = ?", l.ID).
		Updates(map[string]interface{}{
			"total_amount_due": l.TotalAmountDue,
			"amount_paid":      l.AmountPaid,
			"balance":          l.Balance,
			"status":           string(l.Status),
			"due_date":         l.DueDate,
			"version":          l.Version,
			"updated_at":       l.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrLoanNotFound
	}
	return nil
}

// FindByID finds a loan by its ID
func (r *GormLoanRepository) FindByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	return r.find(ctx, r.db, id)
}

// FindByIDForUpdate finds a loan and locks its row
func (r *GormLoanRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	return r.find(ctx, forUpdate(r.db), id)
}

func (r *GormLoanRepository) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*loan.Loan, error) {
	var m models.LoanModel
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrLoanNotFound)
	}
	return m.ToDomain(), nil
}

// List returns a page of loans, newest disbursement first
func (r *GormLoanRepository) List(ctx context.Context, filter loan.Filter, page shared.Pagination) ([]loan.Loan, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LoanModel{})
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.CycleID != nil {
		query = query.Where("cycle_id = ?", *filter.CycleID)
	}
	if filter.BorrowerID != nil {
		query = query.Where("borrower_id = ?", *filter.BorrowerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.SortBy, LoanSortFields, "disbursement_date")
	sortOrder := ValidateSortOrder(filter.SortOrder)

	var rows []models.LoanModel
	if err := paginate(query, page).
		Order(sortField + " " + sortOrder).
		Order("id " + sortOrder).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toLoans(rows), total, nil
}

// FindOutstanding returns loans of the cycle that still carry a balance
func (r *GormLoanRepository) FindOutstanding(ctx context.Context, cycleID uuid.UUID) ([]loan.Loan, error) {
	var rows []models.LoanModel
	if err := r.db.WithContext(ctx).
		Where("cycle_id = ? AND status IN ? AND balance > 0", cycleID,
			[]string{string(loan.StatusActive), string(loan.StatusDefaulted)}).
		Order("borrower_id").
		Order("disbursement_date").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLoans(rows), nil
}

// ListByCycle returns every loan of the cycle
func (r *GormLoanRepository) ListByCycle(ctx context.Context, cycleID uuid.UUID) ([]loan.Loan, error) {
	var rows []models.LoanModel
	if err := r.db.WithContext(ctx).
		Where("cycle_id = ?", cycleID).
		Order("disbursement_date").
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLoans(rows), nil
}

func toLoans(rows []models.LoanModel) []loan.Loan {
	loans := make([]loan.Loan, len(rows))
	for i := range rows {
		loans[i] = *rows[i].ToDomain()
	}
	return loans
}

// AppendTransactions inserts trail entries; existing entries are never touched
func (r *GormLoanRepository) AppendTransactions(ctx context.Context, txs ...loan.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]*models.LoanTransactionModel, len(txs))
	for i := range txs {
		rows[i] = models.LoanTransactionModelFromDomain(&txs[i])
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ListTransactions returns the loan's trail in the order it was recorded
func (r *GormLoanRepository) ListTransactions(ctx context.Context, loanID uuid.UUID) ([]loan.Transaction, error) {
	var rows []models.LoanTransactionModel
	if err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("transaction_date").
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	trail := make([]loan.Transaction, len(rows))
	for i := range rows {
		trail[i] = rows[i].ToDomain()
	}
	return trail, nil
}

type trailSumRow struct {
	TransactionType string
	Total           decimal.Decimal
}

// TrailTotals aggregates the stored trail of a loan per transaction type
func (r *GormLoanRepository) TrailTotals(ctx context.Context, loanID uuid.UUID) (loan.TrailTotals, error) {
	var rows []trailSumRow
	if err := r.db.WithContext(ctx).
		Model(&models.LoanTransactionModel{}).
		Select("transaction_type, COALESCE(SUM(amount), 0) AS total").
		Where("loan_id = ?", loanID).
		Group("transaction_type").
		Scan(&rows).Error; err != nil {
		return loan.TrailTotals{}, err
	}
	totals := loan.Totalize(nil)
	for _, row := range rows {
		totals = totals.Add(loan.Transaction{
			Type:   loan.TransactionType(row.TransactionType),
			Amount: shared.RoundMoney(row.Total),
		})
	}
	return totals, nil
}

var _ loan.LoanRepository = (*GormLoanRepository)(nil)
