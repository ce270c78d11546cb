package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/trustreach/verifyd/internal/models"
)

// Event names recorded by the verification flow.
const (
	EventCodeIssued     = "code.issued"
	EventCodeValidated  = "code.validated"
	EventDeliveryFailed = "delivery.failed"
)

// Entry captures a single verification event to persist.
type Entry struct {
	Event     string
	Email     string
	Phone     string
	Result    string
	IPAddress string
	UserAgent string
	Metadata  map[string]any
}

// Filters encapsulates optional filters when querying events.
type Filters struct {
	Event  string
	Email  string
	Result string
	Since  *time.Time
	Until  *time.Time
}

// ListOptions controls pagination and filtering for event queries.
type ListOptions struct {
	Page     int
	PageSize int
	Filters  Filters
}

// Service persists and retrieves verification audit events.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service using the provided database handle.
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &Service{db: db}, nil
}

// Log stores an audit entry, marshalling metadata into JSON form.
func (s *Service) Log(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.Event) == "" {
		return errors.New("audit service: event is required")
	}
	if strings.TrimSpace(entry.Result) == "" {
		return errors.New("audit service: result is required")
	}

	payload := ""
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		payload = string(encoded)
	}

	event := models.VerificationEvent{
		Event:     strings.TrimSpace(entry.Event),
		Email:     strings.TrimSpace(entry.Email),
		Phone:     strings.TrimSpace(entry.Phone),
		Result:    strings.TrimSpace(entry.Result),
		IPAddress: strings.TrimSpace(entry.IPAddress),
		UserAgent: strings.TrimSpace(entry.UserAgent),
		Metadata:  payload,
	}

	return s.db.WithContext(ctx).Create(&event).Error
}

// List returns paginated events ordered by creation time descending.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.VerificationEvent, int64, error) {
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	var (
		results []models.VerificationEvent
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.VerificationEvent{})
	query = applyFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count events: %w", err)
	}

	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list events: %w", err)
	}

	return results, total, nil
}

// CleanupOlderThan removes events older than the supplied retention window (in days).
func (s *Service) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.VerificationEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup events: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func applyFilters(query *gorm.DB, filters Filters) *gorm.DB {
	if filters.Event != "" {
		query = query.Where("event = ?", filters.Event)
	}
	if filters.Email != "" {
		query = query.Where("email = ?", filters.Email)
	}
	if filters.Result != "" {
		query = query.Where("result = ?", filters.Result)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Until != nil {
		query = query.Where("created_at <= ?", *filters.Until)
	}
	return query
}
