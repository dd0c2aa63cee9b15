package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"bookingFlow/internal/config"
	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
)

type Storage struct {
	DB *sql.DB
}

func InitDB(dbCfg *config.Database) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.User,
		dbCfg.Password,
		dbCfg.DBName,
		dbCfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	return &Storage{DB: db}, nil
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

func (s *Storage) SaveBooking(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (id, event_id, user_id, quantity, total_amount, status, reservation_token, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.DB.ExecContext(ctx, query,
		b.ID,
		b.EventID,
		b.UserID,
		b.Quantity,
		b.TotalAmount,
		b.Status,
		b.ReservationToken,
		b.Version,
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (s *Storage) Booking(ctx context.Context, id string) (*models.Booking, error) {
	query := `
		SELECT id, event_id, user_id, quantity, total_amount, status, reservation_token, version, created_at
		FROM bookings
		WHERE id = $1`

	var b models.Booking
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&b.ID,
		&b.EventID,
		&b.UserID,
		&b.Quantity,
		&b.TotalAmount,
		&b.Status,
		&b.ReservationToken,
		&b.Version,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, orchestrator.ErrBookingNotFound
		}

		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &b, nil
}

func (s *Storage) UserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	query := `
		SELECT id, event_id, user_id, quantity, total_amount, status, reservation_token, version, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		err = rows.Scan(
			&b.ID,
			&b.EventID,
			&b.UserID,
			&b.Quantity,
			&b.TotalAmount,
			&b.Status,
			&b.ReservationToken,
			&b.Version,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

// UpdateStatus performs the conditional write that serializes transitions on
// a booking: the row is updated only if it is still in the expected status.
// Zero affected rows means a concurrent agent got there first.
func (s *Storage) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $3, version = version + 1
		WHERE id = $1 AND status = $2`

	result, err := s.DB.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`

		if err = s.DB.QueryRowContext(ctx, checkQuery, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check booking: %w", err)
		}

		if !exists {
			return orchestrator.ErrBookingNotFound
		}

		return orchestrator.ErrStatusConflict
	}

	return nil
}

func (s *Storage) ExpiredBookings(ctx context.Context, olderThan time.Time) ([]models.Booking, error) {
	query := `
		SELECT id, event_id, user_id, quantity, total_amount, status, reservation_token, version, created_at
		FROM bookings
		WHERE status IN ($1, $2)
		AND created_at < $3`

	rows, err := s.DB.QueryContext(ctx, query, models.StatusReserved, models.StatusAwaitingPayment, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		err = rows.Scan(
			&b.ID,
			&b.EventID,
			&b.UserID,
			&b.Quantity,
			&b.TotalAmount,
			&b.Status,
			&b.ReservationToken,
			&b.Version,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}
