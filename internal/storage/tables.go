package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/qrdine/qrdine/pkg/models"
)

func (s *Queries) InsertTable(ctx context.Context, table *models.Table) error {
	query := `
		INSERT INTO tables (id, hotel_id, number, sequence, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.q.ExecContext(ctx, query,
		table.ID, table.HotelID, table.Number, table.Sequence, table.Status)
	return errors.Wrap(err, "insert table")
}

func (s *Queries) TableByID(ctx context.Context, tableID string) (*models.Table, error) {
	query := `SELECT id, hotel_id, number, sequence, status FROM tables WHERE id = $1`
	var t models.Table
	err := s.q.QueryRowContext(ctx, query, tableID).Scan(
		&t.ID, &t.HotelID, &t.Number, &t.Sequence, &t.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select table")
	}
	return &t, nil
}

func (s *Queries) TablesByHotel(ctx context.Context, hotelID string) ([]models.Table, error) {
	query := `SELECT id, hotel_id, number, sequence, status FROM tables WHERE hotel_id = $1 ORDER BY sequence`
	rows, err := s.q.QueryContext(ctx, query, hotelID)
	if err != nil {
		return nil, errors.Wrap(err, "select tables")
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.HotelID, &t.Number, &t.Sequence, &t.Status); err != nil {
			return nil, errors.Wrap(err, "scan table")
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (s *Queries) UpdateTable(ctx context.Context, table *models.Table) error {
	query := `UPDATE tables SET number = $1, sequence = $2, status = $3 WHERE id = $4`
	_, err := s.q.ExecContext(ctx, query, table.Number, table.Sequence, table.Status, table.ID)
	return errors.Wrap(err, "update table")
}

func (s *Queries) DeleteTable(ctx context.Context, tableID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM tables WHERE id = $1`, tableID)
	return errors.Wrap(err, "delete table")
}
