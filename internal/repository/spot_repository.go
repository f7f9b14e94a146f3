package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/mfarhadi/parkwise/internal/model"
)

// SpotRepo is the spot allocator.  Claiming and releasing always happen
// inside the caller's transaction so the status flip commits or rolls
// back together with the reservation row it belongs to.
type SpotRepo struct{ db *sql.DB }

// NewSpotRepo constructs a SpotRepo given a DB handle.
func NewSpotRepo(db *sql.DB) *SpotRepo { return &SpotRepo{db: db} }

// ClaimAvailableTx picks the lowest-numbered available spot in the lot,
// locks it and flips it to occupied.  The deterministic ORDER BY keeps
// allocation reproducible.  The conditional UPDATE re-checks the status:
// if a concurrent transaction claimed the spot between our SELECT and
// UPDATE, zero rows are affected and ErrNoAvailableSpot is returned
// without mutating anything.
func (r *SpotRepo) ClaimAvailableTx(ctx context.Context, tx *sql.Tx, lotID uint64) (model.ParkingSpot, error) {
    var spot model.ParkingSpot
    err := tx.QueryRowContext(ctx,
        `SELECT id, lot_id, spot_number, status FROM parking_spots
         WHERE lot_id = ? AND status = 'A'
         ORDER BY spot_number ASC LIMIT 1 FOR UPDATE`, lotID).
        Scan(&spot.ID, &spot.LotID, &spot.SpotNumber, &spot.Status)
    if err == sql.ErrNoRows {
        return model.ParkingSpot{}, ErrNoAvailableSpot
    }
    if err != nil {
        return model.ParkingSpot{}, err
    }

    res, err := tx.ExecContext(ctx,
        `UPDATE parking_spots SET status = 'O' WHERE id = ? AND status = 'A'`, spot.ID)
    if err != nil {
        return model.ParkingSpot{}, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return model.ParkingSpot{}, err
    }
    if n == 0 {
        return model.ParkingSpot{}, ErrNoAvailableSpot
    }
    spot.Status = model.SpotOccupied
    return spot, nil
}

// ReleaseTx flips a spot back to available within the caller's
// transaction.  It is safe against double release; releasing an already
// available spot simply affects zero rows.  The reservation status guard
// in the service layer is what rejects the duplicate call.
func (r *SpotRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, spotID uint64) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE parking_spots SET status = 'A' WHERE id = ?`, spotID)
    return err
}

// SpotStatusEntry is one row of the per-lot occupancy summary.
type SpotStatusEntry struct {
    SpotNumber int              `json:"spot_number"`
    Status     model.SpotStatus `json:"status"`
}

// ActiveSpotDetail describes the active reservation holding a spot, shown
// to admins inspecting a lot.
type ActiveSpotDetail struct {
    Username         string    `json:"username"`
    SpotNumber       int       `json:"spot_number"`
    VehicleNumber    string    `json:"vehicle_number"`
    ParkingTimestamp time.Time `json:"parking_timestamp"`
}

// LotSpotSummary aggregates the spot statuses of one lot with the details
// of every active reservation in it.
type LotSpotSummary struct {
    LotID         uint64             `json:"lot_id"`
    TotalSpots    int                `json:"total_spots"`
    OccupiedCount int                `json:"occupied_count"`
    Summary       []SpotStatusEntry  `json:"summary"`
    Details       []ActiveSpotDetail `json:"details"`
}

// SummaryByLot returns the occupancy summary for a lot, ordered by spot
// number.  ErrLotNotFound is returned when the lot does not exist.
func (r *SpotRepo) SummaryByLot(ctx context.Context, lotID uint64) (LotSpotSummary, error) {
    var exists uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT id FROM parking_lots WHERE id = ? LIMIT 1`, lotID).Scan(&exists)
    if err == sql.ErrNoRows {
        return LotSpotSummary{}, ErrLotNotFound
    }
    if err != nil {
        return LotSpotSummary{}, err
    }

    out := LotSpotSummary{LotID: lotID, Summary: []SpotStatusEntry{}, Details: []ActiveSpotDetail{}}
    rows, err := r.db.QueryContext(ctx,
        `SELECT spot_number, status FROM parking_spots WHERE lot_id = ? ORDER BY spot_number`, lotID)
    if err != nil {
        return LotSpotSummary{}, err
    }
    defer rows.Close()
    for rows.Next() {
        var e SpotStatusEntry
        if err := rows.Scan(&e.SpotNumber, &e.Status); err != nil {
            return LotSpotSummary{}, err
        }
        if e.Status == model.SpotOccupied {
            out.OccupiedCount++
        }
        out.Summary = append(out.Summary, e)
    }
    if err := rows.Err(); err != nil {
        return LotSpotSummary{}, err
    }
    out.TotalSpots = len(out.Summary)

    const detailQ = `SELECT u.username, s.spot_number, r.vehicle_number, r.parking_timestamp
                     FROM reservations r
                     JOIN parking_spots s ON s.id = r.spot_id
                     JOIN users u ON u.id = r.user_id
                     WHERE s.lot_id = ? AND r.status = 'active'
                     ORDER BY s.spot_number`
    drows, err := r.db.QueryContext(ctx, detailQ, lotID)
    if err != nil {
        return LotSpotSummary{}, err
    }
    defer drows.Close()
    for drows.Next() {
        var d ActiveSpotDetail
        if err := drows.Scan(&d.Username, &d.SpotNumber, &d.VehicleNumber, &d.ParkingTimestamp); err != nil {
            return LotSpotSummary{}, err
        }
        out.Details = append(out.Details, d)
    }
    return out, drows.Err()
}
