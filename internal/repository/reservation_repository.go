package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/mfarhadi/parkwise/internal/billing"
    "github.com/mfarhadi/parkwise/internal/model"
)

// ReservationRepo provides persistence for reservations.  All mutating
// operations take a *sql.Tx: the lifecycle manager owns the transaction
// that spans the spot status flip and the reservation row, and this repo
// never commits on its own.
type ReservationRepo struct{ db *sql.DB }

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationRecord mirrors the reservations table for insertion.  The
// generated ID is written back by CreateTx.
type ReservationRecord struct {
    ID               uint64
    SpotID           uint64
    UserID           uint64
    VehicleNumber    string
    ParkingTimestamp time.Time
    Status           model.ReservationStatus
    ParkingCost      float64
    BaseCost         float64
    HourlyRate       float64
    TotalHours       float64
    CostBreakdown    string
}

// ActiveExistsTx reports whether the user currently holds an active
// reservation.  The row is locked so a concurrent reserve by the same
// user serializes behind this check.
func (r *ReservationRepo) ActiveExistsTx(ctx context.Context, tx *sql.Tx, userID uint64) (bool, error) {
    var id uint64
    err := tx.QueryRowContext(ctx,
        `SELECT id FROM reservations WHERE user_id = ? AND status = 'active' LIMIT 1 FOR UPDATE`,
        userID).Scan(&id)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// CreateTx inserts a new active reservation within the caller's
// transaction and populates the generated ID on the record.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *ReservationRecord) error {
    const q = `INSERT INTO reservations
               (spot_id, user_id, vehicle_number, parking_timestamp, status, parking_cost, base_cost, hourly_rate, total_hours, cost_breakdown)
               VALUES (?,?,?,?,?,?,?,?,?,?)`
    res, err := tx.ExecContext(ctx, q,
        rec.SpotID, rec.UserID, rec.VehicleNumber, rec.ParkingTimestamp, string(rec.Status),
        rec.ParkingCost, rec.BaseCost, rec.HourlyRate, rec.TotalHours, rec.CostBreakdown)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    return nil
}

// ReleaseInfo is the slice of a reservation the release and live-cost
// paths need: ownership, lifecycle state and the billing inputs.
// RawBreakdown carries the persisted breakdown JSON and is only filled
// by GetInfo; the locking variant never needs it.
type ReleaseInfo struct {
    ID               uint64
    UserID           uint64
    SpotID           uint64
    LotID            uint64
    Status           model.ReservationStatus
    ParkingTimestamp time.Time
    HourlyRate       float64
    RawBreakdown     string
}

// GetForUpdateTx loads the release-relevant fields of a reservation and
// locks the row for the duration of the transaction.  sql.ErrNoRows is
// returned when the reservation does not exist.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (ReleaseInfo, error) {
    const q = `SELECT r.id, r.user_id, r.spot_id, s.lot_id, r.status, r.parking_timestamp, r.hourly_rate
               FROM reservations r
               JOIN parking_spots s ON s.id = r.spot_id
               WHERE r.id = ? FOR UPDATE`
    var info ReleaseInfo
    var status string
    err := tx.QueryRowContext(ctx, q, id).
        Scan(&info.ID, &info.UserID, &info.SpotID, &info.LotID, &status, &info.ParkingTimestamp, &info.HourlyRate)
    if err != nil {
        return ReleaseInfo{}, err
    }
    info.Status = model.ReservationStatus(status)
    return info, nil
}

// GetInfo is the non-locking variant used by the live-cost read path.
// It also loads the persisted breakdown so completed reservations can be
// answered from storage.
func (r *ReservationRepo) GetInfo(ctx context.Context, id uint64) (ReleaseInfo, error) {
    const q = `SELECT r.id, r.user_id, r.spot_id, s.lot_id, r.status, r.parking_timestamp, r.hourly_rate, r.cost_breakdown
               FROM reservations r
               JOIN parking_spots s ON s.id = r.spot_id
               WHERE r.id = ?`
    var info ReleaseInfo
    var status string
    var raw sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).
        Scan(&info.ID, &info.UserID, &info.SpotID, &info.LotID, &status, &info.ParkingTimestamp, &info.HourlyRate, &raw)
    if err != nil {
        return ReleaseInfo{}, err
    }
    info.Status = model.ReservationStatus(status)
    info.RawBreakdown = raw.String
    return info, nil
}

// FinalizeTx closes a reservation: leaving timestamp, final cost, billed
// hours, the serialized breakdown and the flip to the terminal status,
// all in one statement inside the caller's transaction.
func (r *ReservationRepo) FinalizeTx(ctx context.Context, tx *sql.Tx, id uint64, leaving time.Time, totalCost, totalHours float64, breakdownJSON string) error {
    const q = `UPDATE reservations
               SET leaving_timestamp = ?, parking_cost = ?, total_hours = ?, cost_breakdown = ?, status = 'completed'
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, leaving, totalCost, totalHours, breakdownJSON, id)
    return err
}

// ReservationDetail is the listing row returned to clients.  For active
// reservations the service replaces CostBreakdown with a freshly computed
// one before the row leaves the API, so stored values are never shown
// stale.  RawBreakdown carries the persisted JSON and stays internal.
type ReservationDetail struct {
    ID               uint64            `json:"id"`
    Username         string            `json:"username,omitempty"`
    LotName          string            `json:"lot_name"`
    SpotNumber       int               `json:"spot_number"`
    VehicleNumber    string            `json:"vehicle_number"`
    ParkingTimestamp time.Time         `json:"parking_timestamp"`
    LeavingTimestamp *time.Time        `json:"leaving_timestamp"`
    ParkingCost      *float64          `json:"parking_cost"`
    Status           string            `json:"status"`
    CostBreakdown    billing.Breakdown `json:"cost_breakdown"`

    HourlyRate   float64 `json:"-"`
    RawBreakdown string  `json:"-"`
}

// ListByUser returns all reservations of one user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
    const q = `SELECT r.id, l.prime_location_name, s.spot_number, r.vehicle_number,
                      r.parking_timestamp, r.leaving_timestamp, r.parking_cost, r.status,
                      r.hourly_rate, r.cost_breakdown
               FROM reservations r
               JOIN parking_spots s ON s.id = r.spot_id
               JOIN parking_lots l ON l.id = s.lot_id
               WHERE r.user_id = ?
               ORDER BY r.parking_timestamp DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return scanDetails(rows, false)
}

// ListAll returns every reservation with its owner's username, newest
// first.  Admin only.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]ReservationDetail, error) {
    const q = `SELECT r.id, u.username, l.prime_location_name, s.spot_number, r.vehicle_number,
                      r.parking_timestamp, r.leaving_timestamp, r.parking_cost, r.status,
                      r.hourly_rate, r.cost_breakdown
               FROM reservations r
               JOIN parking_spots s ON s.id = r.spot_id
               JOIN parking_lots l ON l.id = s.lot_id
               JOIN users u ON u.id = r.user_id
               ORDER BY r.parking_timestamp DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return scanDetails(rows, true)
}

func scanDetails(rows *sql.Rows, withUsername bool) ([]ReservationDetail, error) {
    out := make([]ReservationDetail, 0)
    for rows.Next() {
        var d ReservationDetail
        var leaving sql.NullTime
        var cost sql.NullFloat64
        var raw sql.NullString
        var err error
        if withUsername {
            err = rows.Scan(&d.ID, &d.Username, &d.LotName, &d.SpotNumber, &d.VehicleNumber,
                &d.ParkingTimestamp, &leaving, &cost, &d.Status, &d.HourlyRate, &raw)
        } else {
            err = rows.Scan(&d.ID, &d.LotName, &d.SpotNumber, &d.VehicleNumber,
                &d.ParkingTimestamp, &leaving, &cost, &d.Status, &d.HourlyRate, &raw)
        }
        if err != nil {
            return nil, err
        }
        if leaving.Valid {
            t := leaving.Time
            d.LeavingTimestamp = &t
        }
        if cost.Valid {
            c := cost.Float64
            d.ParkingCost = &c
        }
        if raw.Valid {
            d.RawBreakdown = raw.String
        }
        out = append(out, d)
    }
    return out, rows.Err()
}
