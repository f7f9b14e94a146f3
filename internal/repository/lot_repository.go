package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/mfarhadi/parkwise/internal/model"
)

// LotRepo provides CRUD operations for parking lots and keeps the
// declared spot count consistent with the actual spot rows.  Mutations
// that touch both the lot row and its spots run inside one transaction
// so a crash can never leave the two out of step.
type LotRepo struct{ db *sql.DB }

// NewLotRepo returns a new LotRepo bound to the given database.
func NewLotRepo(db *sql.DB) *LotRepo { return &LotRepo{db: db} }

// Create inserts a lot and its spots numbered 1..NumberOfSpots in a single
// transaction.  The generated lot ID is written back onto the argument.
func (r *LotRepo) Create(ctx context.Context, lot *model.ParkingLot) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx,
        `INSERT INTO parking_lots (prime_location_name, price, address, pin_code, number_of_spots) VALUES (?,?,?,?,?)`,
        lot.PrimeLocationName, lot.Price, lot.Address, lot.PinCode, lot.NumberOfSpots)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    lot.ID = uint64(id)

    if err := insertSpotRangeTx(ctx, tx, lot.ID, 1, lot.NumberOfSpots); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Update rewrites the lot's fields and resizes its spot set.  Growing
// appends spots after the current highest number.  Shrinking removes only
// spots beyond the new count, and only when none of them is occupied;
// otherwise ErrConflict is returned and nothing changes.  Historical
// reservations of removed spots are deleted with them, mirroring the
// cascade on lot deletion.
func (r *LotRepo) Update(ctx context.Context, lot model.ParkingLot) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var current int
    err = tx.QueryRowContext(ctx,
        `SELECT number_of_spots FROM parking_lots WHERE id = ? FOR UPDATE`, lot.ID).Scan(&current)
    if err != nil {
        return err // sql.ErrNoRows when the lot is missing
    }

    switch {
    case lot.NumberOfSpots > current:
        if err := insertSpotRangeTx(ctx, tx, lot.ID, current+1, lot.NumberOfSpots); err != nil {
            return err
        }
    case lot.NumberOfSpots < current:
        var occupied int
        err = tx.QueryRowContext(ctx,
            `SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? AND spot_number > ? AND status = 'O'`,
            lot.ID, lot.NumberOfSpots).Scan(&occupied)
        if err != nil {
            return err
        }
        if occupied > 0 {
            return ErrConflict
        }
        _, err = tx.ExecContext(ctx,
            `DELETE FROM reservations WHERE spot_id IN
               (SELECT id FROM (SELECT id FROM parking_spots WHERE lot_id = ? AND spot_number > ?) x)`,
            lot.ID, lot.NumberOfSpots)
        if err != nil {
            return err
        }
        _, err = tx.ExecContext(ctx,
            `DELETE FROM parking_spots WHERE lot_id = ? AND spot_number > ?`,
            lot.ID, lot.NumberOfSpots)
        if err != nil {
            return err
        }
    }

    _, err = tx.ExecContext(ctx,
        `UPDATE parking_lots SET prime_location_name=?, price=?, address=?, pin_code=?, number_of_spots=? WHERE id=?`,
        lot.PrimeLocationName, lot.Price, lot.Address, lot.PinCode, lot.NumberOfSpots, lot.ID)
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Delete removes a lot together with its spots and their reservations.
// A lot with at least one occupied spot cannot be deleted; ErrConflict is
// returned and the lot remains untouched.  sql.ErrNoRows is returned when
// the lot does not exist.
func (r *LotRepo) Delete(ctx context.Context, lotID uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var id uint64
    err = tx.QueryRowContext(ctx,
        `SELECT id FROM parking_lots WHERE id = ? FOR UPDATE`, lotID).Scan(&id)
    if err != nil {
        return err
    }
    var occupied int
    err = tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? AND status = 'O'`, lotID).Scan(&occupied)
    if err != nil {
        return err
    }
    if occupied > 0 {
        return ErrConflict
    }

    _, err = tx.ExecContext(ctx,
        `DELETE FROM reservations WHERE spot_id IN
           (SELECT id FROM (SELECT id FROM parking_spots WHERE lot_id = ?) x)`, lotID)
    if err != nil {
        return err
    }
    if _, err = tx.ExecContext(ctx, `DELETE FROM parking_spots WHERE lot_id = ?`, lotID); err != nil {
        return err
    }
    if _, err = tx.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = ?`, lotID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetByIDTx fetches a lot inside an existing transaction.  The reserve
// flow uses it to read the hourly rate under the same isolation as the
// spot claim.
func (r *LotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ParkingLot, error) {
    var l model.ParkingLot
    err := tx.QueryRowContext(ctx,
        `SELECT id, prime_location_name, price, address, pin_code, number_of_spots, created_at
         FROM parking_lots WHERE id = ? LIMIT 1`, id).
        Scan(&l.ID, &l.PrimeLocationName, &l.Price, &l.Address, &l.PinCode, &l.NumberOfSpots, &l.CreatedAt)
    return l, err
}

// GetByID fetches a lot by id.
func (r *LotRepo) GetByID(ctx context.Context, id uint64) (model.ParkingLot, error) {
    var l model.ParkingLot
    err := r.db.QueryRowContext(ctx,
        `SELECT id, prime_location_name, price, address, pin_code, number_of_spots, created_at
         FROM parking_lots WHERE id = ? LIMIT 1`, id).
        Scan(&l.ID, &l.PrimeLocationName, &l.Price, &l.Address, &l.PinCode, &l.NumberOfSpots, &l.CreatedAt)
    return l, err
}

// LotAvailability is the cache-backed listing entry served to users
// browsing lots.  It is marshalled to JSON both for the HTTP response and
// for the Redis cache value.
type LotAvailability struct {
    ID                uint64  `json:"id"`
    PrimeLocationName string  `json:"prime_location_name"`
    Price             float64 `json:"price"`
    Address           string  `json:"address"`
    PinCode           string  `json:"pin_code"`
    NumberOfSpots     int     `json:"number_of_spots"`
    AvailableSpots    int     `json:"available_spots"`
}

// ListWithAvailability returns every lot with its current count of
// available spots, ordered by id.
func (r *LotRepo) ListWithAvailability(ctx context.Context) ([]LotAvailability, error) {
    const q = `SELECT l.id, l.prime_location_name, l.price, l.address, l.pin_code, l.number_of_spots,
                      COALESCE(SUM(s.status = 'A'), 0)
               FROM parking_lots l
               LEFT JOIN parking_spots s ON s.lot_id = l.id
               GROUP BY l.id, l.prime_location_name, l.price, l.address, l.pin_code, l.number_of_spots
               ORDER BY l.id`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]LotAvailability, 0)
    for rows.Next() {
        var la LotAvailability
        if err := rows.Scan(&la.ID, &la.PrimeLocationName, &la.Price, &la.Address, &la.PinCode, &la.NumberOfSpots, &la.AvailableSpots); err != nil {
            return nil, err
        }
        out = append(out, la)
    }
    return out, rows.Err()
}

// insertSpotRangeTx bulk-inserts spots from..to (inclusive) for a lot in
// one statement, the same multi-row VALUES shape used for any bulk insert
// in this package.
func insertSpotRangeTx(ctx context.Context, tx *sql.Tx, lotID uint64, from, to int) error {
    if from > to {
        return nil
    }
    var sb strings.Builder
    sb.WriteString(`INSERT INTO parking_spots (lot_id, spot_number, status) VALUES `)
    args := make([]interface{}, 0, (to-from+1)*2)
    for n := from; n <= to; n++ {
        if n > from {
            sb.WriteString(",")
        }
        sb.WriteString("(?, ?, 'A')")
        args = append(args, lotID, n)
    }
    _, err := tx.ExecContext(ctx, sb.String(), args...)
    return err
}
