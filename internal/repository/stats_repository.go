package repository

import (
    "context"
    "database/sql"
    "math"
    "time"
)

// StatsRepo serves the aggregate queries behind the admin dashboard, the
// statistics endpoints and the background report jobs.  All queries are
// read only.
type StatsRepo struct{ db *sql.DB }

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// DashboardCounts are the headline numbers on the admin dashboard.
type DashboardCounts struct {
    TotalLots          int `json:"total_lots"`
    TotalSpots         int `json:"total_spots"`
    OccupiedSpots      int `json:"occupied_spots"`
    AvailableSpots     int `json:"available_spots"`
    TotalUsers         int `json:"total_users"`
    ActiveReservations int `json:"active_reservations"`
}

// Dashboard loads the current counters in one round trip.
func (r *StatsRepo) Dashboard(ctx context.Context) (DashboardCounts, error) {
    const q = `SELECT
                 (SELECT COUNT(*) FROM parking_lots),
                 (SELECT COUNT(*) FROM parking_spots),
                 (SELECT COUNT(*) FROM parking_spots WHERE status = 'O'),
                 (SELECT COUNT(*) FROM users WHERE role = 'user'),
                 (SELECT COUNT(*) FROM reservations WHERE status = 'active')`
    var c DashboardCounts
    err := r.db.QueryRowContext(ctx, q).
        Scan(&c.TotalLots, &c.TotalSpots, &c.OccupiedSpots, &c.TotalUsers, &c.ActiveReservations)
    if err != nil {
        return DashboardCounts{}, err
    }
    c.AvailableSpots = c.TotalSpots - c.OccupiedSpots
    return c, nil
}

// MonthlyAmount is one month's aggregated money value, labelled the way
// the dashboards display it ("March 2025").
type MonthlyAmount struct {
    Month  string  `json:"month"`
    Amount float64 `json:"amount"`
}

// RevenueByMonth sums the finalized cost of completed reservations per
// month of departure, oldest month first.
func (r *StatsRepo) RevenueByMonth(ctx context.Context, since time.Time) ([]MonthlyAmount, error) {
    const q = `SELECT DATE_FORMAT(leaving_timestamp, '%M %Y'), COALESCE(SUM(parking_cost), 0)
               FROM reservations
               WHERE leaving_timestamp >= ? AND status = 'completed' AND parking_cost IS NOT NULL
               GROUP BY DATE_FORMAT(leaving_timestamp, '%Y-%m'), DATE_FORMAT(leaving_timestamp, '%M %Y')
               ORDER BY MIN(leaving_timestamp)`
    return r.monthlyAmounts(ctx, q, since)
}

// SpendingByMonth is the per-user variant of RevenueByMonth.
func (r *StatsRepo) SpendingByMonth(ctx context.Context, userID uint64, since time.Time) ([]MonthlyAmount, error) {
    const q = `SELECT DATE_FORMAT(leaving_timestamp, '%M %Y'), COALESCE(SUM(parking_cost), 0)
               FROM reservations
               WHERE user_id = ? AND leaving_timestamp >= ? AND status = 'completed' AND parking_cost IS NOT NULL
               GROUP BY DATE_FORMAT(leaving_timestamp, '%Y-%m'), DATE_FORMAT(leaving_timestamp, '%M %Y')
               ORDER BY MIN(leaving_timestamp)`
    return r.monthlyAmounts(ctx, q, userID, since)
}

func (r *StatsRepo) monthlyAmounts(ctx context.Context, q string, args ...interface{}) ([]MonthlyAmount, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]MonthlyAmount, 0)
    for rows.Next() {
        var m MonthlyAmount
        if err := rows.Scan(&m.Month, &m.Amount); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// LotUtilization reports what share of a lot's spots is occupied.
type LotUtilization struct {
    LotName     string  `json:"lot_name"`
    Utilization float64 `json:"utilization"`
}

// UtilizationByLot computes the occupancy percentage per lot, one decimal
// place, ordered by lot id.
func (r *StatsRepo) UtilizationByLot(ctx context.Context) ([]LotUtilization, error) {
    const q = `SELECT l.prime_location_name, l.number_of_spots, COALESCE(SUM(s.status = 'O'), 0)
               FROM parking_lots l
               LEFT JOIN parking_spots s ON s.lot_id = l.id
               GROUP BY l.id, l.prime_location_name, l.number_of_spots
               ORDER BY l.id`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]LotUtilization, 0)
    for rows.Next() {
        var name string
        var total, occupied int
        if err := rows.Scan(&name, &total, &occupied); err != nil {
            return nil, err
        }
        var rate float64
        if total > 0 {
            rate = math.Round(float64(occupied)/float64(total)*1000) / 10
        }
        out = append(out, LotUtilization{LotName: name, Utilization: rate})
    }
    return out, rows.Err()
}

// DailyCount is the number of reservations opened on one day, labelled
// MM/DD.
type DailyCount struct {
    Day   string `json:"day"`
    Count int    `json:"count"`
}

// DailyTrend counts reservations per day since the given time.  Days with
// no reservations produce no row; the caller fills gaps for display.
func (r *StatsRepo) DailyTrend(ctx context.Context, since time.Time) ([]DailyCount, error) {
    const q = `SELECT DATE_FORMAT(parking_timestamp, '%m/%d'), COUNT(*)
               FROM reservations
               WHERE parking_timestamp >= ?
               GROUP BY DATE(parking_timestamp), DATE_FORMAT(parking_timestamp, '%m/%d')
               ORDER BY DATE(parking_timestamp)`
    rows, err := r.db.QueryContext(ctx, q, since)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]DailyCount, 0)
    for rows.Next() {
        var d DailyCount
        if err := rows.Scan(&d.Day, &d.Count); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

// DurationBuckets distributes a user's completed stays into the four
// duration classes shown on the user dashboard: under one hour, one to
// three, three to six, and six hours or more.
func (r *StatsRepo) DurationBuckets(ctx context.Context, userID uint64) ([4]int, error) {
    const q = `SELECT TIMESTAMPDIFF(SECOND, parking_timestamp, leaving_timestamp)
               FROM reservations
               WHERE user_id = ? AND status = 'completed' AND leaving_timestamp IS NOT NULL`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return [4]int{}, err
    }
    defer rows.Close()
    var buckets [4]int
    for rows.Next() {
        var seconds int64
        if err := rows.Scan(&seconds); err != nil {
            return [4]int{}, err
        }
        hours := float64(seconds) / 3600
        switch {
        case hours < 1:
            buckets[0]++
        case hours < 3:
            buckets[1]++
        case hours < 6:
            buckets[2]++
        default:
            buckets[3]++
        }
    }
    return buckets, rows.Err()
}

// ExportRow is one line of the CSV export produced by the background job.
type ExportRow struct {
    ReservationID    uint64
    UserID           uint64
    Username         string
    Email            string
    SpotNumber       int
    LotName          string
    LotAddress       string
    VehicleNumber    string
    ParkingTimestamp time.Time
    LeavingTimestamp *time.Time
    BaseCost         float64
    HourlyRate       float64
    TotalCost        *float64
    Status           string
}

// ExportRows loads the reservations visible to the exporting user: admins
// see everything, regular users only their own history.
func (r *StatsRepo) ExportRows(ctx context.Context, userID uint64, adminScope bool) ([]ExportRow, error) {
    q := `SELECT r.id, r.user_id, u.username, u.email, s.spot_number,
                 l.prime_location_name, l.address, r.vehicle_number,
                 r.parking_timestamp, r.leaving_timestamp,
                 r.base_cost, r.hourly_rate, r.parking_cost, r.status
          FROM reservations r
          JOIN parking_spots s ON s.id = r.spot_id
          JOIN parking_lots l ON l.id = s.lot_id
          JOIN users u ON u.id = r.user_id`
    args := []interface{}{}
    if !adminScope {
        q += ` WHERE r.user_id = ?`
        args = append(args, userID)
    }
    q += ` ORDER BY r.parking_timestamp`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ExportRow, 0)
    for rows.Next() {
        var e ExportRow
        var leaving sql.NullTime
        var cost sql.NullFloat64
        if err := rows.Scan(&e.ReservationID, &e.UserID, &e.Username, &e.Email, &e.SpotNumber,
            &e.LotName, &e.LotAddress, &e.VehicleNumber,
            &e.ParkingTimestamp, &leaving, &e.BaseCost, &e.HourlyRate, &cost, &e.Status); err != nil {
            return nil, err
        }
        if leaving.Valid {
            t := leaving.Time
            e.LeavingTimestamp = &t
        }
        if cost.Valid {
            c := cost.Float64
            e.TotalCost = &c
        }
        out = append(out, e)
    }
    return out, rows.Err()
}

// UserContact identifies a notification recipient.
type UserContact struct {
    UserID   uint64
    Username string
    Email    string
}

// ReminderTargets returns the users who currently hold no active
// reservation; they receive the daily reminder.
func (r *StatsRepo) ReminderTargets(ctx context.Context) ([]UserContact, error) {
    const q = `SELECT u.id, u.username, u.email
               FROM users u
               WHERE u.role = 'user'
                 AND NOT EXISTS (SELECT 1 FROM reservations r WHERE r.user_id = u.id AND r.status = 'active')
               ORDER BY u.id`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]UserContact, 0)
    for rows.Next() {
        var c UserContact
        if err := rows.Scan(&c.UserID, &c.Username, &c.Email); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// ReportBooking is one reservation line of a monthly report email.
type ReportBooking struct {
    Date          time.Time
    LotName       string
    SpotNumber    int
    VehicleNumber string
    Cost          float64
}

// UserMonthlyActivity groups one user's bookings for the report window.
type UserMonthlyActivity struct {
    Contact  UserContact
    Bookings []ReportBooking
}

// MonthlyActivity loads every non-admin user's reservations in the given
// window, grouped per user, for the monthly report job.  Users with no
// bookings in the window are omitted.
func (r *StatsRepo) MonthlyActivity(ctx context.Context, from, to time.Time) ([]UserMonthlyActivity, error) {
    const q = `SELECT u.id, u.username, u.email,
                      r.parking_timestamp, l.prime_location_name, s.spot_number,
                      r.vehicle_number, COALESCE(r.parking_cost, 0)
               FROM reservations r
               JOIN users u ON u.id = r.user_id
               JOIN parking_spots s ON s.id = r.spot_id
               JOIN parking_lots l ON l.id = s.lot_id
               WHERE u.role = 'user' AND r.parking_timestamp >= ? AND r.parking_timestamp <= ?
               ORDER BY u.id, r.parking_timestamp`
    rows, err := r.db.QueryContext(ctx, q, from, to)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]UserMonthlyActivity, 0)
    for rows.Next() {
        var c UserContact
        var b ReportBooking
        if err := rows.Scan(&c.UserID, &c.Username, &c.Email,
            &b.Date, &b.LotName, &b.SpotNumber, &b.VehicleNumber, &b.Cost); err != nil {
            return nil, err
        }
        if n := len(out); n > 0 && out[n-1].Contact.UserID == c.UserID {
            out[n-1].Bookings = append(out[n-1].Bookings, b)
        } else {
            out = append(out, UserMonthlyActivity{Contact: c, Bookings: []ReportBooking{b}})
        }
    }
    return out, rows.Err()
}
