package service

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "time"

    "github.com/mfarhadi/parkwise/internal/billing"
    "github.com/mfarhadi/parkwise/internal/model"
    "github.com/mfarhadi/parkwise/internal/repository"
)

// AvailabilityCache is the cache surface the service touches after a
// write. The nil-safe implementation lives in the cache package.
type AvailabilityCache interface {
    Invalidate(ctx context.Context)
}

// ReservationService owns the reserve and release flows. Both run inside
// a single transaction so that spot state and reservation rows can never
// drift apart under concurrent requests.
type ReservationService struct {
    db           *sql.DB
    spots        *repository.SpotRepo
    reservations *repository.ReservationRepo
    lots         *repository.LotRepo
    cache        AvailabilityCache
    now          func() time.Time
}

// NewReservationService wires the service. cache may be nil.
func NewReservationService(db *sql.DB, spots *repository.SpotRepo, reservations *repository.ReservationRepo, lots *repository.LotRepo, cache AvailabilityCache) *ReservationService {
    return &ReservationService{
        db:           db,
        spots:        spots,
        reservations: reservations,
        lots:         lots,
        cache:        cache,
        now:          func() time.Time { return time.Now().UTC() },
    }
}

// Reserve claims the lowest-numbered available spot in the lot for the
// user and opens a reservation priced at the lot's current rate. A user
// may hold at most one active reservation at a time.
func (s *ReservationService) Reserve(ctx context.Context, userID, lotID uint64, vehicleNumber string) (repository.ReservationRecord, model.ParkingSpot, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return repository.ReservationRecord{}, model.ParkingSpot{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    exists, err := s.reservations.ActiveExistsTx(ctx, tx, userID)
    if err != nil {
        return repository.ReservationRecord{}, model.ParkingSpot{}, err
    }
    if exists {
        return repository.ReservationRecord{}, model.ParkingSpot{}, repository.ErrActiveReservationExists
    }

    lot, err := s.lots.GetByIDTx(ctx, tx, lotID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return repository.ReservationRecord{}, model.ParkingSpot{}, repository.ErrLotNotFound
        }
        return repository.ReservationRecord{}, model.ParkingSpot{}, err
    }

    spot, err := s.spots.ClaimAvailableTx(ctx, tx, lotID)
    if err != nil {
        return repository.ReservationRecord{}, model.ParkingSpot{}, err
    }

    start := s.now()
    initial := billing.Initial(start, lot.Price)
    raw, err := json.Marshal(initial)
    if err != nil {
        return repository.ReservationRecord{}, model.ParkingSpot{}, err
    }

    rec := repository.ReservationRecord{
        SpotID:           spot.ID,
        UserID:           userID,
        VehicleNumber:    vehicleNumber,
        ParkingTimestamp: start,
        Status:           model.ReservationActive,
        ParkingCost:      initial.TotalCost,
        BaseCost:         initial.BaseCost,
        HourlyRate:       lot.Price,
        TotalHours:       initial.TotalHours,
        CostBreakdown:    string(raw),
    }
    if err := s.reservations.CreateTx(ctx, tx, &rec); err != nil {
        return repository.ReservationRecord{}, model.ParkingSpot{}, err
    }

    if err := tx.Commit(); err != nil {
        return repository.ReservationRecord{}, model.ParkingSpot{}, err
    }
    committed = true

    if s.cache != nil {
        s.cache.Invalidate(ctx)
    }
    return rec, spot, nil
}

// ReleaseResult is what the release flow hands back to the handler.
type ReleaseResult struct {
    ReservationID    uint64            `json:"reservation_id"`
    LeavingTimestamp time.Time         `json:"leaving_timestamp"`
    Breakdown        billing.Breakdown `json:"cost_breakdown"`
}

// Release closes the user's reservation: it computes the final cost from
// the elapsed time and the rate frozen at reserve time, marks the
// reservation completed and frees the spot. Only the reservation's owner
// may release it; releasing twice yields ErrAlreadyReleased.
func (s *ReservationService) Release(ctx context.Context, userID, reservationID uint64) (ReleaseResult, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return ReleaseResult{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    info, err := s.reservations.GetForUpdateTx(ctx, tx, reservationID)
    if err != nil {
        return ReleaseResult{}, err
    }
    if info.UserID != userID {
        return ReleaseResult{}, repository.ErrForbidden
    }
    if info.Status.Terminal() {
        return ReleaseResult{}, repository.ErrAlreadyReleased
    }

    leaving := s.now()
    bd := billing.Compute(info.ParkingTimestamp, info.HourlyRate, leaving)
    raw, err := json.Marshal(bd)
    if err != nil {
        return ReleaseResult{}, err
    }

    if err := s.reservations.FinalizeTx(ctx, tx, reservationID, leaving, bd.TotalCost, bd.TotalHours, string(raw)); err != nil {
        return ReleaseResult{}, err
    }
    if err := s.spots.ReleaseTx(ctx, tx, info.SpotID); err != nil {
        return ReleaseResult{}, err
    }

    if err := tx.Commit(); err != nil {
        return ReleaseResult{}, err
    }
    committed = true

    if s.cache != nil {
        s.cache.Invalidate(ctx)
    }
    return ReleaseResult{ReservationID: reservationID, LeavingTimestamp: leaving, Breakdown: bd}, nil
}

// LiveCost prices an active reservation as if it were released now. The
// owner and admins may ask; completed reservations return their stored
// final breakdown.
func (s *ReservationService) LiveCost(ctx context.Context, userID, reservationID uint64, admin bool) (billing.Breakdown, error) {
    info, err := s.reservations.GetInfo(ctx, reservationID)
    if err != nil {
        return billing.Breakdown{}, err
    }
    if !admin && info.UserID != userID {
        return billing.Breakdown{}, repository.ErrForbidden
    }
    if info.Status.Terminal() {
        var bd billing.Breakdown
        if err := json.Unmarshal([]byte(info.RawBreakdown), &bd); err != nil {
            return billing.Breakdown{}, err
        }
        return bd, nil
    }
    return billing.Compute(info.ParkingTimestamp, info.HourlyRate, s.now()), nil
}

// ListByUser returns the user's reservation history. Active rows carry a
// breakdown priced at the current time so clients can show a running
// total; completed rows carry the stored final breakdown.
func (s *ReservationService) ListByUser(ctx context.Context, userID uint64) ([]repository.ReservationDetail, error) {
    details, err := s.reservations.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    s.decorate(details)
    return details, nil
}

// ListAll is the admin view across every user.
func (s *ReservationService) ListAll(ctx context.Context) ([]repository.ReservationDetail, error) {
    details, err := s.reservations.ListAll(ctx)
    if err != nil {
        return nil, err
    }
    s.decorate(details)
    return details, nil
}

func (s *ReservationService) decorate(details []repository.ReservationDetail) {
    now := s.now()
    for i := range details {
        d := &details[i]
        if d.Status == string(model.ReservationActive) {
            d.CostBreakdown = billing.Compute(d.ParkingTimestamp, d.HourlyRate, now)
            continue
        }
        if d.RawBreakdown != "" {
            _ = json.Unmarshal([]byte(d.RawBreakdown), &d.CostBreakdown)
        }
    }
}
