package queue

import (
    "bytes"
    "encoding/csv"
    "fmt"
    "time"

    "github.com/mfarhadi/parkwise/internal/repository"
)

// BuildReservationCSV renders export rows as a CSV document. The column
// order matches what the export download serves to spreadsheets.
func BuildReservationCSV(rows []repository.ExportRow) ([]byte, error) {
    var buf bytes.Buffer
    w := csv.NewWriter(&buf)

    header := []string{
        "reservation_id", "username", "email", "lot_name", "lot_address",
        "spot_number", "vehicle_number", "parking_timestamp", "leaving_timestamp",
        "hourly_rate", "base_cost", "total_cost", "status",
    }
    if err := w.Write(header); err != nil {
        return nil, err
    }

    for _, r := range rows {
        leaving := ""
        if r.LeavingTimestamp != nil {
            leaving = r.LeavingTimestamp.UTC().Format(time.RFC3339)
        }
        cost := ""
        if r.TotalCost != nil {
            cost = fmt.Sprintf("%.2f", *r.TotalCost)
        }
        rec := []string{
            fmt.Sprintf("%d", r.ReservationID),
            r.Username,
            r.Email,
            r.LotName,
            r.LotAddress,
            fmt.Sprintf("%d", r.SpotNumber),
            r.VehicleNumber,
            r.ParkingTimestamp.UTC().Format(time.RFC3339),
            leaving,
            fmt.Sprintf("%.2f", r.HourlyRate),
            fmt.Sprintf("%.2f", r.BaseCost),
            cost,
            r.Status,
        }
        if err := w.Write(rec); err != nil {
            return nil, err
        }
    }

    w.Flush()
    if err := w.Error(); err != nil {
        return nil, err
    }
    return buf.Bytes(), nil
}
