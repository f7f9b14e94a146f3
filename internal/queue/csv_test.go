package queue

import (
    "bytes"
    "encoding/csv"
    "testing"
    "time"

    "github.com/mfarhadi/parkwise/internal/repository"
)

func TestBuildReservationCSV(t *testing.T) {
    leaving := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
    cost := 25.0
    rows := []repository.ExportRow{
        {
            ReservationID:    12,
            Username:         "farhad",
            Email:            "farhad@example.com",
            LotName:          "Central",
            LotAddress:       "1 Main St",
            SpotNumber:       2,
            VehicleNumber:    "KA-01-1234",
            ParkingTimestamp: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
            LeavingTimestamp: &leaving,
            BaseCost:         10,
            HourlyRate:       10,
            TotalCost:        &cost,
            Status:           "completed",
        },
        {
            ReservationID:    13,
            Username:         "farhad",
            Email:            "farhad@example.com",
            LotName:          "Central",
            LotAddress:       "1 Main St",
            SpotNumber:       5,
            VehicleNumber:    "KA-01-1234",
            ParkingTimestamp: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
            BaseCost:         10,
            HourlyRate:       10,
            Status:           "active",
        },
    }

    out, err := BuildReservationCSV(rows)
    if err != nil {
        t.Fatalf("BuildReservationCSV: %v", err)
    }

    records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
    if err != nil {
        t.Fatalf("parse output: %v", err)
    }
    if len(records) != 3 {
        t.Fatalf("got %d records, want header plus 2 rows", len(records))
    }
    if records[0][0] != "reservation_id" || records[0][11] != "total_cost" {
        t.Fatalf("unexpected header: %v", records[0])
    }
    if records[1][11] != "25.00" {
        t.Fatalf("completed row cost = %q, want 25.00", records[1][11])
    }
    if records[2][8] != "" || records[2][11] != "" {
        t.Fatalf("active row should leave departure and cost empty: %v", records[2])
    }
    if records[2][12] != "active" {
        t.Fatalf("status column = %q", records[2][12])
    }
}

func TestBuildReservationCSVEmpty(t *testing.T) {
    out, err := BuildReservationCSV(nil)
    if err != nil {
        t.Fatalf("BuildReservationCSV: %v", err)
    }
    records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
    if err != nil {
        t.Fatalf("parse output: %v", err)
    }
    if len(records) != 1 {
        t.Fatalf("empty export should still contain the header, got %d records", len(records))
    }
}
