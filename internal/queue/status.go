package queue

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    "github.com/redis/go-redis/v9"
)

// Job lifecycle states as reported by the status endpoint.
const (
    StatePending  = "PENDING"
    StateProgress = "PROGRESS"
    StateSuccess  = "SUCCESS"
    StateFailure  = "FAILURE"
)

// ErrJobNotFound is returned when no status record exists for a job id,
// either because the id is unknown or the record has expired.
var ErrJobNotFound = errors.New("job not found")

// statusTTL keeps finished job records around long enough for clients to
// poll them, then lets Redis reclaim the space.
const statusTTL = 24 * time.Hour

// JobStatus is the polled view of a background job.
type JobStatus struct {
    ID        string    `json:"id"`
    Name      string    `json:"name"`
    State     string    `json:"state"`
    Percent   int       `json:"percent"`
    Result    string    `json:"result,omitempty"`
    Error     string    `json:"error,omitempty"`
    UpdatedAt time.Time `json:"updated_at"`
}

// StatusStore persists job status records in Redis. Like the
// availability cache it tolerates a nil client: status updates become
// no-ops and lookups report the job as unknown, but jobs still run.
type StatusStore struct {
    client *redis.Client
    prefix string
}

// NewStatusStore builds the store. prefix namespaces the keys.
func NewStatusStore(client *redis.Client, prefix string) *StatusStore {
    if prefix == "" {
        prefix = "parkwise"
    }
    return &StatusStore{client: client, prefix: prefix}
}

func (s *StatusStore) key(id string) string { return s.prefix + ":job:" + id }

// Set writes the record, stamping UpdatedAt.
func (s *StatusStore) Set(ctx context.Context, st JobStatus) error {
    if s.client == nil {
        return nil
    }
    st.UpdatedAt = time.Now().UTC()
    raw, err := json.Marshal(st)
    if err != nil {
        return err
    }
    return s.client.Set(ctx, s.key(st.ID), raw, statusTTL).Err()
}

// Get loads the record for a job id.
func (s *StatusStore) Get(ctx context.Context, id string) (JobStatus, error) {
    if s.client == nil {
        return JobStatus{}, ErrJobNotFound
    }
    raw, err := s.client.Get(ctx, s.key(id)).Bytes()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return JobStatus{}, ErrJobNotFound
        }
        return JobStatus{}, err
    }
    var st JobStatus
    if err := json.Unmarshal(raw, &st); err != nil {
        return JobStatus{}, err
    }
    return st, nil
}
