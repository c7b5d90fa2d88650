package vault

import (
	"context"
	"time"

	"backend-wearquest/internal/db"
)

// Record is the anonymized long-term shape of a session. Raw tracking
// points and precise coordinates live only inside EncryptedData.
type Record struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ProductID     string    `json:"product_id"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at,omitempty"`
	DistanceM     float64   `json:"distance_m"`
	DurationSec   int64     `json:"duration_sec"`
	Valid         bool      `json:"valid"`
	NFCVerified   bool      `json:"nfc_verified"`
	ActivityType  string    `json:"activity_type"`
	EncryptedData []byte    `json:"-"`
}

// Store persists encrypted session records keyed by session id.
type Store interface {
	Put(ctx context.Context, rec Record, payload []byte) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, userID string) ([]Record, error)
}

type PGStore struct {
	db     db.Querier
	sealer *Sealer
}

func NewPGStore(db db.Querier, sealer *Sealer) *PGStore {
	return &PGStore{db: db, sealer: sealer}
}

// Put seals the plaintext payload and upserts the record. Snapshots of a
// running session and the final record share the session id.
func (s *PGStore) Put(ctx context.Context, rec Record, payload []byte) error {
	sealed, err := s.sealer.Seal(payload)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO activity_records (id, user_id, product_id, started_at, ended_at, distance_m, duration_sec, valid, nfc_verified, activity_type, encrypted_data)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE
		SET ended_at=EXCLUDED.ended_at, distance_m=EXCLUDED.distance_m,
		    duration_sec=EXCLUDED.duration_sec, valid=EXCLUDED.valid,
		    activity_type=EXCLUDED.activity_type, encrypted_data=EXCLUDED.encrypted_data
	`, rec.ID, rec.UserID, rec.ProductID, rec.StartedAt, timePtr(rec.EndedAt), rec.DistanceM, rec.DurationSec, rec.Valid, rec.NFCVerified, rec.ActivityType, sealed)
	return err
}

func (s *PGStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, product_id, started_at, ended_at, distance_m, duration_sec, valid, nfc_verified, activity_type, encrypted_data
		FROM activity_records WHERE id=$1
	`, id)
	return scanRecord(row)
}

func (s *PGStore) List(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, product_id, started_at, ended_at, distance_m, duration_sec, valid, nfc_verified, activity_type, encrypted_data
		FROM activity_records WHERE user_id=$1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Open decrypts a record's payload.
func (s *PGStore) Open(rec Record) ([]byte, error) {
	return s.sealer.Open(rec.EncryptedData)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (Record, error) {
	var rec Record
	var ended *time.Time
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.ProductID, &rec.StartedAt, &ended, &rec.DistanceM, &rec.DurationSec, &rec.Valid, &rec.NFCVerified, &rec.ActivityType, &rec.EncryptedData); err != nil {
		return Record{}, err
	}
	if ended != nil {
		rec.EndedAt = *ended
	}
	return rec, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
